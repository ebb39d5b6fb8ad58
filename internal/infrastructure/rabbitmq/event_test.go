package rabbitmq

import (
	"testing"
	"time"

	"github.com/yourusername/scan-pos/internal/domain/entity"
)

func TestCartChangedEncoding(t *testing.T) {
	state := entity.NewCartState()
	state.Items["0"] = entity.CartItem{Key: "0", ProductID: "p1", Barcode: "4780000000011", Name: "Non", UnitPrice: 450000, Quantity: 2}
	state.NextKey = 1

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	ev := newCartChanged(entity.CartSnapshot{Partition: "global", Version: "7", State: state}, "till-1", at)
	if ev.EventID == "" {
		t.Fatal("expected event id")
	}

	body, err := encodeEvent(ev)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := decodeEvent(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	snap := got.Snapshot()
	if snap.Partition != "global" || snap.Version != "7" {
		t.Errorf("unexpected snapshot header: %+v", snap)
	}
	if snap.State.NextKey != 1 {
		t.Errorf("NextKey = %d, want 1", snap.State.NextKey)
	}
	item, ok := snap.State.Items["0"]
	if !ok || item.Quantity != 2 || item.UnitPrice != 450000 {
		t.Errorf("unexpected item: %+v", item)
	}
	if got.Origin != "till-1" || !got.OccurredAt.Equal(at) {
		t.Errorf("unexpected origin/time: %q %v", got.Origin, got.OccurredAt)
	}
}

func TestDecodeEventRejectsBadInput(t *testing.T) {
	if _, err := decodeEvent([]byte("not json")); err == nil {
		t.Error("expected error for malformed body")
	}
	if _, err := decodeEvent([]byte(`{"eventId":"x","version":"1"}`)); err == nil {
		t.Error("expected error for missing partition")
	}

	ev, err := decodeEvent([]byte(`{"eventId":"x","partition":"global","version":"1","state":{"nextKey":0}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.State.Items == nil {
		t.Error("expected empty items map")
	}
}
