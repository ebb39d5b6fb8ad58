package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/scan-pos/internal/domain/entity"
)

// CartChanged exchange ga yuboriladigan xabar
type CartChanged struct {
	EventID    string           `json:"eventId"`
	Partition  string           `json:"partition"`
	Version    string           `json:"version"`
	State      entity.CartState `json:"state"`
	OccurredAt time.Time        `json:"occurredAt"`
	Origin     string           `json:"origin,omitempty"`
}

func newCartChanged(snap entity.CartSnapshot, origin string, at time.Time) CartChanged {
	return CartChanged{
		EventID:    uuid.New().String(),
		Partition:  snap.Partition,
		Version:    snap.Version,
		State:      snap.State,
		OccurredAt: at.UTC(),
		Origin:     origin,
	}
}

func encodeEvent(ev CartChanged) ([]byte, error) {
	return json.Marshal(ev)
}

func decodeEvent(body []byte) (CartChanged, error) {
	var ev CartChanged
	if err := json.Unmarshal(body, &ev); err != nil {
		return CartChanged{}, fmt.Errorf("failed to decode cart event: %w", err)
	}
	if ev.Partition == "" {
		return CartChanged{}, fmt.Errorf("cart event %s has no partition", ev.EventID)
	}
	if ev.State.Items == nil {
		ev.State.Items = map[string]entity.CartItem{}
	}
	return ev, nil
}

// Snapshot xabardagi holat
func (ev CartChanged) Snapshot() entity.CartSnapshot {
	return entity.CartSnapshot{Partition: ev.Partition, Version: ev.Version, State: ev.State}
}
