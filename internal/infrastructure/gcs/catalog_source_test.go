package gcs

import (
	"context"
	"testing"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri     string
		bucket  string
		object  string
		wantErr bool
	}{
		{uri: "gs://shop-catalogs/2024/products.xlsx", bucket: "shop-catalogs", object: "2024/products.xlsx"},
		{uri: "  gs://b/o.xlsx ", bucket: "b", object: "o.xlsx"},
		{uri: "gs://b//o.xlsx", bucket: "b", object: "o.xlsx"},
		{uri: "https://storage.googleapis.com/b/o.xlsx", wantErr: true},
		{uri: "gs://bucket-only", wantErr: true},
		{uri: "gs://bucket/", wantErr: true},
		{uri: "", wantErr: true},
	}

	for _, tt := range tests {
		bucket, object, err := ParseURI(tt.uri)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseURI(%q) expected error, got %q %q", tt.uri, bucket, object)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseURI(%q) unexpected error: %v", tt.uri, err)
			continue
		}
		if bucket != tt.bucket || object != tt.object {
			t.Errorf("ParseURI(%q) = %q %q, want %q %q", tt.uri, bucket, object, tt.bucket, tt.object)
		}
	}
}

func TestFetchWithoutClient(t *testing.T) {
	var s *CatalogSource
	if _, _, err := s.Fetch(context.Background(), "gs://b/o.xlsx"); err == nil {
		t.Fatal("expected error for nil source")
	}
}
