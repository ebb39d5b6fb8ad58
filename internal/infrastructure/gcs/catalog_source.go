package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yourusername/scan-pos/internal/domain/repository"
)

// maxCatalogSize katalog fayli uchun yuqori chegara
const maxCatalogSize = 32 << 20

// CatalogSource gs://bucket/object manzilidan Excel katalogni o'qiydi
type CatalogSource struct {
	Client *storage.Client
}

var _ repository.CatalogSource = (*CatalogSource)(nil)

// NewStorageClient credentialsFile bo'sh bo'lsa ADC ishlatiladi
func NewStorageClient(ctx context.Context, credentialsFile string) (*storage.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return client, nil
}

// NewCatalogSource yangi GCS katalog manbasi
func NewCatalogSource(client *storage.Client) *CatalogSource {
	return &CatalogSource{Client: client}
}

// Fetch obyektni to'liq o'qish
func (s *CatalogSource) Fetch(ctx context.Context, uri string) ([]byte, string, error) {
	if s == nil || s.Client == nil {
		return nil, "", errors.New("gcs catalog source: storage client is nil")
	}
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return nil, "", err
	}

	r, err := s.Client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, "", fmt.Errorf("gcs catalog source: %s not found", uri)
		}
		return nil, "", fmt.Errorf("gcs catalog source: open %s: %w", uri, err)
	}
	defer r.Close()

	if r.Attrs.Size > maxCatalogSize {
		return nil, "", fmt.Errorf("gcs catalog source: %s is too large (%d bytes)", uri, r.Attrs.Size)
	}

	data, err := io.ReadAll(io.LimitReader(r, maxCatalogSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("gcs catalog source: read %s: %w", uri, err)
	}
	if len(data) > maxCatalogSize {
		return nil, "", fmt.Errorf("gcs catalog source: %s is too large", uri)
	}
	return data, path.Base(object), nil
}

// ParseURI "gs://bucket/path/to/file.xlsx" ni bucket va obyekt nomiga ajratadi
func ParseURI(uri string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "gs://")
	if !ok {
		return "", "", fmt.Errorf("gcs catalog source: %q is not a gs:// uri", uri)
	}
	bucket, object, _ = strings.Cut(rest, "/")
	object = strings.TrimLeft(object, "/")
	if bucket == "" || object == "" {
		return "", "", fmt.Errorf("gcs catalog source: %q must name a bucket and an object", uri)
	}
	return bucket, object, nil
}
