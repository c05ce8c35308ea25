// Package objectstore is the bucket/path object storage consumed by the
// signing flow and the template designer uploads.
package objectstore

import (
	"context"
	"strings"
	"sync"

	"certia/internal/store"
	"certia/pkg/domain"
)

const (
	BucketLogos       = "logos"
	BucketBackgrounds = "backgrounds"
	BucketTempSigs    = "temp-signatures"
	BucketSignedCerts = "signed-certificates"
)

const (
	MaxLogoSize        = 5 << 20
	MaxBackgroundSize  = 10 << 20
	MaxCertificateSize = 15 << 20
)

type Store interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error
	Download(ctx context.Context, bucket, path string) ([]byte, string, error)
	PublicURL(bucket, path string) string
	Remove(ctx context.Context, bucket string, paths ...string) error
}

// CheckUpload enforces the per-bucket size and content-type limits.
func CheckUpload(bucket, contentType string, size int) error {
	switch bucket {
	case BucketLogos:
		if size > MaxLogoSize {
			return domain.Validationf("logo exceeds %d bytes", MaxLogoSize)
		}
		if !strings.HasPrefix(contentType, "image/") {
			return domain.Validationf("logo must be an image, got %s", contentType)
		}
	case BucketBackgrounds:
		if size > MaxBackgroundSize {
			return domain.Validationf("background exceeds %d bytes", MaxBackgroundSize)
		}
		if !strings.HasPrefix(contentType, "image/") {
			return domain.Validationf("background must be an image, got %s", contentType)
		}
	case BucketTempSigs, BucketSignedCerts:
		if size > MaxCertificateSize {
			return domain.Validationf("certificate exceeds %d bytes", MaxCertificateSize)
		}
		if contentType != "application/pdf" {
			return domain.Validationf("certificate must be application/pdf, got %s", contentType)
		}
	default:
		return domain.NotFoundf("bucket %s", bucket)
	}
	return nil
}

// PG serves objects out of the Postgres objects table. Public URLs point at
// the file-serving route of this service.
type PG struct {
	Store   *store.Store
	BaseURL string
}

func NewPG(st *store.Store, baseURL string) *PG {
	return &PG{Store: st, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (p *PG) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	if err := CheckUpload(bucket, contentType, len(data)); err != nil {
		return err
	}
	return p.Store.PutObject(ctx, store.Object{Bucket: bucket, Path: path, ContentType: contentType, Bytes: data})
}

func (p *PG) Download(ctx context.Context, bucket, path string) ([]byte, string, error) {
	obj, err := p.Store.GetObject(ctx, bucket, path)
	if err != nil {
		return nil, "", err
	}
	return obj.Bytes, obj.ContentType, nil
}

func (p *PG) PublicURL(bucket, path string) string {
	return p.BaseURL + "/files/" + bucket + "/" + path
}

func (p *PG) Remove(ctx context.Context, bucket string, paths ...string) error {
	return p.Store.RemoveObjects(ctx, bucket, paths)
}

// Memory is the test double.
type Memory struct {
	mu      sync.Mutex
	objects map[string]memObject
	BaseURL string
}

type memObject struct {
	data        []byte
	contentType string
}

func NewMemory() *Memory {
	return &Memory{objects: map[string]memObject{}, BaseURL: "http://files.local"}
}

func (m *Memory) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	if err := CheckUpload(bucket, contentType, len(data)); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+path] = memObject{data: data, contentType: contentType}
	return nil
}

func (m *Memory) Download(ctx context.Context, bucket, path string) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[bucket+"/"+path]
	if !ok {
		return nil, "", domain.NotFoundf("object %s/%s", bucket, path)
	}
	return obj.data, obj.contentType, nil
}

func (m *Memory) PublicURL(bucket, path string) string {
	return m.BaseURL + "/files/" + bucket + "/" + path
}

func (m *Memory) Remove(ctx context.Context, bucket string, paths ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range paths {
		delete(m.objects, bucket+"/"+p)
	}
	return nil
}

// Len reports how many objects are stored; used by tests checking temp
// cleanup.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
