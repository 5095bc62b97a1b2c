package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/lecturacritica/tutor-api/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
	storage "github.com/supabase-community/storage-go"
)

// StorageProvider is the object store behind readings and submissions.
type StorageProvider interface {
	Upload(ctx context.Context, bucket, path string, r io.Reader, size int64, contentType string) error
	Download(ctx context.Context, bucket, path string) ([]byte, error)
	PublicURL(bucket, path string) string
}

func NewStorageProvider(cfg *config.Config) (StorageProvider, error) {
	switch cfg.Storage.Provider {
	case "minio":
		return NewMinioStorageProvider(cfg)
	case "", "supabase":
		return NewSupabaseStorageProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_PROVIDER %q", cfg.Storage.Provider)
	}
}

type SupabaseStorageProvider struct {
	baseURL string
	client  *storage.Client
}

func NewSupabaseStorageProvider(cfg *config.Config) *SupabaseStorageProvider {
	if cfg.Storage.SupabaseURL == "" || cfg.Storage.SupabaseKey == "" {
		log.Warn().Msg("SUPABASE_URL or SUPABASE_KEY is not set. Uploads will fail.")
		return &SupabaseStorageProvider{}
	}
	client := storage.NewClient(cfg.Storage.SupabaseURL+"/storage/v1", cfg.Storage.SupabaseKey, nil)
	return &SupabaseStorageProvider{baseURL: cfg.Storage.SupabaseURL, client: client}
}

func (p *SupabaseStorageProvider) Upload(ctx context.Context, bucket, path string, r io.Reader, size int64, contentType string) error {
	if p.client == nil {
		return fmt.Errorf("%w: supabase no configurado", ErrStorage)
	}
	upsert := false
	_, err := p.client.UploadFile(bucket, path, r, storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("%w: upload %s/%s: %v", ErrStorage, bucket, path, err)
	}
	return nil
}

func (p *SupabaseStorageProvider) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	if p.client == nil {
		return nil, fmt.Errorf("%w: supabase no configurado", ErrStorage)
	}
	data, err := p.client.DownloadFile(bucket, path)
	if err != nil {
		return nil, fmt.Errorf("%w: download %s/%s: %v", ErrStorage, bucket, path, err)
	}
	return data, nil
}

func (p *SupabaseStorageProvider) PublicURL(bucket, path string) string {
	if path == "" {
		return ""
	}
	if p.client != nil {
		if signed := p.client.GetPublicUrl(bucket, path).SignedURL; signed != "" {
			return signed
		}
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", p.baseURL, bucket, escapePath(path))
}

type MinioStorageProvider struct {
	endpoint string
	secure   bool
	client   *minio.Client
}

func NewMinioStorageProvider(cfg *config.Config) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.Storage.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.MinioAccessKey, cfg.Storage.MinioSecretKey, ""),
		Secure: cfg.Storage.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}
	return &MinioStorageProvider{endpoint: cfg.Storage.MinioEndpoint, secure: cfg.Storage.MinioUseSSL, client: client}, nil
}

func (p *MinioStorageProvider) Upload(ctx context.Context, bucket, path string, r io.Reader, size int64, contentType string) error {
	_, err := p.client.PutObject(ctx, bucket, path, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("%w: upload %s/%s: %v", ErrStorage, bucket, path, err)
	}
	return nil
}

func (p *MinioStorageProvider) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	obj, err := p.client.GetObject(ctx, bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: download %s/%s: %v", ErrStorage, bucket, path, err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, obj); err != nil {
		return nil, fmt.Errorf("%w: read %s/%s: %v", ErrStorage, bucket, path, err)
	}
	return buf.Bytes(), nil
}

func (p *MinioStorageProvider) PublicURL(bucket, path string) string {
	if path == "" {
		return ""
	}
	scheme := "http"
	if p.secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, p.endpoint, bucket, escapePath(path))
}

func escapePath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
