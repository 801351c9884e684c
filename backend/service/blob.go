package service

import (
	"context"
	"fmt"
	"time"

	"github.com/promociones-residenciales/reservas/backend/config"
)

const pdfContentType = "application/pdf"

// BlobStore persists rendered documents and returns a publicly fetchable URL.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// SignedContractKey names a signed contract: the reservation id plus the generation time.
func SignedContractKey(prefix, reservationID string, at time.Time) string {
	return fmt.Sprintf("%s/contrato_firmado_%s_%d.pdf", prefix, reservationID, at.UnixMilli())
}

// TemplateKey names an unsigned contract.
func TemplateKey(prefix, reservationID string, at time.Time) string {
	return fmt.Sprintf("%s/contrato_%s_%d.pdf", prefix, reservationID, at.UnixMilli())
}

// OpenBlobStore builds the blob store selected by cfg.Storage.Driver.
func OpenBlobStore(ctx context.Context, cfg *config.Config) (BlobStore, error) {
	switch cfg.Storage.Driver {
	case "", "local":
		return NewLocalBlobStore(cfg.Storage.LocalDir, LocalBaseURL(cfg.Storage.PublicBaseURL))
	case "minio":
		svc, err := NewMinioService(&cfg.Minio, &cfg.Storage)
		if err != nil {
			return nil, err
		}
		if err := svc.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
