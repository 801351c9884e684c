package service

import (
	"context"
	"fmt"

	"github.com/promociones-residenciales/reservas/backend/config"
	"github.com/promociones-residenciales/reservas/backend/model"
)

// Gateway is the persistence surface the contract pipeline depends on.
// Point reads fail with *model.NotFoundError when the record is absent.
type Gateway interface {
	GetReservation(ctx context.Context, id string) (*model.Reservation, error)
	GetClient(ctx context.Context, id string) (*model.Client, error)
	GetUnit(ctx context.Context, id string) (*model.Unit, error)

	// UpdateReservation merges patch into the stored reservation and stamps UpdatedAt.
	// Applying the same patch twice leaves the same record.
	UpdateReservation(ctx context.Context, id string, patch model.ReservationPatch) (*model.Reservation, error)

	// RunAtomic runs fn with reads and writes isolated from concurrent writers.
	// Updates made through tx are discarded when fn returns an error.
	RunAtomic(ctx context.Context, fn func(tx ReservationTx) error) error

	AddAuditEntry(ctx context.Context, entry *model.AuditEntry) error
	ListAuditEntries(ctx context.Context, reservationID string) ([]model.AuditEntry, error)

	AddErrorLog(ctx context.Context, entry *model.ErrorLog) error
	ListErrorLogs(ctx context.Context, reservationID string) ([]model.ErrorLog, error)
}

// ReservationTx is the view of the store handed to RunAtomic callbacks.
type ReservationTx interface {
	GetReservation(id string) (*model.Reservation, error)
	UpdateReservation(id string, patch model.ReservationPatch) (*model.Reservation, error)
}

// RecordWriter covers the writes done outside the signing pipeline: buyer data capture and seeding.
type RecordWriter interface {
	SaveUnit(ctx context.Context, unit *model.Unit) error
	// UpsertClient creates or replaces the client keyed by ID.
	UpsertClient(ctx context.Context, client *model.Client) error
	// FindClient looks a client up by email or national ID.
	FindClient(ctx context.Context, email, nationalID string) (*model.Client, error)
	CreateReservation(ctx context.Context, reservation *model.Reservation) error
}

// Store is a complete persistence backend.
type Store interface {
	Gateway
	RecordWriter
	Close() error
}

// OpenStore builds the store selected by cfg.Driver.
func OpenStore(cfg *config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(cfg), nil
	case "sqlite", "postgres":
		store, err := OpenSQLStore(cfg)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
