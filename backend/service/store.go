package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/promociones-residenciales/reservas/backend/config"
	"github.com/promociones-residenciales/reservas/backend/model"
)

// MemoryStore keeps every record in process memory.
// It backs tests and single-instance demos; data is lost on restart.
type MemoryStore struct {
	reservations map[string]*model.Reservation
	clients      map[string]*model.Client
	units        map[string]*model.Unit
	audit        []model.AuditEntry
	errorLogs    []model.ErrorLog
	mu           sync.RWMutex
	maxErrorLogs int // Maximum error logs to keep, 0 = unlimited

	// Clock assigns UpdatedAt and SignedAt.
	Clock func() time.Time
}

func NewMemoryStore(cfg *config.DatabaseConfig) *MemoryStore {
	maxErrorLogs := cfg.MaxErrorLogs
	if maxErrorLogs < 0 {
		maxErrorLogs = 0
	}
	slog.Info("memory store initialized", "max_error_logs", maxErrorLogs)
	return &MemoryStore{
		reservations: make(map[string]*model.Reservation),
		clients:      make(map[string]*model.Client),
		units:        make(map[string]*model.Unit),
		maxErrorLogs: maxErrorLogs,
		Clock:        time.Now,
	}
}

func (s *MemoryStore) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock()
}

func (s *MemoryStore) Close() error { return nil }

func cloneReservation(r *model.Reservation) *model.Reservation {
	c := *r
	if r.SignedAt != nil {
		t := *r.SignedAt
		c.SignedAt = &t
	}
	return &c
}

func (s *MemoryStore) GetReservation(_ context.Context, id string) (*model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, &model.NotFoundError{Entity: "reservation", ID: id}
	}
	return cloneReservation(r), nil
}

func (s *MemoryStore) GetClient(_ context.Context, id string) (*model.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, &model.NotFoundError{Entity: "client", ID: id}
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) GetUnit(_ context.Context, id string) (*model.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.units[id]
	if !ok {
		return nil, &model.NotFoundError{Entity: "unit", ID: id}
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) UpdateReservation(_ context.Context, id string, patch model.ReservationPatch) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, &model.NotFoundError{Entity: "reservation", ID: id}
	}
	patch.Apply(r, s.now())
	return cloneReservation(r), nil
}

// memoryTx stages reservation updates until the callback succeeds.
// Must be used with the store write lock held.
type memoryTx struct {
	store  *MemoryStore
	staged map[string]*model.Reservation
}

func (tx *memoryTx) GetReservation(id string) (*model.Reservation, error) {
	if r, ok := tx.staged[id]; ok {
		return cloneReservation(r), nil
	}
	r, ok := tx.store.reservations[id]
	if !ok {
		return nil, &model.NotFoundError{Entity: "reservation", ID: id}
	}
	return cloneReservation(r), nil
}

func (tx *memoryTx) UpdateReservation(id string, patch model.ReservationPatch) (*model.Reservation, error) {
	r, err := tx.GetReservation(id)
	if err != nil {
		return nil, err
	}
	patch.Apply(r, tx.store.now())
	tx.staged[id] = r
	return cloneReservation(r), nil
}

func (s *MemoryStore) RunAtomic(ctx context.Context, fn func(tx ReservationTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{store: s, staged: make(map[string]*model.Reservation)}
	if err := fn(tx); err != nil {
		return err
	}
	for id, r := range tx.staged {
		s.reservations[id] = r
	}
	return nil
}

func (s *MemoryStore) AddAuditEntry(_ context.Context, entry *model.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	s.audit = append(s.audit, *entry)
	return nil
}

func (s *MemoryStore) ListAuditEntries(_ context.Context, reservationID string) ([]model.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []model.AuditEntry
	for _, e := range s.audit {
		if e.ReservationID == reservationID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (s *MemoryStore) AddErrorLog(_ context.Context, entry *model.ErrorLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	s.errorLogs = append(s.errorLogs, *entry)

	// Cleanup if exceeds max
	s.cleanupIfNeeded()
	return nil
}

func (s *MemoryStore) ListErrorLogs(_ context.Context, reservationID string) ([]model.ErrorLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []model.ErrorLog
	for _, e := range s.errorLogs {
		if e.ReservationID == reservationID {
			result = append(result, e)
		}
	}
	return result, nil
}

// cleanupIfNeeded removes the oldest error logs if the store exceeds maxErrorLogs
// Must be called with lock held
func (s *MemoryStore) cleanupIfNeeded() {
	if s.maxErrorLogs <= 0 {
		return // Unlimited
	}
	if len(s.errorLogs) <= s.maxErrorLogs {
		return
	}

	sort.SliceStable(s.errorLogs, func(i, j int) bool {
		return s.errorLogs[i].CreatedAt.Before(s.errorLogs[j].CreatedAt)
	})

	removeCount := len(s.errorLogs) - s.maxErrorLogs
	for i := 0; i < removeCount; i++ {
		slog.Info("auto-cleaning old error log",
			"reservation_id", s.errorLogs[i].ReservationID,
			"created_at", s.errorLogs[i].CreatedAt,
		)
	}
	s.errorLogs = append([]model.ErrorLog(nil), s.errorLogs[removeCount:]...)
}

// ErrorLogCount returns the number of error logs kept
func (s *MemoryStore) ErrorLogCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.errorLogs)
}

func (s *MemoryStore) SaveUnit(_ context.Context, unit *model.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *unit
	s.units[unit.ID] = &cp
	return nil
}

func (s *MemoryStore) UpsertClient(_ context.Context, client *model.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if existing, ok := s.clients[client.ID]; ok {
		client.CreatedAt = existing.CreatedAt
	} else if client.CreatedAt.IsZero() {
		client.CreatedAt = now
	}
	client.UpdatedAt = now
	cp := *client
	s.clients[client.ID] = &cp
	return nil
}

func (s *MemoryStore) FindClient(_ context.Context, email, nationalID string) (*model.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if email != "" || nationalID != "" {
		for _, c := range s.clients {
			if (email != "" && c.Email == email) || (nationalID != "" && c.NationalID == nationalID) {
				cp := *c
				return &cp, nil
			}
		}
	}
	return nil, &model.NotFoundError{Entity: "client", ID: email + nationalID}
}

func (s *MemoryStore) CreateReservation(_ context.Context, reservation *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[reservation.ID]; ok {
		return &model.PersistenceError{Op: "create reservation", Err: fmt.Errorf("reservation %q already exists", reservation.ID)}
	}
	now := s.now()
	if reservation.CreatedAt.IsZero() {
		reservation.CreatedAt = now
	}
	reservation.UpdatedAt = now
	s.reservations[reservation.ID] = cloneReservation(reservation)
	return nil
}

// Count returns the number of reservations in the store
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reservations)
}
