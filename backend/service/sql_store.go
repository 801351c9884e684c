package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/promociones-residenciales/reservas/backend/config"
	"github.com/promociones-residenciales/reservas/backend/model"
)

// SQLStore persists records through gorm on sqlite or postgres.
type SQLStore struct {
	db      *gorm.DB
	dialect string

	// Clock assigns UpdatedAt and SignedAt.
	Clock func() time.Time
}

// OpenSQLStore connects to the database selected by cfg.Driver.
func OpenSQLStore(cfg *config.DatabaseConfig) (*SQLStore, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}

	level := gormlogger.Warn
	if cfg.Debug {
		level = gormlogger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}
	return NewSQLStore(db), nil
}

// NewSQLStore wraps an open gorm handle.
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db, dialect: db.Dialector.Name(), Clock: time.Now}
}

// Migrate creates or updates every table the service uses.
func (s *SQLStore) Migrate() error {
	return s.db.AutoMigrate(
		&model.Unit{},
		&model.Client{},
		&model.Reservation{},
		&model.AuditEntry{},
		&model.ErrorLog{},
	)
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLStore) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock()
}

func translate(op, entity, id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.NotFoundError{Entity: entity, ID: id}
	}
	return &model.PersistenceError{Op: op, Err: err}
}

func (s *SQLStore) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	var r model.Reservation
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, translate("get reservation", "reservation", id, err)
	}
	return &r, nil
}

func (s *SQLStore) GetClient(ctx context.Context, id string) (*model.Client, error) {
	var c model.Client
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate("get client", "client", id, err)
	}
	return &c, nil
}

func (s *SQLStore) GetUnit(ctx context.Context, id string) (*model.Unit, error) {
	var u model.Unit
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate("get unit", "unit", id, err)
	}
	return &u, nil
}

func (s *SQLStore) UpdateReservation(ctx context.Context, id string, patch model.ReservationPatch) (*model.Reservation, error) {
	return updateReservation(s.db.WithContext(ctx), id, patch, s.now())
}

func updateReservation(db *gorm.DB, id string, patch model.ReservationPatch, now time.Time) (*model.Reservation, error) {
	res := db.Model(&model.Reservation{}).Where("id = ?", id).Updates(patch.Columns(now))
	if res.Error != nil {
		return nil, &model.PersistenceError{Op: "update reservation", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return nil, &model.NotFoundError{Entity: "reservation", ID: id}
	}
	var r model.Reservation
	if err := db.First(&r, "id = ?", id).Error; err != nil {
		return nil, translate("reload reservation", "reservation", id, err)
	}
	return &r, nil
}

type sqlTx struct {
	db   *gorm.DB
	lock bool
	now  time.Time
}

func (tx *sqlTx) GetReservation(id string) (*model.Reservation, error) {
	q := tx.db
	if tx.lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var r model.Reservation
	if err := q.First(&r, "id = ?", id).Error; err != nil {
		return nil, translate("get reservation", "reservation", id, err)
	}
	return &r, nil
}

func (tx *sqlTx) UpdateReservation(id string, patch model.ReservationPatch) (*model.Reservation, error) {
	return updateReservation(tx.db, id, patch, tx.now)
}

// RunAtomic runs fn inside a transaction. On postgres reads take a row lock;
// sqlite serializes writers on its own.
func (s *SQLStore) RunAtomic(ctx context.Context, fn func(tx ReservationTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&sqlTx{db: db, lock: s.dialect == "postgres", now: s.now()})
	})
}

func (s *SQLStore) AddAuditEntry(ctx context.Context, entry *model.AuditEntry) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return &model.PersistenceError{Op: "add audit entry", Err: err}
	}
	return nil
}

func (s *SQLStore) ListAuditEntries(ctx context.Context, reservationID string) ([]model.AuditEntry, error) {
	var entries []model.AuditEntry
	err := s.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("created_at").
		Find(&entries).Error
	if err != nil {
		return nil, &model.PersistenceError{Op: "list audit entries", Err: err}
	}
	return entries, nil
}

func (s *SQLStore) AddErrorLog(ctx context.Context, entry *model.ErrorLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return &model.PersistenceError{Op: "add error log", Err: err}
	}
	return nil
}

func (s *SQLStore) ListErrorLogs(ctx context.Context, reservationID string) ([]model.ErrorLog, error) {
	var logs []model.ErrorLog
	err := s.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("created_at").
		Find(&logs).Error
	if err != nil {
		return nil, &model.PersistenceError{Op: "list error logs", Err: err}
	}
	return logs, nil
}

func (s *SQLStore) SaveUnit(ctx context.Context, unit *model.Unit) error {
	if err := s.db.WithContext(ctx).Save(unit).Error; err != nil {
		return &model.PersistenceError{Op: "save unit", Err: err}
	}
	return nil
}

func (s *SQLStore) UpsertClient(ctx context.Context, client *model.Client) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "surname", "national_id", "email", "phone", "street", "number",
			"floor_door", "postal_code", "city", "province", "updated_at",
		}),
	}).Create(client).Error
	if err != nil {
		return &model.PersistenceError{Op: "upsert client", Err: err}
	}
	return nil
}

func (s *SQLStore) FindClient(ctx context.Context, email, nationalID string) (*model.Client, error) {
	if email == "" && nationalID == "" {
		return nil, &model.NotFoundError{Entity: "client"}
	}
	q := s.db.WithContext(ctx)
	switch {
	case email != "" && nationalID != "":
		q = q.Where("email = ? OR national_id = ?", email, nationalID)
	case email != "":
		q = q.Where("email = ?", email)
	default:
		q = q.Where("national_id = ?", nationalID)
	}
	var c model.Client
	if err := q.First(&c).Error; err != nil {
		return nil, translate("find client", "client", email+nationalID, err)
	}
	return &c, nil
}

func (s *SQLStore) CreateReservation(ctx context.Context, reservation *model.Reservation) error {
	if err := s.db.WithContext(ctx).Create(reservation).Error; err != nil {
		return &model.PersistenceError{Op: "create reservation", Err: err}
	}
	return nil
}
