package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promociones-residenciales/reservas/backend/config"
	"github.com/promociones-residenciales/reservas/backend/model"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := OpenSQLStore(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "reservas.db"),
	})
	require.NoError(t, err)
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLStoreReservationLifecycle(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	store.Clock = func() time.Time { return now }

	require.NoError(t, store.CreateReservation(ctx, &model.Reservation{
		ID:         "res-sql",
		ClientID:   "c1",
		UnitName:   "Bloque A - Cuarto A",
		TotalPrice: decimal.NewFromInt(250000),
		Status:     model.StatusConfirmed,
		Step:       3,
	}))

	got, err := store.GetReservation(ctx, "res-sql")
	require.NoError(t, err)
	assert.True(t, got.TotalPrice.Equal(decimal.NewFromInt(250000)))
	assert.Equal(t, model.StatusConfirmed, got.Status)

	status := model.StatusContractSigned
	step := model.StepContractSigned
	url := "/files/contratos/x.pdf"
	err = store.RunAtomic(ctx, func(tx ReservationTx) error {
		r, err := tx.GetReservation("res-sql")
		if err != nil {
			return err
		}
		require.False(t, r.Status.IsSigned())
		_, err = tx.UpdateReservation("res-sql", model.ReservationPatch{
			Status: &status, Step: &step, SignedContractURL: &url, StampSignedAt: true,
		})
		return err
	})
	require.NoError(t, err)

	got, err = store.GetReservation(ctx, "res-sql")
	require.NoError(t, err)
	assert.Equal(t, status, got.Status)
	assert.Equal(t, step, got.Step)
	assert.Equal(t, url, got.SignedContractURL)
	require.NotNil(t, got.SignedAt)
	assert.True(t, got.SignedAt.Equal(now))

	_, err = store.GetReservation(ctx, "missing")
	assert.True(t, errors.Is(err, model.ErrNotFound))
	_, err = store.UpdateReservation(ctx, "missing", model.ReservationPatch{Status: &status})
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestSQLStoreRunAtomicRollsBack(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateReservation(ctx, &model.Reservation{ID: "rb", Status: model.StatusConfirmed}))

	status := model.StatusContractSigned
	boom := errors.New("boom")
	err := store.RunAtomic(ctx, func(tx ReservationTx) error {
		if _, err := tx.UpdateReservation("rb", model.ReservationPatch{Status: &status}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.GetReservation(ctx, "rb")
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, got.Status)
}

func TestSQLStoreClientsUnitsAndTrail(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertClient(ctx, &model.Client{ID: "c1", Name: "Ana", Email: "ana@example.com", NationalID: "87654321X"}))
	require.NoError(t, store.UpsertClient(ctx, &model.Client{ID: "c1", Name: "Ana María", Email: "ana@example.com", NationalID: "87654321X"}))

	c, err := store.GetClient(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Ana María", c.Name)

	byID, err := store.FindClient(ctx, "", "87654321X")
	require.NoError(t, err)
	assert.Equal(t, "c1", byID.ID)
	_, err = store.FindClient(ctx, "", "")
	assert.True(t, errors.Is(err, model.ErrNotFound))

	require.NoError(t, store.SaveUnit(ctx, &model.Unit{ID: "u1", Name: "Bloque A - Cuarto A", UsableArea: decimal.RequireFromString("85.5")}))
	u, err := store.GetUnit(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, u.UsableArea.Equal(decimal.RequireFromString("85.5")))

	require.NoError(t, store.AddAuditEntry(ctx, &model.AuditEntry{ID: "a1", ReservationID: "r1", Kind: model.SignatureDigital, Valid: true, Metadata: []byte(`{"ip":"1.2.3.4"}`)}))
	entries, err := store.ListAuditEntries(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.JSONEq(t, `{"ip":"1.2.3.4"}`, string(entries[0].Metadata))

	require.NoError(t, store.AddErrorLog(ctx, &model.ErrorLog{ID: "e1", ReservationID: "r1", Operation: "process_signature", Message: "boom"}))
	logs, err := store.ListErrorLogs(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "boom", logs[0].Message)
}
