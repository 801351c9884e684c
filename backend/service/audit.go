package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/promociones-residenciales/reservas/backend/model"
	"github.com/promociones-residenciales/reservas/backend/pkg/format"
	"github.com/promociones-residenciales/reservas/backend/pkg/logger"
)

// AuditRecorder writes the append-only trail of signature events and failures.
type AuditRecorder struct {
	gw  Gateway
	Now func() time.Time
}

func NewAuditRecorder(gw Gateway) *AuditRecorder {
	return &AuditRecorder{gw: gw, Now: time.Now}
}

func (r *AuditRecorder) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

type auditMetadata struct {
	IP           string          `json:"ip"`
	UserAgent    string          `json:"user_agent"`
	Browser      string          `json:"browser"`
	Format       string          `json:"format"`
	ImageSubtype string          `json:"image_subtype,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// Record stores one AuditEntry for sig. Failures come back as *model.AuditWriteError.
func (r *AuditRecorder) Record(ctx context.Context, reservationID string, sig *model.SignatureRecord) (*model.AuditEntry, error) {
	meta := auditMetadata{
		IP:           sig.IP,
		UserAgent:    sig.UserAgent,
		Browser:      format.Browser(sig.UserAgent),
		Format:       sig.Format,
		ImageSubtype: sig.ImageSubtype,
	}
	if !sig.HasImage() {
		meta.Payload = sig.Decoded
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, &model.AuditWriteError{Err: err}
	}

	entry := &model.AuditEntry{
		ID:            uuid.New().String(),
		ReservationID: reservationID,
		Kind:          sig.Kind,
		Hash:          sig.Hash,
		Size:          sig.Size,
		Format:        sig.Format,
		IP:            sig.IP,
		UserAgent:     sig.UserAgent,
		Metadata:      datatypes.JSON(raw),
		Valid:         true,
		SignedAt:      sig.ProcessedAt,
		CreatedAt:     r.now(),
	}
	if err := r.gw.AddAuditEntry(ctx, entry); err != nil {
		return nil, &model.AuditWriteError{Err: err}
	}
	logger.Info(ctx, "audit entry recorded", "audit_id", entry.ID, "hash", format.ShortHash(entry.Hash, 16))
	return entry, nil
}

// OpOrphanedAuditEntry is the ErrorLog operation of RecordOrphan.
const OpOrphanedAuditEntry = "orphaned_audit_entry"

// RecordFailure stores an ErrorLog row for a failed operation. It never fails the caller.
func (r *AuditRecorder) RecordFailure(ctx context.Context, reservationID, op string, cause error) {
	entry := &model.ErrorLog{
		ID:            uuid.New().String(),
		ReservationID: reservationID,
		Operation:     op,
		Message:       truncate(cause.Error(), 500),
		CreatedAt:     r.now(),
	}
	var verr *model.ValidationError
	if errors.As(cause, &verr) {
		entry.Details = strings.Join(verr.Problems, ", ")
	}
	if err := r.gw.AddErrorLog(ctx, entry); err != nil {
		logger.Error(ctx, "failed to record error log", "operation", op, "error", err)
	}
}

// RecordOrphan flags an audit entry whose contract was never linked to the
// reservation. Entries are append-only, so the flag is an ErrorLog naming the entry.
func (r *AuditRecorder) RecordOrphan(ctx context.Context, reservationID, auditID string, cause error) {
	r.RecordFailure(ctx, reservationID, OpOrphanedAuditEntry,
		fmt.Errorf("audit entry %s has no signed contract: %w", auditID, cause))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "")
}
