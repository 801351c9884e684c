package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/promociones-residenciales/reservas/backend/config"
	"github.com/promociones-residenciales/reservas/backend/model"
	"github.com/promociones-residenciales/reservas/backend/pkg/format"
	"github.com/promociones-residenciales/reservas/backend/pkg/logger"
)

// Renderer produces contract PDFs. sig is nil for the unsigned variant.
type Renderer interface {
	Render(data *model.ContractData, sig *model.SignatureRecord) ([]byte, error)
}

// AuditUnavailable replaces the audit entry in a successful response when it could not be written.
var AuditUnavailable = map[string]string{"error": "audit entry not created"}

// SignRequest is a signature submitted for a reservation.
type SignRequest struct {
	ReservationID string
	Kind          model.SignatureKind
	Payload       json.RawMessage
	Meta          model.RequestMeta
}

// SignResult is the outcome of ProcessSignature. Err keeps the cause for status mapping.
type SignResult struct {
	Success           bool   `json:"success"`
	SignedContractURL string `json:"signedContractUrl,omitempty"`
	AuditEntry        any    `json:"auditEntry,omitempty"`
	Message           string `json:"message,omitempty"`
	Error             string `json:"error,omitempty"`
	Details           any    `json:"details,omitempty"`
	Err               error  `json:"-"`
}

// ContractService runs contract generation and the signing pipeline.
type ContractService struct {
	gw         Gateway
	blobs      BlobStore
	renderer   Renderer
	assembler  *Assembler
	signatures *SignatureProcessor
	audit      *AuditRecorder
	storage    config.StorageConfig
	now        func() time.Time
}

func NewContractService(gw Gateway, blobs BlobStore, renderer Renderer, cfg *config.Config) *ContractService {
	return &ContractService{
		gw:         gw,
		blobs:      blobs,
		renderer:   renderer,
		assembler:  NewAssembler(gw, cfg),
		signatures: NewSignatureProcessor(),
		audit:      NewAuditRecorder(gw),
		storage:    cfg.Storage,
		now:        time.Now,
	}
}

// SetClock replaces the time source of the whole pipeline.
func (s *ContractService) SetClock(now func() time.Time) {
	s.now = now
	s.assembler.Now = now
	s.signatures.Now = now
	s.audit.Now = now
}

// GenerateContract renders the unsigned contract of a fully populated reservation.
func (s *ContractService) GenerateContract(ctx context.Context, reservationID string) ([]byte, *model.ContractData, error) {
	ctx = logger.WithReservation(ctx, reservationID)
	data, err := s.assembler.Assemble(ctx, reservationID, AssembleOptions{Validate: true})
	if err != nil {
		return nil, nil, err
	}
	pdf, err := s.renderer.Render(data, nil)
	if err != nil {
		return nil, nil, err
	}
	logger.Info(ctx, "contract generated", "number", data.Number, "size", len(pdf))
	return pdf, data, nil
}

// PublishTemplate stores the unsigned contract under the template prefix and returns its URL.
func (s *ContractService) PublishTemplate(ctx context.Context, reservationID string) (string, error) {
	pdf, _, err := s.GenerateContract(ctx, reservationID)
	if err != nil {
		return "", err
	}
	key := TemplateKey(s.storage.TemplatePrefix, reservationID, s.now())
	url, err := s.blobs.Put(ctx, key, pdf, pdfContentType)
	if err != nil {
		return "", &model.PersistenceError{Op: "store contract template", Err: err}
	}
	return url, nil
}

// ProcessSignature validates the signature, renders and stores the signed contract,
// records the audit entry and marks the reservation signed, in that order.
// It never returns an error: failures are reported in the result.
func (s *ContractService) ProcessSignature(ctx context.Context, req SignRequest) SignResult {
	id := req.ReservationID
	ctx = logger.WithReservation(ctx, id)

	sig, err := s.signatures.Process(req.Kind, req.Payload, req.Meta)
	if err != nil {
		return s.fail(ctx, id, err)
	}

	current, err := s.gw.GetReservation(ctx, id)
	if err != nil {
		return s.fail(ctx, id, err)
	}
	if current.Status.IsSigned() {
		return s.fail(ctx, id, &model.ConflictError{ReservationID: id, Status: current.Status})
	}

	data, err := s.assembler.Assemble(ctx, id, AssembleOptions{})
	if err != nil {
		return s.fail(ctx, id, err)
	}
	pdf, err := s.renderer.Render(data, sig)
	if err != nil {
		return s.fail(ctx, id, err)
	}

	key := SignedContractKey(s.storage.SignedPrefix, id, s.now())
	url, err := s.blobs.Put(ctx, key, pdf, pdfContentType)
	if err != nil {
		return s.fail(ctx, id, &model.PersistenceError{Op: "store signed contract", Err: err})
	}

	var (
		auditField any = AuditUnavailable
		auditID    string
	)
	entry, err := s.audit.Record(ctx, id, sig)
	if err != nil {
		logger.Warn(ctx, "audit entry not created", "error", err)
	} else {
		auditField = entry
		auditID = entry.ID
	}

	if err := s.markSigned(ctx, id, url, auditID); err != nil {
		// the stored PDF has no reservation pointing at it any more
		if derr := s.blobs.Delete(context.WithoutCancel(ctx), key); derr != nil {
			logger.Error(ctx, "failed to remove orphaned contract", "key", key, "error", derr)
		}
		if auditID != "" {
			s.audit.RecordOrphan(context.WithoutCancel(ctx), id, auditID, err)
		}
		return s.fail(ctx, id, err)
	}

	logger.Info(ctx, "contract signed",
		"number", data.Number,
		"hash", format.ShortHash(sig.Hash, 16),
		"url", url,
	)
	return SignResult{
		Success:           true,
		SignedContractURL: url,
		AuditEntry:        auditField,
		Message:           "contract signed successfully",
	}
}

// markSigned re-reads the reservation inside the atomic section so two concurrent
// signatures cannot both win.
func (s *ContractService) markSigned(ctx context.Context, id, url, auditID string) error {
	status := model.StatusContractSigned
	step := model.StepContractSigned
	patch := model.ReservationPatch{
		Status:            &status,
		Step:              &step,
		SignedContractURL: &url,
		StampSignedAt:     true,
	}
	if auditID != "" {
		patch.AuditEntryID = &auditID
	}

	return s.gw.RunAtomic(ctx, func(tx ReservationTx) error {
		r, err := tx.GetReservation(id)
		if err != nil {
			return err
		}
		if r.Status.IsSigned() || !r.Status.CanAdvanceTo(status) {
			return &model.ConflictError{ReservationID: id, Status: r.Status}
		}
		_, err = tx.UpdateReservation(id, patch)
		return err
	})
}

func (s *ContractService) fail(ctx context.Context, id string, err error) SignResult {
	logger.Error(ctx, "signature processing failed", "error", err)
	s.audit.RecordFailure(context.WithoutCancel(ctx), id, "process_signature", err)

	res := SignResult{Success: false, Err: err, Details: err.Error()}
	var (
		verr     *model.ValidationError
		conflict *model.ConflictError
		rerr     *model.RenderError
	)
	switch {
	case errors.As(err, &verr):
		res.Error = "validation failed"
		res.Details = verr.Problems
	case errors.Is(err, model.ErrNotFound):
		res.Error = "not found"
	case errors.As(err, &conflict):
		res.Error = "contract already signed"
	case errors.As(err, &rerr):
		res.Error = "contract rendering failed"
	default:
		res.Error = "signature processing failed"
	}
	return res
}

// Reservation returns the stored reservation.
func (s *ContractService) Reservation(ctx context.Context, id string) (*model.Reservation, error) {
	return s.gw.GetReservation(ctx, id)
}

// AuditTrail returns the audit entries and failures recorded for a reservation.
func (s *ContractService) AuditTrail(ctx context.Context, id string) ([]model.AuditEntry, []model.ErrorLog, error) {
	if _, err := s.gw.GetReservation(ctx, id); err != nil {
		return nil, nil, err
	}
	entries, err := s.gw.ListAuditEntries(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	logs, err := s.gw.ListErrorLogs(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return entries, logs, nil
}
