package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

// Reservation lifecycle, in order
const (
	StatusConfiguring    ReservationStatus = "configuring"
	StatusDataCompleted  ReservationStatus = "data_completed"
	StatusConfirmed      ReservationStatus = "confirmed"
	StatusContractSigned ReservationStatus = "contract_signed"
	StatusPaymentPending ReservationStatus = "payment_pending"
	StatusPaid           ReservationStatus = "paid"
)

// StepContractSigned is the step counter value once the contract is signed.
const StepContractSigned = 4

var statusRank = map[ReservationStatus]int{
	StatusConfiguring:    0,
	StatusDataCompleted:  1,
	StatusConfirmed:      2,
	StatusContractSigned: 3,
	StatusPaymentPending: 4,
	StatusPaid:           5,
}

// Rank returns the position of the status in the lifecycle, -1 when unknown.
func (s ReservationStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// Valid reports whether s is a known lifecycle state.
func (s ReservationStatus) Valid() bool {
	return s.Rank() >= 0
}

// CanAdvanceTo reports whether moving from s to next keeps the lifecycle monotonic.
// An empty status is treated as the initial state.
func (s ReservationStatus) CanAdvanceTo(next ReservationStatus) bool {
	if !next.Valid() {
		return false
	}
	current := s
	if current == "" {
		current = StatusConfiguring
	}
	return current.Valid() && next.Rank() >= current.Rank()
}

// IsSigned is true once the contract has been signed.
func (s ReservationStatus) IsSigned() bool {
	return s.Rank() >= statusRank[StatusContractSigned]
}

// Reservation tracks a buyer's claim on a unit through its lifecycle.
type Reservation struct {
	ID       string `gorm:"primaryKey;size:64" json:"id" yaml:"id"`
	UnitID   string `gorm:"size:64;index" json:"unit_id" yaml:"unit_id"`
	UnitName string `gorm:"size:200" json:"unit_name" yaml:"unit_name"`
	ClientID string `gorm:"size:64;index" json:"client_id" yaml:"client_id"`

	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2)" json:"total_price" yaml:"total_price"`
	Discount   decimal.Decimal `gorm:"type:decimal(12,2)" json:"discount" yaml:"discount"`

	IncludesParking bool   `json:"includes_parking" yaml:"includes_parking"`
	ParkingID       string `gorm:"size:64" json:"parking_id,omitempty" yaml:"parking_id"`
	IncludesStorage bool   `json:"includes_storage" yaml:"includes_storage"`
	StorageID       string `gorm:"size:64" json:"storage_id,omitempty" yaml:"storage_id"`

	Status            ReservationStatus `gorm:"size:32;index" json:"status" yaml:"status"`
	Step              int               `json:"step" yaml:"step"`
	SignedContractURL string            `gorm:"size:500" json:"signed_contract_url,omitempty" yaml:"-"`
	AuditEntryID      string            `gorm:"size:64" json:"audit_entry_id,omitempty" yaml:"-"`
	SignedAt          *time.Time        `json:"signed_at,omitempty" yaml:"-"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// ReservationPatch is a merge-style partial update. Nil fields are left untouched.
// StampSignedAt asks the gateway to set SignedAt from its own clock.
type ReservationPatch struct {
	Status            *ReservationStatus
	Step              *int
	SignedContractURL *string
	AuditEntryID      *string
	StampSignedAt     bool
}

// Empty reports whether the patch changes nothing besides the update timestamp.
func (p ReservationPatch) Empty() bool {
	return p.Status == nil && p.Step == nil && p.SignedContractURL == nil &&
		p.AuditEntryID == nil && !p.StampSignedAt
}

// Apply merges the patch into r. now is the server-assigned timestamp.
func (p ReservationPatch) Apply(r *Reservation, now time.Time) {
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Step != nil {
		r.Step = *p.Step
	}
	if p.SignedContractURL != nil {
		r.SignedContractURL = *p.SignedContractURL
	}
	if p.AuditEntryID != nil {
		r.AuditEntryID = *p.AuditEntryID
	}
	if p.StampSignedAt {
		t := now
		r.SignedAt = &t
	}
	r.UpdatedAt = now
}

// Columns returns the patch as a column map for SQL merge updates.
func (p ReservationPatch) Columns(now time.Time) map[string]any {
	cols := map[string]any{"updated_at": now}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	if p.Step != nil {
		cols["step"] = *p.Step
	}
	if p.SignedContractURL != nil {
		cols["signed_contract_url"] = *p.SignedContractURL
	}
	if p.AuditEntryID != nil {
		cols["audit_entry_id"] = *p.AuditEntryID
	}
	if p.StampSignedAt {
		cols["signed_at"] = now
	}
	return cols
}
