package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditEntry is an append-only proof that a signature event happened.
type AuditEntry struct {
	ID            string         `gorm:"primaryKey;size:64" json:"id"`
	ReservationID string         `gorm:"size:64;index" json:"reservation_id"`
	Kind          SignatureKind  `gorm:"size:20" json:"signature_type"`
	Hash          string         `gorm:"size:64" json:"hash"`
	Size          int            `json:"size"`
	Format        string         `gorm:"size:50" json:"format"`
	IP            string         `gorm:"size:64" json:"ip"`
	UserAgent     string         `gorm:"size:500" json:"user_agent"`
	Metadata      datatypes.JSON `json:"metadata,omitempty"`
	Valid         bool           `json:"valid"`
	SignedAt      time.Time      `json:"signed_at"`
	CreatedAt     time.Time      `json:"created_at"`
}

// ErrorLog records a failed operation on a reservation.
type ErrorLog struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	ReservationID string    `gorm:"size:64;index" json:"reservation_id"`
	Operation     string    `gorm:"size:50" json:"operation"`
	Message       string    `gorm:"size:500" json:"message"`
	Details       string    `gorm:"type:text" json:"details,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
