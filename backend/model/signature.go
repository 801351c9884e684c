package model

import (
	"encoding/json"
	"time"
)

// SignatureKind is the kind of signature captured by the UI.
type SignatureKind string

const (
	SignatureDigital     SignatureKind = "digital"
	SignatureBiometric   SignatureKind = "biometric"
	SignatureCertificate SignatureKind = "certificate"
)

// Valid reports whether k is a supported signature kind.
func (k SignatureKind) Valid() bool {
	switch k {
	case SignatureDigital, SignatureBiometric, SignatureCertificate:
		return true
	}
	return false
}

// Label is the Spanish name used in rendered documents.
func (k SignatureKind) Label() string {
	switch k {
	case SignatureDigital:
		return "Firma digital manuscrita"
	case SignatureBiometric:
		return "Firma biométrica"
	case SignatureCertificate:
		return "Certificado digital"
	}
	return string(k)
}

// NotAvailable is stored when request metadata is missing.
const NotAvailable = "no disponible"

// RequestMeta carries the submitter information of a signature request.
type RequestMeta struct {
	IP        string `json:"ip"`
	UserAgent string `json:"userAgent"`
}

// WithDefaults fills blank fields with NotAvailable.
func (m RequestMeta) WithDefaults() RequestMeta {
	if m.IP == "" {
		m.IP = NotAvailable
	}
	if m.UserAgent == "" {
		m.UserAgent = NotAvailable
	}
	return m
}

// SignatureRecord is a validated and hashed signature event.
type SignatureRecord struct {
	Kind         SignatureKind
	Payload      json.RawMessage
	Decoded      []byte
	ImageSubtype string
	Format       string
	Size         int
	Hash         string
	IP           string
	UserAgent    string
	ProcessedAt  time.Time
}

// HasImage reports whether the record carries decoded image bytes.
func (s *SignatureRecord) HasImage() bool {
	return s != nil && s.Kind == SignatureDigital && len(s.Decoded) > 0
}
