package service

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"regexp"
	"time"

	"github.com/promociones-residenciales/reservas/backend/document"
	"github.com/promociones-residenciales/reservas/backend/model"
)

// Decoded size bounds for digital signature images.
const (
	MinSignatureBytes = 1000
	MaxSignatureBytes = 500000
)

var dataURLPattern = regexp.MustCompile(`^data:image/([A-Za-z0-9.+-]+);base64,(.+)$`)

// SignatureProcessor validates, decodes and hashes submitted signatures.
type SignatureProcessor struct {
	// Now stamps ProcessedAt.
	Now func() time.Time
}

func NewSignatureProcessor() *SignatureProcessor {
	return &SignatureProcessor{Now: time.Now}
}

// Process turns a raw payload into a SignatureRecord. Every problem found is
// reported in one *model.ValidationError.
func (p *SignatureProcessor) Process(kind model.SignatureKind, payload json.RawMessage, meta model.RequestMeta) (*model.SignatureRecord, error) {
	var problems []string
	if !kind.Valid() {
		problems = append(problems, fmt.Sprintf("unsupported signature type %q", kind))
	}
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		problems = append(problems, "signature data is required")
	}
	if len(problems) > 0 {
		return nil, model.NewValidationError(problems...)
	}

	var (
		rec *model.SignatureRecord
		err error
	)
	if kind == model.SignatureDigital {
		rec, err = decodeImage(payload)
	} else {
		rec, err = canonicalize(payload)
	}
	if err != nil {
		return nil, err
	}

	meta = meta.WithDefaults()
	sum := sha256.Sum256(rec.Decoded)
	rec.Kind = kind
	rec.Payload = payload
	rec.Size = len(rec.Decoded)
	rec.Hash = hex.EncodeToString(sum[:])
	rec.IP = meta.IP
	rec.UserAgent = meta.UserAgent
	rec.ProcessedAt = p.now()
	return rec, nil
}

func (p *SignatureProcessor) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// decodeImage accepts a JSON string holding a base64 image data URL.
func decodeImage(payload json.RawMessage) (*model.SignatureRecord, error) {
	var dataURL string
	if err := json.Unmarshal(payload, &dataURL); err != nil {
		return nil, model.NewValidationError("signature data must be an image data URL string")
	}
	m := dataURLPattern.FindStringSubmatch(dataURL)
	if m == nil {
		return nil, model.NewValidationError("signature data is not a base64 image data URL")
	}
	decoded, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return nil, model.NewValidationError("signature data is not valid base64")
	}

	switch {
	case len(decoded) < MinSignatureBytes:
		return nil, model.NewValidationError("signature is empty or too small")
	case len(decoded) > MaxSignatureBytes:
		return nil, model.NewValidationError("signature is too large")
	}
	// undecodable images are left to the renderer, which prints the placeholder
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(decoded)); err == nil {
		if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > document.MaxImagePixels/cfg.Height {
			return nil, model.NewValidationError("signature image dimensions are too large")
		}
	}
	return &model.SignatureRecord{
		Decoded:      decoded,
		ImageSubtype: m[1],
		Format:       "image/" + m[1],
	}, nil
}

// canonicalize re-encodes structured payloads with sorted keys so equal content hashes equally.
func canonicalize(payload json.RawMessage) (*model.SignatureRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return nil, model.NewValidationError("signature data must be valid JSON")
	}
	canonical, err := json.Marshal(v)
	if err != nil {
		return nil, model.NewValidationError("signature data must be valid JSON")
	}
	return &model.SignatureRecord{
		Decoded: canonical,
		Format:  "application/json",
	}, nil
}
