package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promociones-residenciales/reservas/backend/model"
)

func TestSignatureProcessorSizeBounds(t *testing.T) {
	p := NewSignatureProcessor()

	tests := []struct {
		name    string
		size    int
		wantErr string
	}{
		{"below minimum", MinSignatureBytes - 1, "signature is empty or too small"},
		{"at minimum", MinSignatureBytes, ""},
		{"at maximum", MaxSignatureBytes, ""},
		{"above maximum", MaxSignatureBytes + 1, "signature is too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]byte, tt.size)
			for i := range data {
				data[i] = byte(i)
			}
			rec, err := p.Process(model.SignatureDigital, dataURLPayload(t, "png", data), model.RequestMeta{})
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.size, rec.Size)
				return
			}
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, []string{tt.wantErr}, verr.Problems)
		})
	}
}

func TestSignatureProcessorAcceptsPNG(t *testing.T) {
	p := NewSignatureProcessor()
	p.Now = func() time.Time { return testNow }
	img := noisePNG(t, 80, 80, 50000)

	rec, err := p.Process(model.SignatureDigital, dataURLPayload(t, "png", img), model.RequestMeta{IP: "203.0.113.7", UserAgent: "curl/8"})
	require.NoError(t, err)

	sum := sha256.Sum256(img)
	assert.Equal(t, hex.EncodeToString(sum[:]), rec.Hash)
	assert.Equal(t, 50000, rec.Size)
	assert.Equal(t, "png", rec.ImageSubtype)
	assert.Equal(t, "image/png", rec.Format)
	assert.Equal(t, img, rec.Decoded)
	assert.Equal(t, "203.0.113.7", rec.IP)
	assert.Equal(t, "curl/8", rec.UserAgent)
	assert.Equal(t, testNow, rec.ProcessedAt)
	assert.True(t, rec.HasImage())
}

func TestSignatureProcessorRejectsMalformed(t *testing.T) {
	p := NewSignatureProcessor()

	tests := []struct {
		name    string
		kind    model.SignatureKind
		payload string
		want    []string
	}{
		{"not a string", model.SignatureDigital, `{"x":1}`, []string{"signature data must be an image data URL string"}},
		{"not a data url", model.SignatureDigital, `"hello"`, []string{"signature data is not a base64 image data URL"}},
		{"not an image", model.SignatureDigital, `"data:text/plain;base64,aGVsbG8="`, []string{"signature data is not a base64 image data URL"}},
		{"bad base64", model.SignatureDigital, `"data:image/png;base64,***"`, []string{"signature data is not valid base64"}},
		{"unknown kind and no data", "stamp", ``, []string{`unsupported signature type "stamp"`, "signature data is required"}},
		{"null payload", model.SignatureBiometric, `null`, []string{"signature data is required"}},
		{"invalid json", model.SignatureBiometric, `{"points":`, []string{"signature data must be valid JSON"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Process(tt.kind, json.RawMessage(tt.payload), model.RequestMeta{})
			var verr *model.ValidationError
			require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
			assert.Equal(t, tt.want, verr.Problems)
		})
	}
}

func TestSignatureProcessorPixelBudget(t *testing.T) {
	p := NewSignatureProcessor()

	tests := []struct {
		name  string
		image []byte
		ok    bool
	}{
		{"8000x8000", largeHeaderPNG(t, 8000, 8000, 2000), false},
		{"wide strip", largeHeaderPNG(t, 100000, 200, 2000), false},
		{"4000x4000", largeHeaderPNG(t, 4000, 4000, 2000), true},
		{"not decodable", make([]byte, 2000), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Process(model.SignatureDigital, dataURLPayload(t, "png", tt.image), model.RequestMeta{})
			if tt.ok {
				require.NoError(t, err)
				return
			}
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, []string{"signature image dimensions are too large"}, verr.Problems)
		})
	}
}

func TestSignatureProcessorCanonicalJSON(t *testing.T) {
	p := NewSignatureProcessor()

	a, err := p.Process(model.SignatureBiometric, json.RawMessage(`{"b": 1.50, "a": [1, 2], "device": "pad"}`), model.RequestMeta{})
	require.NoError(t, err)
	b, err := p.Process(model.SignatureBiometric, json.RawMessage(`{"device":"pad","a":[1,2],"b":1.50}`), model.RequestMeta{})
	require.NoError(t, err)

	assert.Equal(t, a.Hash, b.Hash, "key order and whitespace must not change the hash")
	assert.Equal(t, `{"a":[1,2],"b":1.50,"device":"pad"}`, string(a.Decoded))
	assert.Equal(t, "application/json", a.Format)
	assert.False(t, a.HasImage())
	assert.Equal(t, model.NotAvailable, a.IP)
	assert.Equal(t, model.NotAvailable, a.UserAgent)

	cert, err := p.Process(model.SignatureCertificate, json.RawMessage(`{"serial":"01AF"}`), model.RequestMeta{})
	require.NoError(t, err)
	assert.NotEqual(t, a.Hash, cert.Hash)
}
