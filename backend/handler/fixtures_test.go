package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"math/rand"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/promociones-residenciales/reservas/backend/config"
	"github.com/promociones-residenciales/reservas/backend/document"
	"github.com/promociones-residenciales/reservas/backend/middleware"
	"github.com/promociones-residenciales/reservas/backend/model"
	"github.com/promociones-residenciales/reservas/backend/service"
)

const (
	testReservationID = "AbC123456789"
	testPassword      = "s3cret-pass"
)

var testNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &config.Config{
		Storage: config.StorageConfig{
			Driver:         "local",
			LocalDir:       t.TempDir(),
			SignedPrefix:   "contratos",
			TemplatePrefix: "plantillas",
		},
		Auth: config.AuthConfig{JWTSecret: "test-secret", TokenExpireHours: 1},
		Contract: config.ContractConfig{
			ReservationAmount:  6000,
			VATRate:            0.10,
			ArrasDays:          15,
			NotarizationMonths: 6,
		},
		Promoter: model.Promoter{
			Name:           "Promociones Levante S.L.",
			TaxID:          "B12345678",
			Address:        "Avenida del Puerto 10, 46021 Valencia",
			Representative: "Marta Ruiz Soler",
		},
		Promotion: model.Promotion{Name: "Residencial Las Palmeras", City: "Valencia"},
		RateLimit: config.RateLimitConfig{Requests: 1000, WindowSeconds: 60},
		Users: []config.User{
			{Username: "comercial", PasswordHash: string(hash), Role: "admin"},
		},
	}
}

type server struct {
	router *gin.Engine
	store  *service.MemoryStore
	cfg    *config.Config
}

func newServer(t *testing.T) *server {
	t.Helper()
	cfg := testConfig(t)
	ctx := context.Background()

	store := service.NewMemoryStore(&config.DatabaseConfig{MaxErrorLogs: 100})
	store.Clock = func() time.Time { return testNow }
	mustDo(t, store.SaveUnit(ctx, &model.Unit{
		ID:         "unit-1",
		Name:       "Bloque A - Cuarto A",
		UsableArea: decimal.RequireFromString("85.5"),
		BuiltArea:  decimal.NewFromInt(102),
	}))
	mustDo(t, store.UpsertClient(ctx, &model.Client{
		ID:         "client-1",
		Name:       "Ana",
		Surname:    "García López",
		NationalID: "87654321X",
		Email:      "ana@example.com",
		Street:     "Calle Mayor",
		Number:     "12",
		PostalCode: "46001",
		City:       "Valencia",
	}))
	mustDo(t, store.CreateReservation(ctx, &model.Reservation{
		ID:         testReservationID,
		UnitID:     "unit-1",
		UnitName:   "Bloque A - Cuarto A",
		ClientID:   "client-1",
		TotalPrice: decimal.NewFromInt(250000),
		Status:     model.StatusConfirmed,
		Step:       3,
	}))
	// no client yet: the contract cannot be generated
	mustDo(t, store.CreateReservation(ctx, &model.Reservation{
		ID:       "draft0000001",
		UnitID:   "unit-1",
		UnitName: "Bloque A - Cuarto A",
		Status:   model.StatusConfiguring,
		Step:     1,
	}))

	blobs, err := service.NewLocalBlobStore(cfg.Storage.LocalDir, service.LocalBaseURL(""))
	mustDo(t, err)
	contracts := service.NewContractService(store, blobs, document.NewRenderer(document.Options{}), cfg)
	contracts.SetClock(func() time.Time { return testNow })

	router := NewRouter(RouterOptions{Config: cfg, Contracts: contracts, FilesDir: blobs.Dir()})
	return &server{router: router, store: store, cfg: cfg}
}

func mustDo(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
}

func (s *server) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *server) token(t *testing.T) string {
	t.Helper()
	token, _, err := middleware.GenerateToken("comercial", "admin", &s.cfg.Auth)
	mustDo(t, err)
	return token
}

// signatureDataURL encodes a noisy PNG padded to size bytes. Sizes below
// the PNG itself yield plain zero bytes.
func signatureDataURL(t *testing.T, size int) string {
	t.Helper()
	if size < 8000 {
		return "data:image/png;base64," + base64.StdEncoding.EncodeToString(make([]byte, size))
	}
	rng := rand.New(rand.NewSource(7))
	img := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.NRGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	var buf bytes.Buffer
	mustDo(t, png.Encode(&buf, img))
	if buf.Len() > size {
		t.Fatalf("png is %d bytes, larger than %d", buf.Len(), size)
	}
	buf.Write(make([]byte, size-buf.Len()))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to parse response %q: %v", w.Body.String(), err)
	}
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("Expected status %d, got %d: %s", want, w.Code, w.Body.String())
	}
}
