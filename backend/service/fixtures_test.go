package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/promociones-residenciales/reservas/backend/config"
	"github.com/promociones-residenciales/reservas/backend/document"
	"github.com/promociones-residenciales/reservas/backend/model"
)

const testReservationID = "AbC123456789"

var testNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Storage: config.StorageConfig{
			Driver:         "local",
			LocalDir:       t.TempDir(),
			SignedPrefix:   "contratos",
			TemplatePrefix: "plantillas",
		},
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
	}
}

// seedStore stores a fully populated, confirmed reservation.
func seedStore(t *testing.T, store RecordWriter) {
	t.Helper()
	ctx := context.Background()
	if err := store.SaveUnit(ctx, &model.Unit{
		ID:         "unit-1",
		Name:       "Bloque A - Cuarto A",
		UsableArea: decimal.RequireFromString("85.5"),
		BuiltArea:  decimal.NewFromInt(102),
		BasePrice:  decimal.NewFromInt(250000),
	}); err != nil {
		t.Fatalf("seed unit: %v", err)
	}
	if err := store.UpsertClient(ctx, &model.Client{
		ID:         "client-1",
		Name:       "Ana",
		Surname:    "García López",
		NationalID: "87654321x",
		Email:      "ana@example.com",
		Phone:      "600111222",
		Street:     "Calle Mayor",
		Number:     "12",
		PostalCode: "46001",
		City:       "Valencia",
	}); err != nil {
		t.Fatalf("seed client: %v", err)
	}
	if err := store.CreateReservation(ctx, &model.Reservation{
		ID:              testReservationID,
		UnitID:          "unit-1",
		UnitName:        "Bloque A - Cuarto A",
		ClientID:        "client-1",
		TotalPrice:      decimal.NewFromInt(250000),
		IncludesParking: true,
		ParkingID:       "P-12",
		Status:          model.StatusConfirmed,
		Step:            3,
	}); err != nil {
		t.Fatalf("seed reservation: %v", err)
	}
}

type pipeline struct {
	store   *MemoryStore
	blobs   *LocalBlobStore
	service *ContractService
	cfg     *config.Config
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	cfg := testConfig(t)
	store := NewMemoryStore(&config.DatabaseConfig{MaxErrorLogs: 100})
	store.Clock = func() time.Time { return testNow }
	seedStore(t, store)

	blobs, err := NewLocalBlobStore(cfg.Storage.LocalDir, "/files")
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}
	svc := NewContractService(store, blobs, document.NewRenderer(document.Options{}), cfg)
	svc.SetClock(func() time.Time { return testNow })
	return &pipeline{store: store, blobs: blobs, service: svc, cfg: cfg}
}

// noisePNG encodes random pixels so the image does not compress, then pads it
// after the IEND chunk to exactly size bytes. Decoders ignore the padding.
func noisePNG(t *testing.T, w, h, size int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if buf.Len() > size {
		t.Fatalf("png is %d bytes, larger than %d", buf.Len(), size)
	}
	buf.Write(make([]byte, size-buf.Len()))
	return buf.Bytes()
}

func dataURLPayload(t *testing.T, subtype string, data []byte) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal("data:image/" + subtype + ";base64," + base64.StdEncoding.EncodeToString(data))
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return raw
}

// largeHeaderPNG rewrites the IHDR of a one-pixel PNG to announce w x h
// and pads it to size bytes. Only its header is meant to be read.
func largeHeaderPNG(t *testing.T, w, h uint32, size int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	data := buf.Bytes()
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return append(data, make([]byte, size-len(data))...)
}
