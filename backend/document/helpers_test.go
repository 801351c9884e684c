package document

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/goleak"

	"github.com/promociones-residenciales/reservas/backend/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var generatedAt = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

func sampleData() *model.ContractData {
	return &model.ContractData{
		Number:      "CONT-202503-456789",
		GeneratedAt: generatedAt,
		Promoter: model.Promoter{
			Name:             "Promociones Levante S.L.",
			TaxID:            "B12345678",
			Address:          "Avenida del Puerto 10, 46021 Valencia",
			Representative:   "Marta Ruiz Soler",
			RepresentativeID: "12345678Z",
			Registry:         "Registro Mercantil de Valencia, tomo 1234, folio 56",
			Email:            "privacidad@levante.example",
		},
		Promotion: model.Promotion{
			Name:            "Residencial Las Palmeras",
			Address:         "Calle Palmera 3",
			City:            "Valencia",
			BuildingLicense: "LO-2024-118",
		},
		Buyer: model.Buyer{
			Name:       "Ana",
			Surname:    "García López",
			FullName:   "Ana García López",
			NationalID: "87654321X",
			Email:      "ana@example.com",
			Phone:      "600111222",
			Address:    "Calle Mayor, 12, 46001, Valencia",
		},
		Unit: model.UnitInfo{
			ID:         "unit-1",
			Name:       "Bloque A - Cuarto A",
			Block:      "A",
			Floor:      "Cuarto",
			Door:       "A",
			UsableArea: "85,50 m²",
			BuiltArea:  "102,00 m²",
		},
		Economics: model.Economics{
			Total:             decimal.NewFromInt(250000),
			TaxInclusive:      decimal.NewFromInt(275000),
			ReservationAmount: decimal.NewFromInt(6000),
			Percentage:        decimal.RequireFromString("2.40"),
			AddOns:            "Plaza de garaje P-12",
			IncludesParking:   true,
		},
		Dates: model.ContractDates{
			Today:                generatedAt,
			ArrasDeadline:        generatedAt.AddDate(0, 0, 15),
			NotarizationDeadline: generatedAt.AddDate(0, 6, 0),
		},
		Meta: model.ContractMeta{ReservationID: "AbC123456789", ClientID: "client-1", UnitID: "unit-1", Status: model.StatusConfirmed},
	}
}

// samplePNG encodes a noisy image so the PNG does not compress below a few kilobytes.
func samplePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
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
	return buf.Bytes()
}

func sampleSignature(t *testing.T, decoded []byte) *model.SignatureRecord {
	t.Helper()
	sum := sha256.Sum256(decoded)
	return &model.SignatureRecord{
		Kind:         model.SignatureDigital,
		Decoded:      decoded,
		ImageSubtype: "png",
		Format:       "image/png",
		Size:         len(decoded),
		Hash:         hex.EncodeToString(sum[:]),
		IP:           "203.0.113.7",
		UserAgent:    "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
		ProcessedAt:  generatedAt.Add(5 * time.Minute),
	}
}

func pageCount(pdf []byte) int {
	return bytes.Count(pdf, []byte("<</Type /Page\n"))
}

// headerOnlyPNG is a valid PNG whose IHDR announces w x h pixels while the
// data stream holds a single pixel. Reading its config is cheap; decoding it fails.
func headerOnlyPNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	data := buf.Bytes()
	// signature(8) length(4) "IHDR"(4) width(4) height(4) ... crc at 29
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}
