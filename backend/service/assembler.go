package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/promociones-residenciales/reservas/backend/config"
	"github.com/promociones-residenciales/reservas/backend/model"
	"github.com/promociones-residenciales/reservas/backend/pkg/format"
	"github.com/promociones-residenciales/reservas/backend/pkg/logger"
)

var hundred = decimal.NewFromInt(100)

// AssembleOptions tune Assemble.
type AssembleOptions struct {
	// Validate rejects records missing the fields a fresh contract needs.
	// Signed contracts trust the stored records and skip it.
	Validate bool
}

// Assembler merges reservation, client and unit records into ContractData.
type Assembler struct {
	gw        Gateway
	contract  config.ContractConfig
	promoter  model.Promoter
	promotion model.Promotion

	// Now is the generation timestamp source.
	Now func() time.Time
}

func NewAssembler(gw Gateway, cfg *config.Config) *Assembler {
	return &Assembler{
		gw:        gw,
		contract:  cfg.Contract,
		promoter:  cfg.Promoter,
		promotion: cfg.Promotion,
		Now:       time.Now,
	}
}

// Assemble loads the reservation, then its client and unit concurrently, and builds the contract view.
// A missing reservation or client is a *model.NotFoundError; a missing unit falls back to placeholders.
func (a *Assembler) Assemble(ctx context.Context, reservationID string, opts AssembleOptions) (*model.ContractData, error) {
	res, err := a.gw.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(res.ClientID) == "" {
		return nil, &model.NotFoundError{Entity: "client", ID: ""}
	}

	var (
		client *model.Client
		unit   *model.Unit
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := a.gw.GetClient(gctx, res.ClientID)
		if err != nil {
			return err
		}
		client = c
		return nil
	})
	if res.UnitID != "" {
		g.Go(func() error {
			u, err := a.gw.GetUnit(gctx, res.UnitID)
			if errors.Is(err, model.ErrNotFound) {
				logger.Warn(ctx, "unit not found, using placeholders", "unit_id", res.UnitID)
				return nil
			}
			if err != nil {
				return err
			}
			unit = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if opts.Validate {
		if err := ValidateForContract(res, client, unit); err != nil {
			return nil, err
		}
	}

	now := a.now()
	return &model.ContractData{
		Number:      format.ContractNumber(res.ID, now),
		GeneratedAt: now,
		Promoter:    a.promoter,
		Promotion:   a.promotion,
		Buyer:       normalizeClient(client),
		Unit:        normalizeUnit(unit, res),
		Economics:   a.economics(res),
		Dates: model.ContractDates{
			Today:                now,
			ArrasDeadline:        now.AddDate(0, 0, a.contract.ArrasDays),
			NotarizationDeadline: now.AddDate(0, a.contract.NotarizationMonths, 0),
		},
		Meta: model.ContractMeta{
			ReservationID: res.ID,
			ClientID:      res.ClientID,
			UnitID:        res.UnitID,
			Status:        res.Status,
		},
	}, nil
}

func (a *Assembler) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

// ValidateForContract lists every field a fresh contract cannot be generated without.
func ValidateForContract(res *model.Reservation, client *model.Client, unit *model.Unit) error {
	var problems []string
	if !res.TotalPrice.IsPositive() {
		problems = append(problems, "total_price")
	}
	if unitName(unit, res) == "" {
		problems = append(problems, "unit_name")
	}
	if client == nil {
		client = &model.Client{}
	}
	if strings.TrimSpace(client.Name) == "" {
		problems = append(problems, "name")
	}
	if strings.TrimSpace(client.Surname) == "" {
		problems = append(problems, "surname")
	}
	if strings.TrimSpace(client.NationalID) == "" {
		problems = append(problems, "national_id")
	}
	if strings.TrimSpace(client.Street) == "" {
		problems = append(problems, "address")
	}
	return model.NewValidationError(problems...)
}

func unitName(unit *model.Unit, res *model.Reservation) string {
	if unit != nil && strings.TrimSpace(unit.Name) != "" {
		return strings.TrimSpace(unit.Name)
	}
	return strings.TrimSpace(res.UnitName)
}

func orUndetermined(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return model.Undetermined
	}
	return s
}

func normalizeClient(c *model.Client) model.Buyer {
	if c == nil {
		c = &model.Client{}
	}
	name := strings.TrimSpace(c.Name)
	surname := strings.TrimSpace(c.Surname)
	street := strings.TrimSpace(strings.TrimSpace(c.Street) + " " + strings.TrimSpace(c.Number))
	return model.Buyer{
		Name:       name,
		Surname:    surname,
		FullName:   orUndetermined(format.FullName(name, surname)),
		NationalID: orUndetermined(strings.ToUpper(strings.TrimSpace(c.NationalID))),
		Email:      orUndetermined(c.Email),
		Phone:      orUndetermined(c.Phone),
		Address:    orUndetermined(format.Address(street, c.FloorDoor, c.PostalCode, c.City, c.Province)),
	}
}

// normalizeUnit prefers the unit record and falls back to the name stored on the reservation.
func normalizeUnit(u *model.Unit, res *model.Reservation) model.UnitInfo {
	name := unitName(u, res)
	parts := format.ParseUnitName(name)
	info := model.UnitInfo{
		ID:         orUndetermined(res.UnitID),
		Name:       orUndetermined(name),
		Block:      parts.Block,
		Floor:      parts.Floor,
		Door:       parts.Door,
		UsableArea: model.Undetermined,
		BuiltArea:  model.Undetermined,
	}
	if u == nil {
		return info
	}
	if info.Block == format.Missing && u.Block != "" {
		info.Block = u.Block
	}
	if info.Floor == format.Missing && u.Floor != "" {
		info.Floor = u.Floor
	}
	if info.Door == format.Missing && u.Door != "" {
		info.Door = u.Door
	}
	info.UsableArea = format.Area(u.UsableArea, model.Undetermined)
	info.BuiltArea = format.Area(u.BuiltArea, model.Undetermined)
	return info
}

func (a *Assembler) economics(res *model.Reservation) model.Economics {
	total := res.TotalPrice
	vat := decimal.NewFromFloat(a.contract.VATRate)
	amount := decimal.NewFromFloat(a.contract.ReservationAmount)
	return model.Economics{
		Total:             total,
		TaxInclusive:      total.Mul(decimal.NewFromInt(1).Add(vat)).Round(0),
		ReservationAmount: amount,
		Percentage:        ReservationPercentage(amount, total),
		Discount:          res.Discount,
		AddOns:            format.AddOns(res.IncludesParking, res.ParkingID, res.IncludesStorage, res.StorageID),
		IncludesParking:   res.IncludesParking,
		IncludesStorage:   res.IncludesStorage,
	}
}

// ReservationPercentage is amount / total × 100 rounded to two decimals, 0 when total is not positive.
func ReservationPercentage(amount, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return amount.Div(total).Mul(hundred).Round(2)
}
