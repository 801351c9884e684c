package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Undetermined replaces unit facts when the reservation has no unit.
const Undetermined = "Por determinar"

// ContractData is the fully resolved view used to render one contract.
// It is built per render call and never persisted.
type ContractData struct {
	Number      string
	GeneratedAt time.Time

	Promoter  Promoter
	Promotion Promotion
	Buyer     Buyer
	Unit      UnitInfo
	Economics Economics
	Dates     ContractDates
	Meta      ContractMeta
}

// Promoter holds the static facts of the selling company.
type Promoter struct {
	Name             string `yaml:"name"`
	TaxID            string `yaml:"tax_id"`
	Address          string `yaml:"address"`
	Representative   string `yaml:"representative"`
	RepresentativeID string `yaml:"representative_id"`
	Registry         string `yaml:"registry"`
	Email            string `yaml:"email"`
}

// Promotion holds the static facts of the building project.
type Promotion struct {
	Name            string `yaml:"name"`
	Address         string `yaml:"address"`
	City            string `yaml:"city"`
	BuildingLicense string `yaml:"building_license"`
}

// Buyer is the client as printed in the contract.
type Buyer struct {
	Name       string
	Surname    string
	FullName   string
	NationalID string
	Email      string
	Phone      string
	Address    string
}

// UnitInfo describes the reserved unit.
type UnitInfo struct {
	ID         string
	Name       string
	Block      string
	Floor      string
	Door       string
	UsableArea string
	BuiltArea  string
}

// Economics holds the computed money figures of the contract.
type Economics struct {
	Total             decimal.Decimal
	TaxInclusive      decimal.Decimal
	ReservationAmount decimal.Decimal
	Percentage        decimal.Decimal
	Discount          decimal.Decimal
	AddOns            string
	IncludesParking   bool
	IncludesStorage   bool
}

// ContractDates holds the dates printed in the contract.
type ContractDates struct {
	Today                time.Time
	ArrasDeadline        time.Time
	NotarizationDeadline time.Time
}

// ContractMeta links the contract back to its records.
type ContractMeta struct {
	ReservationID string
	ClientID      string
	UnitID        string
	Status        ReservationStatus
}
