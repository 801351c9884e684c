package model

import "github.com/shopspring/decimal"

// Unit is a property of the promotion. Read-only for the contract pipeline.
type Unit struct {
	ID         string          `gorm:"primaryKey;size:64" json:"id" yaml:"id"`
	Name       string          `gorm:"size:200" json:"name" yaml:"name"`
	Block      string          `gorm:"size:20" json:"block" yaml:"block"`
	Floor      string          `gorm:"size:50" json:"floor" yaml:"floor"`
	Door       string          `gorm:"size:20" json:"door" yaml:"door"`
	UsableArea decimal.Decimal `gorm:"type:decimal(8,2)" json:"usable_area" yaml:"usable_area"`
	BuiltArea  decimal.Decimal `gorm:"type:decimal(8,2)" json:"built_area" yaml:"built_area"`
	BasePrice  decimal.Decimal `gorm:"type:decimal(12,2)" json:"base_price" yaml:"base_price"`
}
