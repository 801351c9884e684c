package model

import "time"

// Client is the buyer of a unit.
type Client struct {
	ID         string `gorm:"primaryKey;size:64" json:"id" yaml:"id"`
	Name       string `gorm:"size:100" json:"name" yaml:"name"`
	Surname    string `gorm:"size:150" json:"surname" yaml:"surname"`
	NationalID string `gorm:"size:20;index" json:"national_id" yaml:"national_id"`
	Email      string `gorm:"size:200;index" json:"email" yaml:"email"`
	Phone      string `gorm:"size:30" json:"phone" yaml:"phone"`

	Street     string `gorm:"size:200" json:"street" yaml:"street"`
	Number     string `gorm:"size:20" json:"number" yaml:"number"`
	FloorDoor  string `gorm:"size:50" json:"floor_door" yaml:"floor_door"`
	PostalCode string `gorm:"size:10" json:"postal_code" yaml:"postal_code"`
	City       string `gorm:"size:100" json:"city" yaml:"city"`
	Province   string `gorm:"size:100" json:"province" yaml:"province"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}
