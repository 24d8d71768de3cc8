package models

import (
	"gorm.io/gorm"
)

type Item struct {
	gorm.Model
	OwnerID     uint     `json:"ownerId" gorm:"not null;index"`
	Owner       User     `json:"owner"`
	Name        string   `json:"name" gorm:"not null"`
	Description string   `json:"description"`
	PricePerDay float64  `json:"pricePerDay" gorm:"not null"`
	Pictures    []string `json:"pictures" gorm:"serializer:json"`
	Address     string   `json:"address"`
}
