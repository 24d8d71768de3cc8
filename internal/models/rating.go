package models

import (
	"gorm.io/gorm"
)

type RatingTarget string

const (
	RatingTargetItem RatingTarget = "ITEM"
	RatingTargetUser RatingTarget = "USER"
)

type Rating struct {
	gorm.Model
	RentalID   uint         `json:"rentalId" gorm:"not null;index"`
	RaterID    uint         `json:"raterId" gorm:"not null"`
	TargetType RatingTarget `json:"targetType" gorm:"not null"`
	TargetID   uint         `json:"targetId" gorm:"not null"`
	Stars      int          `json:"stars" gorm:"not null"`
	Comment    string       `json:"comment"`
}
