package models

import (
	"gorm.io/gorm"
)

type ChatMessage struct {
	gorm.Model
	RentalID   uint   `json:"rentalId" gorm:"not null;index"`
	SenderID   uint   `json:"senderId" gorm:"not null"`
	ReceiverID uint   `json:"receiverId" gorm:"not null"`
	Content    string `json:"content" gorm:"not null"`
}
