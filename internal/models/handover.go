package models

import (
	"time"

	"gorm.io/gorm"
)

type HandoverType string

const (
	HandoverTypePickup HandoverType = "PICKUP"
	HandoverTypeReturn HandoverType = "RETURN"
)

type Handover struct {
	gorm.Model
	RentalID uint         `json:"rentalId" gorm:"not null;index"`
	Type     HandoverType `json:"handoverType" gorm:"column:handover_type;not null"`

	Pictures []string `json:"pictures" gorm:"serializer:json"`
	Comment  string   `json:"comment"`

	AgreedRenter *time.Time `json:"agreedRenter"`
	AgreedLender *time.Time `json:"agreedLender"`

	Version int64 `json:"-" gorm:"not null;default:0"`
}

// FullyAgreed reports whether both parties have confirmed the handover.
func (h *Handover) FullyAgreed() bool {
	return h.AgreedRenter != nil && h.AgreedLender != nil
}

// Reset clears the agreement timestamps and the submitted content so the
// handover can be re-submitted after a decline. The record itself survives.
func (h *Handover) Reset() {
	h.AgreedRenter = nil
	h.AgreedLender = nil
	h.Pictures = nil
	h.Comment = ""
}

// Submitted reports whether the handover currently carries a submission.
// A declined handover is reset in place and reads as not submitted.
func (h *Handover) Submitted() bool {
	return len(h.Pictures) > 0 || h.AgreedRenter != nil || h.AgreedLender != nil
}
