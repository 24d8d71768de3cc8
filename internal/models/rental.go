package models

import (
	"time"

	"gorm.io/gorm"
)

type RentalState string

const (
	RentalStateOffer           RentalState = "OFFER"
	RentalStateAccepted        RentalState = "ACCEPTED"
	RentalStateDeclined        RentalState = "DECLINED"
	RentalStatePaid            RentalState = "PAID"
	RentalStatePickedUp        RentalState = "PICKED_UP"
	RentalStatePickUpConfirmed RentalState = "PICK_UP_CONFIRMED"
	RentalStateReturned        RentalState = "RETURNED"
	RentalStateReturnConfirmed RentalState = "RETURN_CONFIRMED"
	RentalStateRated           RentalState = "RATED"
	RentalStateClosed          RentalState = "CLOSED"
)

// Terminal reports whether no further transition may leave this state.
func (s RentalState) Terminal() bool {
	return s == RentalStateDeclined || s == RentalStateClosed
}

type InsuranceType string

const (
	InsuranceNone    InsuranceType = "NONE"
	InsuranceBasic   InsuranceType = "BASIC"
	InsurancePremium InsuranceType = "PREMIUM"
)

type Rental struct {
	gorm.Model
	RenterID uint `json:"renterId" gorm:"not null;index"`
	Renter   User `json:"renter"`
	LenderID uint `json:"lenderId" gorm:"not null;index"`
	Lender   User `json:"lender"`
	ItemID   uint `json:"itemId" gorm:"not null;index"`
	Item     Item `json:"item"`

	StartDate time.Time `json:"startDate" gorm:"not null"`
	EndDate   time.Time `json:"endDate" gorm:"not null"`

	Price          float64       `json:"price" gorm:"not null"`
	InsurancePrice float64       `json:"insurancePrice"`
	InsuranceType  InsuranceType `json:"insuranceType" gorm:"not null;default:'NONE'"`

	State RentalState `json:"rentalState" gorm:"column:rental_state;not null;default:'OFFER'"`

	PickUpHandoverID *uint     `json:"pickUpHandoverId"`
	PickUpHandover   *Handover `json:"pickUpHandover,omitempty"`
	ReturnHandoverID *uint     `json:"returnHandoverId"`
	ReturnHandover   *Handover `json:"returnHandover,omitempty"`

	// Version guards every state-changing write (optimistic locking).
	Version int64 `json:"-" gorm:"not null;default:0"`
}
