package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tcw0/lendit-sub000/internal/models"
	"github.com/tcw0/lendit-sub000/internal/rental"
	"github.com/tcw0/lendit-sub000/internal/services"
	"gorm.io/gorm"
)

// respondError maps a core error onto the REST surface
func respondError(c *gin.Context, err error) {
	c.JSON(rental.HTTPStatus(err), gin.H{"error": err.Error()})
}

func rentalIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}

// notifyRentalUpdate fans a lifecycle change out to the counterparty and the
// Redis channel. Best effort; the transition itself already committed.
func notifyRentalUpdate(hub *services.Hub, r *models.Rental, actorID uint, message string) {
	event := services.RentalEvent{
		RentalID: r.ID,
		State:    string(r.State),
		ActorID:  actorID,
		Message:  message,
	}
	if actorID != r.RenterID {
		hub.SendRentalEvent(r.RenterID, event)
	}
	if actorID != r.LenderID {
		hub.SendRentalEvent(r.LenderID, event)
	}

	ctx := context.Background()
	services.SetRentalState(ctx, r.ID, string(r.State))
	services.PublishRentalUpdate(ctx, r.ID, string(r.State), map[string]interface{}{
		"actorId": actorID,
	})
}

// CreateRental opens a rental offer for an item
func CreateRental(db *gorm.DB, svc *rental.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input struct {
			ItemID         uint      `json:"itemId" binding:"required"`
			StartDate      time.Time `json:"startDate" binding:"required"`
			EndDate        time.Time `json:"endDate" binding:"required"`
			Price          float64   `json:"price" binding:"required"`
			InsurancePrice float64   `json:"insurancePrice"`
			InsuranceType  string    `json:"insuranceType"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var item models.Item
		if err := db.First(&item, input.ItemID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Item not found"})
			return
		}

		created, err := svc.CreateOffer(c.Request.Context(), userId, item.OwnerID, rental.OfferInput{
			ItemID:         item.ID,
			StartDate:      input.StartDate,
			EndDate:        input.EndDate,
			Price:          input.Price,
			InsurancePrice: input.InsurancePrice,
			InsuranceType:  models.InsuranceType(input.InsuranceType),
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(201, created)
	}
}

// GetRentals lists rentals the user participates in, as renter or lender
func GetRentals(svc *rental.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		rentals, err := svc.ListRentals(c.Request.Context(), userId)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, rentals)
	}
}

// GetRental retrieves a single rental with its handovers
func GetRental(svc *rental.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		rentalId, ok := rentalIDParam(c, "id")
		if !ok {
			return
		}

		r, err := svc.GetRental(c.Request.Context(), userId, rentalId)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, r)
	}
}

// AcceptRental lets the lender accept an open offer
func AcceptRental(svc *rental.Service, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		rentalId, ok := rentalIDParam(c, "id")
		if !ok {
			return
		}

		r, err := svc.AcceptOffer(c.Request.Context(), userId, rentalId)
		if err != nil {
			respondError(c, err)
			return
		}

		notifyRentalUpdate(hub, r, userId, "Your rental offer was accepted")
		c.JSON(200, r)
	}
}

// DeclineRental lets the lender decline an open offer
func DeclineRental(svc *rental.Service, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		rentalId, ok := rentalIDParam(c, "id")
		if !ok {
			return
		}

		r, err := svc.DeclineOffer(c.Request.Context(), userId, rentalId)
		if err != nil {
			respondError(c, err)
			return
		}

		notifyRentalUpdate(hub, r, userId, "Your rental offer was declined")
		c.JSON(200, r)
	}
}

// PayRental is the renter-triggered payment confirmation. The transition to
// PAID only happens once the gateway reports a successful payment.
func PayRental(svc *rental.Service, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		rentalId, ok := rentalIDParam(c, "id")
		if !ok {
			return
		}

		r, err := svc.ConfirmPayment(c.Request.Context(), userId, rentalId)
		if err != nil {
			respondError(c, err)
			return
		}

		notifyRentalUpdate(hub, r, userId, "The rental was paid")
		c.JSON(200, r)
	}
}
