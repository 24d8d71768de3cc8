package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/tcw0/lendit-sub000/internal/rental"
	"github.com/tcw0/lendit-sub000/internal/services"
)

// CreatePaymentIntent starts a gateway checkout for an accepted rental. The
// renter pays price plus insurance as fixed at offer time.
func CreatePaymentIntent(svc *rental.Service, payments *services.PaymentClient) gin.HandlerFunc {
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
		if role, _ := rental.ResolveRole(userId, r); role != rental.RoleRenter {
			respondError(c, rental.Forbiddenf("only the renter may pay for rental %d", r.ID))
			return
		}

		intent, err := payments.CreatePaymentIntent(c.Request.Context(), r.ID, r.Price+r.InsurancePrice, "eur")
		if err != nil {
			c.JSON(502, gin.H{"error": "Failed to create payment intent"})
			return
		}

		c.JSON(201, intent)
	}
}

// PaymentWebhook consumes payment events from the gateway. Delivery is
// at-least-once; a duplicate success event for an already-paid rental is
// acknowledged without a second transition.
func PaymentWebhook(svc *rental.Service, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !services.VerifyWebhookSecret(c.GetHeader("X-Webhook-Secret")) {
			c.JSON(401, gin.H{"error": "Invalid webhook secret"})
			return
		}

		var event struct {
			RentalID uint   `json:"rentalId" binding:"required"`
			Status   string `json:"status" binding:"required"`
		}

		if err := c.ShouldBindJSON(&event); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if event.Status != "succeeded" {
			// Failed or pending payments leave the rental in ACCEPTED
			c.JSON(200, gin.H{"received": true})
			return
		}

		r, err := svc.MarkPaid(c.Request.Context(), event.RentalID)
		if err != nil {
			var coded *rental.Error
			if errors.As(err, &coded) && coded.Code() == rental.CodeNotFound {
				// Acknowledge unknown rentals so the gateway stops redelivering
				c.JSON(200, gin.H{"received": true})
				return
			}
			respondError(c, err)
			return
		}

		notifyRentalUpdate(hub, r, 0, "Payment received")
		c.JSON(200, gin.H{"received": true, "rentalState": r.State})
	}
}
