package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tcw0/lendit-sub000/internal/models"
	"github.com/tcw0/lendit-sub000/internal/rental"
	"github.com/tcw0/lendit-sub000/internal/services"
)

// CreateHandover submits a pickup or return handover for a rental. Creating
// it counts as the creator's own agreement; the counterparty still has to
// accept before the rental moves past the checkpoint.
func CreateHandover(svc *rental.Service, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		rentalId, ok := rentalIDParam(c, "id")
		if !ok {
			return
		}

		var input struct {
			HandoverType string   `json:"handoverType" binding:"required,oneof=PICKUP RETURN"`
			Pictures     []string `json:"pictures" binding:"required,min=1"`
			Comment      string   `json:"comment" binding:"required"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		h, err := svc.CreateHandover(c.Request.Context(), userId, rentalId,
			models.HandoverType(input.HandoverType), rental.HandoverInput{
				Pictures: input.Pictures,
				Comment:  input.Comment,
			})
		if err != nil {
			respondError(c, err)
			return
		}

		notifyHandoverUpdate(svc, hub, userId, h, "handover_created")
		c.JSON(201, h)
	}
}

// GetHandover retrieves the rental's handover of the given type
func GetHandover(svc *rental.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		rentalId, ok := rentalIDParam(c, "id")
		if !ok {
			return
		}

		typ := models.HandoverType(strings.ToUpper(c.Param("type")))
		if typ != models.HandoverTypePickup && typ != models.HandoverTypeReturn {
			c.JSON(400, gin.H{"error": "Handover type must be PICKUP or RETURN"})
			return
		}

		h, err := svc.GetHandover(c.Request.Context(), userId, rentalId, typ)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, h)
	}
}

// AcceptHandover records the caller's agreement to a handover
func AcceptHandover(svc *rental.Service, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		handoverId, ok := rentalIDParam(c, "id")
		if !ok {
			return
		}

		h, err := svc.AcceptHandover(c.Request.Context(), userId, handoverId)
		if err != nil {
			respondError(c, err)
			return
		}

		event := "handover_accepted"
		if h.FullyAgreed() {
			event = "handover_agreed"
		}
		notifyHandoverUpdate(svc, hub, userId, h, event)
		c.JSON(200, h)
	}
}

// DeclineHandover reopens a handover for re-submission
func DeclineHandover(svc *rental.Service, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		handoverId, ok := rentalIDParam(c, "id")
		if !ok {
			return
		}

		h, err := svc.DeclineHandover(c.Request.Context(), userId, handoverId)
		if err != nil {
			respondError(c, err)
			return
		}

		notifyHandoverUpdate(svc, hub, userId, h, "handover_declined")
		c.JSON(200, h)
	}
}

// notifyHandoverUpdate tells the counterparty about an agreement change and
// publishes the event. Best effort.
func notifyHandoverUpdate(svc *rental.Service, hub *services.Hub, actorID uint, h *models.Handover, event string) {
	ctx := context.Background()
	services.PublishHandoverUpdate(ctx, h.ID, h.RentalID, event)

	r, err := svc.GetRental(ctx, actorID, h.RentalID)
	if err != nil {
		return
	}
	notifyRentalUpdate(hub, r, actorID, event)
}
