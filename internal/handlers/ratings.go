package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/tcw0/lendit-sub000/internal/models"
	"github.com/tcw0/lendit-sub000/internal/rental"
	"github.com/tcw0/lendit-sub000/internal/services"
	"gorm.io/gorm"
)

// SubmitRating records a rating once the return is confirmed. The renter
// rates the item and the lender; the lender rates the renter. The rated
// target is derived from the caller's role, never taken from the request.
func SubmitRating(svc *rental.Service, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		rentalId, ok := rentalIDParam(c, "id")
		if !ok {
			return
		}

		var input struct {
			TargetType string `json:"targetType" binding:"required,oneof=ITEM USER"`
			Stars      int    `json:"stars" binding:"required,min=1,max=5"`
			Comment    string `json:"comment"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		r, err := svc.SubmitRating(c.Request.Context(), userId, rentalId, rental.RatingInput{
			TargetType: models.RatingTarget(input.TargetType),
			Stars:      input.Stars,
			Comment:    input.Comment,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		notifyRentalUpdate(hub, r, userId, "A rating was submitted")
		c.JSON(200, r)
	}
}

// GetRatings lists the ratings submitted on a rental
func GetRatings(db *gorm.DB, svc *rental.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		rentalId, ok := rentalIDParam(c, "id")
		if !ok {
			return
		}

		if _, err := svc.GetRental(c.Request.Context(), userId, rentalId); err != nil {
			respondError(c, err)
			return
		}

		var ratings []models.Rating
		if err := db.Where("rental_id = ?", rentalId).Find(&ratings).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch ratings"})
			return
		}

		c.JSON(200, ratings)
	}
}
