package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/tcw0/lendit-sub000/internal/models"
	"gorm.io/gorm"
)

// CreateItem lists a new item for lending
func CreateItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input struct {
			Name        string   `json:"name" binding:"required"`
			Description string   `json:"description"`
			PricePerDay float64  `json:"pricePerDay" binding:"required"`
			Pictures    []string `json:"pictures"`
			Address     string   `json:"address"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if input.PricePerDay < 0 {
			c.JSON(400, gin.H{"error": "Price per day must be non-negative"})
			return
		}

		item := models.Item{
			OwnerID:     userId,
			Name:        input.Name,
			Description: input.Description,
			PricePerDay: input.PricePerDay,
			Pictures:    input.Pictures,
			Address:     input.Address,
		}

		if err := db.Create(&item).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to create item"})
			return
		}

		c.JSON(201, item)
	}
}

// GetItems lists all items available for lending
func GetItems(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var items []models.Item
		query := db.Preload("Owner").Order("created_at DESC")

		if owner := c.Query("ownerId"); owner != "" {
			query = query.Where("owner_id = ?", owner)
		}

		if err := query.Find(&items).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch items"})
			return
		}

		c.JSON(200, items)
	}
}

// GetItem retrieves a single item
func GetItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		itemId := c.Param("id")

		var item models.Item
		if err := db.Preload("Owner").First(&item, itemId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Item not found"})
			return
		}

		c.JSON(200, item)
	}
}
