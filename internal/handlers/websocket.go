package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/tcw0/lendit-sub000/internal/models"
	"github.com/tcw0/lendit-sub000/internal/services"
	"gorm.io/gorm"
)

// WebSocketHandler upgrades the connection and wires inbound chat messages
// to persistence. The receiver of a chat message is always the rental
// counterparty, derived server-side.
func WebSocketHandler(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		saveChat := func(senderID, rentalID uint, content string) (*models.ChatMessage, error) {
			var r models.Rental
			if err := db.First(&r, rentalID).Error; err != nil {
				return nil, fmt.Errorf("rental %d not found", rentalID)
			}

			var receiverID uint
			switch senderID {
			case r.RenterID:
				receiverID = r.LenderID
			case r.LenderID:
				receiverID = r.RenterID
			default:
				return nil, fmt.Errorf("user %d is not a participant of rental %d", senderID, rentalID)
			}

			msg := models.ChatMessage{
				RentalID:   rentalID,
				SenderID:   senderID,
				ReceiverID: receiverID,
				Content:    content,
			}
			if err := db.Create(&msg).Error; err != nil {
				return nil, err
			}
			return &msg, nil
		}

		services.HandleWebSocket(hub, c.Writer, c.Request, userID, saveChat)
	}
}

// GetChatMessages returns the chat history of a rental to its participants
func GetChatMessages(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		rentalId, ok := rentalIDParam(c, "rentalId")
		if !ok {
			return
		}

		var r models.Rental
		if err := db.First(&r, rentalId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Rental not found"})
			return
		}

		if userId != r.RenterID && userId != r.LenderID {
			c.JSON(403, gin.H{"error": "Unauthorized"})
			return
		}

		var messages []models.ChatMessage
		if err := db.Where("rental_id = ?", rentalId).
			Order("created_at ASC").
			Find(&messages).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch messages"})
			return
		}

		c.JSON(200, messages)
	}
}
