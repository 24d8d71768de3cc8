package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/tcw0/lendit-sub000/internal/services"
)

var pictureFolders = map[string]bool{
	"handovers": true,
	"items":     true,
	"profiles":  true,
}

// UploadPicture stores an uploaded picture and returns its URL. Handover and
// item submissions reference pictures by these URLs; the rental core never
// touches image bytes.
func UploadPicture() gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("picture")
		if err != nil {
			c.JSON(400, gin.H{"error": "Picture file is required"})
			return
		}

		folder := c.DefaultPostForm("folder", "items")
		if !pictureFolders[folder] {
			c.JSON(400, gin.H{"error": "Unknown picture folder"})
			return
		}

		url, err := services.UploadPicture(file, folder)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to upload picture"})
			return
		}

		c.JSON(201, gin.H{"url": url})
	}
}
