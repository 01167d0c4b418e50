package handlers

import (
	"errors"
	"net/http"

	"github.com/agrolink-dev/agrolink/db"
	"github.com/agrolink-dev/agrolink/internal/logger"
	"github.com/agrolink-dev/agrolink/internal/models"
	"github.com/agrolink-dev/agrolink/internal/policy"
	"github.com/agrolink-dev/agrolink/internal/types"
	"github.com/agrolink-dev/agrolink/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateMessageRequest struct {
	Consultation uint   `json:"consultation" binding:"required"`
	Content      string `json:"content" binding:"required"`
}

// CreateMessage posts into a consultation thread. Sender is the caller;
// receiver is always derived as the other participant, never taken from the
// payload.
func CreateMessage(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CreateMessageRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"consultation": "Consultation obligatoire"})
		return
	}

	var consultation models.Consultation

	if err := db.DB.First(&consultation, req.Consultation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"consultation": "Consultation introuvable"})
		} else {
			logger.Log.Errorf("Failed to fetch consultation: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	isPaysan := consultation.PaysanID == currentUser.ID
	isExpert := consultation.ExpertID != nil && *consultation.ExpertID == currentUser.ID

	if !isPaysan && !isExpert {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Vous ne participez pas à cette consultation"})
		return
	}

	var receiverID uint

	if isPaysan {
		if consultation.ExpertID == nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"consultation": "Aucun expert assigné à cette consultation"})
			return
		}
		receiverID = *consultation.ExpertID
	} else {
		receiverID = consultation.PaysanID
	}

	message := models.Message{
		SenderID:       currentUser.ID,
		ReceiverID:     receiverID,
		ConsultationID: consultation.ID,
		Content:        req.Content,
	}

	if err := db.DB.Create(&message).Error; err != nil {
		logger.Log.Errorf("Failed to create message: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := db.DB.Preload("Sender").Preload("Receiver").First(&message, message.ID).Error; err != nil {
		logger.Log.Errorf("Failed to load message: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := types.NewMessageResponse(message)

	BroadcastMessage(consultation.ID, response)

	ctx.JSON(http.StatusCreated, response)
}

// ListMessages returns the caller's thread history in chronological order,
// optionally narrowed to one consultation.
func ListMessages(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	query := db.DB.Preload("Sender").Preload("Receiver").
		Where("sender_id = ? OR receiver_id = ?", currentUser.ID, currentUser.ID)

	if consultationID := ctx.Query("consultation"); consultationID != "" {
		query = query.Where("consultation_id = ?", consultationID)
	}

	var messages []models.Message

	if err := query.Order("created_at asc").Find(&messages).Error; err != nil {
		logger.Log.Errorf("Failed to list messages: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := make([]types.MessageResponse, 0, len(messages))

	for _, message := range messages {
		response = append(response, types.NewMessageResponse(message))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetMessage(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var message models.Message

	if err := db.DB.Preload("Sender").Preload("Receiver").Where("id = ?", ctx.Param("id")).First(&message).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"detail": "Message introuvable"})
		} else {
			logger.Log.Errorf("Failed to fetch message: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	if !policy.CanAccessMessage(currentUser, message) {
		ctx.JSON(http.StatusForbidden, gin.H{"detail": "Action non autorisée"})
		return
	}

	ctx.JSON(http.StatusOK, types.NewMessageResponse(message))
}
