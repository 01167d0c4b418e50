package handlers

import (
	"errors"
	"net/http"
	"os"

	"github.com/agrolink-dev/agrolink/db"
	"github.com/agrolink-dev/agrolink/internal/logger"
	"github.com/agrolink-dev/agrolink/internal/models"
	"github.com/agrolink-dev/agrolink/internal/policy"
	"github.com/agrolink-dev/agrolink/internal/types"
	"github.com/agrolink-dev/agrolink/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateConsultationRequest struct {
	Sujet       string `json:"sujet" binding:"required"`
	Description string `json:"description" binding:"required"`
}

type UpdateConsultationRequest struct {
	Sujet       *string `json:"sujet"`
	Description *string `json:"description"`
}

// claimModeEnabled decides the accept/reject assignment policy: in claim mode
// (the default) the first expert to accept an unassigned consultation becomes
// its expert; CONSULTATION_CLAIM=false requires pre-assignment instead.
func claimModeEnabled() bool {
	return os.Getenv("CONSULTATION_CLAIM") != "false"
}

// CreateConsultation opens a new request. Status and farmer are
// server-authoritative: whatever the payload says, the consultation starts
// pending and belongs to the caller.
func CreateConsultation(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CreateConsultationRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	consultation := models.Consultation{
		PaysanID:    currentUser.ID,
		Sujet:       req.Sujet,
		Description: req.Description,
		Status:      models.StatusPending,
	}

	if err := db.DB.Create(&consultation).Error; err != nil {
		logger.Log.Errorf("Failed to create consultation: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, types.NewConsultationResponse(consultation))
}

// ListConsultations applies the visibility rule: staff see everything,
// experts their assigned consultations, farmers their own.
func ListConsultations(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	query := db.DB.Model(&models.Consultation{})

	switch {
	case currentUser.IsStaff:
		// no filter
	case currentUser.Role == models.RoleExpert:
		query = query.Where("expert_id = ?", currentUser.ID)
	default:
		query = query.Where("paysan_id = ?", currentUser.ID)
	}

	var consultations []models.Consultation

	if err := query.Order("created_at desc").Find(&consultations).Error; err != nil {
		logger.Log.Errorf("Failed to list consultations: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := make([]types.ConsultationResponse, 0, len(consultations))

	for _, consultation := range consultations {
		response = append(response, types.NewConsultationResponse(consultation))
	}

	ctx.JSON(http.StatusOK, response)
}

func fetchConsultation(ctx *gin.Context) (models.Consultation, bool) {
	var consultation models.Consultation

	if err := db.DB.Where("id = ?", ctx.Param("id")).First(&consultation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"detail": "Consultation introuvable"})
		} else {
			logger.Log.Errorf("Failed to fetch consultation: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return consultation, false
	}

	return consultation, true
}

func GetConsultation(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	consultation, ok := fetchConsultation(ctx)

	if !ok {
		return
	}

	if !policy.CanAccessConsultation(currentUser, consultation) {
		ctx.JSON(http.StatusForbidden, gin.H{"detail": "Vous ne participez pas à cette consultation"})
		return
	}

	ctx.JSON(http.StatusOK, types.NewConsultationResponse(consultation))
}

// UpdateConsultation lets the owning farmer edit subject and description.
// Status never moves through here; the dedicated actions own it.
func UpdateConsultation(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	consultation, ok := fetchConsultation(ctx)

	if !ok {
		return
	}

	if !policy.CanMutateConsultation(currentUser, consultation) {
		ctx.JSON(http.StatusForbidden, gin.H{"detail": "Action non autorisée"})
		return
	}

	var req UpdateConsultationRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Sujet != nil {
		consultation.Sujet = *req.Sujet
	}
	if req.Description != nil {
		consultation.Description = *req.Description
	}

	if err := db.DB.Save(&consultation).Error; err != nil {
		logger.Log.Errorf("Failed to update consultation: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, types.NewConsultationResponse(consultation))
}

func DeleteConsultation(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	consultation, ok := fetchConsultation(ctx)

	if !ok {
		return
	}

	if !policy.CanMutateConsultation(currentUser, consultation) {
		ctx.JSON(http.StatusForbidden, gin.H{"detail": "Action non autorisée"})
		return
	}

	if err := db.DB.Delete(&consultation).Error; err != nil {
		logger.Log.Errorf("Failed to delete consultation: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

// setConsultationStatus is the shared body of accept and reject. The actor is
// recorded as the consultation's expert; concurrent writes are last-write-wins.
func setConsultationStatus(ctx *gin.Context, status string) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	consultation, ok := fetchConsultation(ctx)

	if !ok {
		return
	}

	if !policy.CanAcceptConsultation(currentUser, consultation, claimModeEnabled()) {
		ctx.JSON(http.StatusForbidden, gin.H{"detail": "Action réservée à l'expert de la consultation"})
		return
	}

	consultation.Status = status

	if consultation.ExpertID == nil && !currentUser.IsStaff {
		expertID := currentUser.ID
		consultation.ExpertID = &expertID
	}

	if err := db.DB.Save(&consultation).Error; err != nil {
		logger.Log.Errorf("Failed to update consultation status: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": status})
}

func AcceptConsultation(ctx *gin.Context) {
	setConsultationStatus(ctx, models.StatusAccepted)
}

func RejectConsultation(ctx *gin.Context) {
	setConsultationStatus(ctx, models.StatusRejected)
}

// CloseConsultation marks a consultation completed. Any participant may close
// at any point, including straight from pending, and repeat closes succeed.
func CloseConsultation(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	consultation, ok := fetchConsultation(ctx)

	if !ok {
		return
	}

	if !policy.CanAccessConsultation(currentUser, consultation) {
		ctx.JSON(http.StatusForbidden, gin.H{"detail": "Vous ne participez pas à cette consultation"})
		return
	}

	consultation.Status = models.StatusCompleted

	if err := db.DB.Save(&consultation).Error; err != nil {
		logger.Log.Errorf("Failed to close consultation: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": models.StatusCompleted})
}
