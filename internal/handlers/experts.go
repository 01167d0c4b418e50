package handlers

import (
	"errors"
	"net/http"

	"github.com/agrolink-dev/agrolink/db"
	"github.com/agrolink-dev/agrolink/internal/logger"
	"github.com/agrolink-dev/agrolink/internal/models"
	"github.com/agrolink-dev/agrolink/internal/types"
	"github.com/agrolink-dev/agrolink/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// The expert directory is readable by any authenticated user; writes are
// staff-only.

func ListExperts(ctx *gin.Context) {
	var experts []models.Expert

	if err := db.DB.Preload("User").Order("id desc").Find(&experts).Error; err != nil {
		logger.Log.Errorf("Failed to list experts: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := make([]types.ExpertResponse, 0, len(experts))

	for _, expert := range experts {
		response = append(response, types.NewExpertResponse(expert))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetExpert(ctx *gin.Context) {
	var expert models.Expert

	if err := db.DB.Preload("User").Where("id = ?", ctx.Param("id")).First(&expert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"detail": "Expert introuvable"})
		} else {
			logger.Log.Errorf("Failed to fetch expert: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	ctx.JSON(http.StatusOK, types.NewExpertResponse(expert))
}

func UpdateExpert(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if !currentUser.IsStaff {
		ctx.JSON(http.StatusForbidden, gin.H{"detail": "Action réservée à l'administration"})
		return
	}

	var expert models.Expert

	if err := db.DB.Where("id = ?", ctx.Param("id")).First(&expert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"detail": "Expert introuvable"})
		} else {
			logger.Log.Errorf("Failed to fetch expert: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	var req UpdateExpertRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updates := make(map[string]interface{})

	if req.Domaine != nil {
		updates["domaine"] = *req.Domaine
	}
	if req.Experience != nil {
		updates["experience"] = *req.Experience
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if len(updates) > 0 {
		if err := db.DB.Model(&expert).Updates(updates).Error; err != nil {
			logger.Log.Errorf("Failed to update expert: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	if err := db.DB.Preload("User").First(&expert, expert.ID).Error; err != nil {
		logger.Log.Errorf("Failed to refresh expert: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, types.NewExpertResponse(expert))
}

func DeleteExpert(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if !currentUser.IsStaff {
		ctx.JSON(http.StatusForbidden, gin.H{"detail": "Action réservée à l'administration"})
		return
	}

	var expert models.Expert

	if err := db.DB.Where("id = ?", ctx.Param("id")).First(&expert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"detail": "Expert introuvable"})
		} else {
			logger.Log.Errorf("Failed to fetch expert: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	if err := db.DB.Delete(&expert).Error; err != nil {
		logger.Log.Errorf("Failed to delete expert: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
