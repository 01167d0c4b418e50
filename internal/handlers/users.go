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

// userScope narrows a query to what the caller may see: staff get the whole
// table, everyone else only their own row.
func userScope(actor types.AuthenticatedUser) *gorm.DB {
	if actor.IsStaff {
		return db.DB.Model(&models.User{})
	}
	return db.DB.Model(&models.User{}).Where("id = ?", actor.ID)
}

func ListUsers(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var users []models.User

	if err := userScope(currentUser).Order("id desc").Find(&users).Error; err != nil {
		logger.Log.Errorf("Failed to list users: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := make([]types.UserResponse, 0, len(users))

	for _, user := range users {
		response = append(response, types.NewUserResponse(user))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetUser(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var user models.User

	if err := userScope(currentUser).Where("id = ?", ctx.Param("id")).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"detail": "Utilisateur introuvable"})
		} else {
			logger.Log.Errorf("Failed to fetch user: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	ctx.JSON(http.StatusOK, types.NewUserResponse(user))
}

func UpdateUser(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var user models.User

	if err := db.DB.Where("id = ?", ctx.Param("id")).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"detail": "Utilisateur introuvable"})
		} else {
			logger.Log.Errorf("Failed to fetch user: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	if !policy.CanMutateUser(currentUser, user) {
		ctx.JSON(http.StatusForbidden, gin.H{"detail": "Action non autorisée"})
		return
	}

	var req UpdateProfileRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updates, done := userUpdates(ctx, user, req)

	if done {
		return
	}

	if len(updates) > 0 {
		if err := db.DB.Model(&user).Updates(updates).Error; err != nil {
			logger.Log.Errorf("Failed to update user: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	if err := db.DB.First(&user, user.ID).Error; err != nil {
		logger.Log.Errorf("Failed to refresh user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, types.NewUserResponse(user))
}

func DeleteUser(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var user models.User

	if err := db.DB.Where("id = ?", ctx.Param("id")).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"detail": "Utilisateur introuvable"})
		} else {
			logger.Log.Errorf("Failed to fetch user: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	if !policy.CanMutateUser(currentUser, user) {
		ctx.JSON(http.StatusForbidden, gin.H{"detail": "Action non autorisée"})
		return
	}

	if err := db.DB.Delete(&user).Error; err != nil {
		logger.Log.Errorf("Failed to delete user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
