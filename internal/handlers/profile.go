package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/agrolink-dev/agrolink/db"
	"github.com/agrolink-dev/agrolink/internal/logger"
	"github.com/agrolink-dev/agrolink/internal/models"
	"github.com/agrolink-dev/agrolink/internal/policy"
	"github.com/agrolink-dev/agrolink/internal/types"
	"github.com/agrolink-dev/agrolink/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpdateProfileRequest carries the mutable user fields. Pointers distinguish
// "not sent" from "set to empty" for partial updates.
type UpdateProfileRequest struct {
	Username  *string `json:"username"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email" binding:"omitempty"`
	Phone     *string `json:"phone"`
	Avatar    *string `json:"avatar"`
}

type UpdateExpertRequest struct {
	Domaine     *string `json:"domaine"`
	Experience  *int    `json:"experience"`
	Description *string `json:"description"`
}

type UpdatePaysanRequest struct {
	UpdateProfileRequest
	Region      *string  `json:"region"`
	TypeCulture *string  `json:"type_culture"`
	Superficie  *float64 `json:"superficie"`
	Experience  *int     `json:"experience"`
}

// userUpdates turns the request into a gorm updates map, enforcing the
// case-insensitive email uniqueness rule. A nil map with a true second return
// means the caller already wrote the response.
func userUpdates(ctx *gin.Context, dbUser models.User, req UpdateProfileRequest) (map[string]interface{}, bool) {
	updates := make(map[string]interface{})

	if req.Username != nil {
		updates["username"] = strings.TrimSpace(*req.Username)
	}

	if req.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*req.FirstName)
	}

	if req.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*req.LastName)
	}

	if req.Phone != nil {
		updates["phone"] = strings.TrimSpace(*req.Phone)
	}

	if req.Avatar != nil {
		updates["avatar"] = strings.TrimSpace(*req.Avatar)
	}

	if req.Email != nil {
		newEmail := strings.ToLower(strings.TrimSpace(*req.Email))

		if newEmail != dbUser.Email {
			var existingUser models.User
			err := db.DB.Where("email = ? AND id != ?", newEmail, dbUser.ID).First(&existingUser).Error
			if err == nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"email": "Cet email est déjà utilisé."})
				return nil, true
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Log.Errorf("Database error when checking existing email: %v", err)
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return nil, true
			}
		}

		updates["email"] = newEmail
	}

	return updates, false
}

// Me returns the caller's own profile, role-dispatched: the payload carries
// the role plus the matching profile variant when one exists.
func Me(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var user models.User

	if err := db.DB.First(&user, currentUser.ID).Error; err != nil {
		logger.Log.Errorf("Failed to fetch user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := gin.H{
		"user": types.NewUserResponse(user),
		"role": user.Role,
	}

	switch user.Role {
	case models.RoleExpert:
		var expert models.Expert
		if err := db.DB.Preload("User").Where("user_id = ?", user.ID).First(&expert).Error; err == nil {
			response["expert_profile"] = types.NewExpertResponse(expert)
		} else {
			response["expert_profile"] = nil
		}
	default:
		var paysan models.Paysan
		if err := db.DB.Preload("User").Where("user_id = ?", user.ID).First(&paysan).Error; err == nil {
			response["paysan_profile"] = types.NewPaysanResponse(paysan)
		} else {
			response["paysan_profile"] = nil
		}
	}

	ctx.JSON(http.StatusOK, response)
}

// UpdateMe partially updates the caller's mutable user fields.
func UpdateMe(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var dbUser models.User

	if err := db.DB.First(&dbUser, currentUser.ID).Error; err != nil {
		logger.Log.Errorf("Failed to fetch user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req UpdateProfileRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updates, done := userUpdates(ctx, dbUser, req)

	if done {
		return
	}

	if len(updates) > 0 {
		if err := db.DB.Model(&dbUser).Updates(updates).Error; err != nil {
			logger.Log.Errorf("Failed to update user: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	if err := db.DB.First(&dbUser, dbUser.ID).Error; err != nil {
		logger.Log.Errorf("Failed to refresh user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, types.NewUserResponse(dbUser))
}

// getOrCreateExpert materializes the expert profile on first access. The
// insert is conflict-guarded on user_id so two concurrent first accesses
// cannot produce duplicate rows.
func getOrCreateExpert(userID uint) (models.Expert, error) {
	expert := models.Expert{
		UserID:      userID,
		Domaine:     "Agriculture générale",
		Experience:  0,
		Description: "Profil expert",
	}

	err := db.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&expert).Error

	if err != nil {
		return models.Expert{}, err
	}

	var out models.Expert
	err = db.DB.Preload("User").Where("user_id = ?", userID).First(&out).Error
	return out, err
}

func getOrCreatePaysan(userID uint) (models.Paysan, error) {
	paysan := models.Paysan{UserID: userID}

	err := db.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&paysan).Error

	if err != nil {
		return models.Paysan{}, err
	}

	var out models.Paysan
	err = db.DB.Preload("User").Where("user_id = ?", userID).First(&out).Error
	return out, err
}

// ExpertMe serves GET/PUT /experts/me for users with the expert role.
func ExpertMe(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if !policy.IsExpert(currentUser) {
		ctx.JSON(http.StatusForbidden, gin.H{"detail": "Accès réservé aux experts"})
		return
	}

	expert, err := getOrCreateExpert(currentUser.ID)

	if err != nil {
		logger.Log.Errorf("Failed to materialize expert profile: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if ctx.Request.Method == http.MethodPut {
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
				logger.Log.Errorf("Failed to update expert profile: %v", err)
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
		}

		if err := db.DB.Preload("User").First(&expert, expert.ID).Error; err != nil {
			logger.Log.Errorf("Failed to refresh expert profile: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	ctx.JSON(http.StatusOK, types.NewExpertResponse(expert))
}

// PaysanMe serves GET/PUT /paysans/me; farmers only.
func PaysanMe(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if !policy.IsPaysan(currentUser) {
		ctx.JSON(http.StatusForbidden, gin.H{"detail": "Accès réservé aux paysans"})
		return
	}

	paysan, err := getOrCreatePaysan(currentUser.ID)

	if err != nil {
		logger.Log.Errorf("Failed to materialize paysan profile: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if ctx.Request.Method == http.MethodPut {
		var req UpdatePaysanRequest

		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		userFields, done := userUpdates(ctx, paysan.User, req.UpdateProfileRequest)

		if done {
			return
		}

		if len(userFields) > 0 {
			if err := db.DB.Model(&models.User{}).Where("id = ?", currentUser.ID).Updates(userFields).Error; err != nil {
				logger.Log.Errorf("Failed to update user: %v", err)
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
		}

		updates := make(map[string]interface{})

		if req.Region != nil {
			updates["region"] = *req.Region
		}
		if req.TypeCulture != nil {
			updates["type_culture"] = *req.TypeCulture
		}
		if req.Superficie != nil {
			updates["superficie"] = *req.Superficie
		}
		if req.Experience != nil {
			updates["experience"] = *req.Experience
		}

		if len(updates) > 0 {
			if err := db.DB.Model(&paysan).Updates(updates).Error; err != nil {
				logger.Log.Errorf("Failed to update paysan profile: %v", err)
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
		}

		if err := db.DB.Preload("User").First(&paysan, paysan.ID).Error; err != nil {
			logger.Log.Errorf("Failed to refresh paysan profile: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	ctx.JSON(http.StatusOK, types.NewPaysanResponse(paysan))
}

// UploadAvatar stores a multipart avatar under the media directory and points
// the caller's avatar field at the served path.
func UploadAvatar(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	file, err := ctx.FormFile("avatar")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"avatar": "Fichier manquant"})
		return
	}

	mediaDir := os.Getenv("MEDIA_DIR")
	if mediaDir == "" {
		mediaDir = "media"
	}

	avatarDir := filepath.Join(mediaDir, "avatars")

	if err := os.MkdirAll(avatarDir, 0o755); err != nil {
		logger.Log.Errorf("Failed to create media directory: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	filename := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))

	if err := ctx.SaveUploadedFile(file, filepath.Join(avatarDir, filename)); err != nil {
		logger.Log.Errorf("Failed to save avatar: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	avatarPath := "/media/avatars/" + filename

	if err := db.DB.Model(&models.User{}).Where("id = ?", currentUser.ID).Update("avatar", avatarPath).Error; err != nil {
		logger.Log.Errorf("Failed to update avatar: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"avatar": avatarPath})
}
