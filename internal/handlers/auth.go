package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/agrolink-dev/agrolink/db"
	"github.com/agrolink-dev/agrolink/internal/auth"
	"github.com/agrolink-dev/agrolink/internal/logger"
	"github.com/agrolink-dev/agrolink/internal/models"
	"github.com/agrolink-dev/agrolink/internal/types"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password" binding:"required,min=6"`
	Password2 string `json:"password2" binding:"required,min=6"`
	Role      string `json:"role"`
	Phone     string `json:"phone"`
}

type LoginRequest struct {
	LoginInput string `json:"login_input" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

func Register(ctx *gin.Context) {
	var req RegisterRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Password != req.Password2 {
		ctx.JSON(http.StatusBadRequest, gin.H{"password": "Les mots de passe ne correspondent pas."})
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Role == "" {
		req.Role = models.RolePaysan
	}

	if req.Role != models.RolePaysan && req.Role != models.RoleExpert {
		ctx.JSON(http.StatusBadRequest, gin.H{"role": "Rôle invalide"})
		return
	}

	// Username defaults to the email address.
	if req.Username == "" {
		req.Username = req.Email
	}

	var existingUser models.User

	err := db.DB.Where("email = ?", req.Email).First(&existingUser).Error

	if err == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"email": "Cet email est déjà utilisé."})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Log.Errorf("Database error when checking existing user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	err = db.DB.Where("username = ?", req.Username).First(&existingUser).Error

	if err == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"username": "Ce nom d'utilisateur est déjà utilisé."})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Log.Errorf("Database error when checking existing username: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)

	if err != nil {
		logger.Log.Errorf("Failed to hash password: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	newUser := models.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		Phone:        req.Phone,
		PasswordHash: string(passwordHash),
	}

	if err := db.DB.Create(&newUser).Error; err != nil {
		logger.Log.Errorf("Failed to create user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, types.NewUserResponse(newUser))
}

func Login(ctx *gin.Context) {
	var req LoginRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Identifiants manquants"})
		return
	}

	// An identifier containing @ is an email, anything else a username.
	var user models.User
	var err error

	if strings.Contains(req.LoginInput, "@") {
		err = db.DB.Where("email = ?", strings.ToLower(req.LoginInput)).First(&user).Error
	} else {
		err = db.DB.Where("username = ?", req.LoginInput).First(&user).Error
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Email ou mot de passe incorrect."})
			return
		}
		logger.Log.Errorf("Database error when fetching user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Email ou mot de passe incorrect."})
		return
	}

	access, refresh, err := auth.GenerateTokenPair(user.ID, user.Email, user.Role)

	if err != nil {
		logger.Log.Errorf("Failed to generate token pair: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"access":  access,
		"refresh": refresh,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"role":     user.Role,
			"is_staff": user.IsStaff,
		},
	})
}

func RefreshToken(ctx *gin.Context) {
	var req RefreshRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Refresh token manquant"})
		return
	}

	token, err := auth.VerifyToken(req.Refresh, auth.TokenTypeRefresh)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"detail": "Refresh token invalide"})
		return
	}

	userID, err := auth.UserIDFromToken(token)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"detail": "Refresh token invalide"})
		return
	}

	var user models.User

	if err := db.DB.First(&user, userID).Error; err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"detail": "Refresh token invalide"})
		return
	}

	access, err := auth.GenerateAccessToken(user.ID, user.Email, user.Role)

	if err != nil {
		logger.Log.Errorf("Failed to generate access token: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"access": access})
}
