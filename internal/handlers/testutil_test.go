package handlers_test

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agrolink-dev/agrolink/db"
	"github.com/agrolink-dev/agrolink/internal/auth"
	"github.com/agrolink-dev/agrolink/internal/models"
	"github.com/agrolink-dev/agrolink/internal/router"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTest wires the handlers to a fresh in-memory database and returns the
// real router, so every test exercises the full middleware chain.
func setupTest(t *testing.T) *gin.Engine {
	t.Helper()

	t.Setenv("JWT_SECRET", "test-secret")
	if err := auth.InitJWTSecret(); err != nil {
		t.Fatalf("init jwt secret: %v", err)
	}

	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	db.DB = gdb

	if err := db.MigrateDatabase(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return router.NewRouter()
}

func createUser(t *testing.T, username, email, role string, staff bool) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("motdepasse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	user := models.User{
		Username:     username,
		Email:        email,
		Role:         role,
		PasswordHash: string(hash),
		IsStaff:      staff,
	}

	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}

	return user
}

func accessToken(t *testing.T, user models.User) string {
	t.Helper()

	token, err := auth.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	return token
}

func doRequest(t *testing.T, r *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createConsultation(t *testing.T, paysan models.User, expert *models.User, status string) models.Consultation {
	t.Helper()

	consultation := models.Consultation{
		PaysanID:    paysan.ID,
		Sujet:       "Irrigation help",
		Description: "Besoin de conseils",
		Status:      status,
	}

	if expert != nil {
		expertID := expert.ID
		consultation.ExpertID = &expertID
	}

	if err := db.DB.Create(&consultation).Error; err != nil {
		t.Fatalf("create consultation: %v", err)
	}

	return consultation
}

func mustStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()

	if w.Code != want {
		t.Fatalf("expected status %d, got %d body=%s", want, w.Code, w.Body.String())
	}
}

func userCount(t *testing.T) int64 {
	t.Helper()

	var count int64
	if err := db.DB.Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	return count
}
