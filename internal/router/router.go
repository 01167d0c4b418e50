package router

import (
	"os"
	"time"

	"github.com/agrolink-dev/agrolink/internal/handlers"
	"github.com/agrolink-dev/agrolink/internal/middleware"
	"github.com/agrolink-dev/agrolink/internal/types"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	// Credentialed cross-origin requests are deliberately disallowed; auth is
	// bearer-token only.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	mediaDir := os.Getenv("MEDIA_DIR")
	if mediaDir == "" {
		mediaDir = "media"
	}
	r.Static("/media", mediaDir)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register)
			auth.POST("/login", handlers.Login)
			auth.POST("/token/refresh", handlers.RefreshToken)
		}

		authed := api.Group("", middleware.AuthMiddleware())
		{
			authed.GET("/me", handlers.Me)
			authed.PUT("/me", handlers.UpdateMe)
			authed.POST("/me/avatar", handlers.UploadAvatar)

			authed.GET("/users", handlers.ListUsers)
			authed.GET("/users/:id", handlers.GetUser)
			authed.PUT("/users/:id", handlers.UpdateUser)
			authed.DELETE("/users/:id", handlers.DeleteUser)

			authed.GET("/experts", handlers.ListExperts)
			authed.GET("/experts/me", handlers.ExpertMe)
			authed.PUT("/experts/me", handlers.ExpertMe)
			authed.GET("/experts/:id", handlers.GetExpert)
			authed.PUT("/experts/:id", handlers.UpdateExpert)
			authed.DELETE("/experts/:id", handlers.DeleteExpert)

			authed.GET("/paysans/me", handlers.PaysanMe)
			authed.PUT("/paysans/me", handlers.PaysanMe)

			authed.POST("/consultations", handlers.CreateConsultation)
			authed.GET("/consultations", handlers.ListConsultations)
			authed.GET("/consultations/:id", handlers.GetConsultation)
			authed.PUT("/consultations/:id", handlers.UpdateConsultation)
			authed.DELETE("/consultations/:id", handlers.DeleteConsultation)
			authed.POST("/consultations/:id/accept", handlers.AcceptConsultation)
			authed.POST("/consultations/:id/reject", handlers.RejectConsultation)
			authed.POST("/consultations/:id/close", handlers.CloseConsultation)

			authed.POST("/messages", handlers.CreateMessage)
			authed.GET("/messages", handlers.ListMessages)
			authed.GET("/messages/:id", handlers.GetMessage)

			authed.GET("/ws/consultations/:id", handlers.ConsultationSocket)
		}
	}

	return r
}
