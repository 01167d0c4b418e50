package handlers

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/agrolink-dev/agrolink/db"
	"github.com/agrolink-dev/agrolink/internal/logger"
	"github.com/agrolink-dev/agrolink/internal/models"
	"github.com/agrolink-dev/agrolink/internal/policy"
	"github.com/agrolink-dev/agrolink/internal/types"
	"github.com/agrolink-dev/agrolink/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var (
	threadClients   = make(map[uint]map[*websocket.Conn]bool)
	threadClientsMu sync.RWMutex
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// BroadcastMessage pushes a freshly created message to every participant
// connected to the consultation's thread socket.
func BroadcastMessage(consultationID uint, message types.MessageResponse) {
	threadClientsMu.RLock()
	clients, exists := threadClients[consultationID]
	if !exists || len(clients) == 0 {
		threadClientsMu.RUnlock()
		return
	}

	// Copy the client set so the lock is not held while writing.
	clientsCopy := make([]*websocket.Conn, 0, len(clients))
	for conn := range clients {
		clientsCopy = append(clientsCopy, conn)
	}
	threadClientsMu.RUnlock()

	for _, conn := range clientsCopy {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			logger.Log.Warnf("Failed to set write deadline for broadcast: %v", err)
			continue
		}

		err := conn.WriteJSON(gin.H{
			"type":    "message",
			"message": message,
		})

		if err != nil {
			logger.Log.Warnf("Failed to broadcast message to client: %v", err)
			threadClientsMu.Lock()
			if clients, exists := threadClients[consultationID]; exists {
				delete(clients, conn)
				if len(clients) == 0 {
					delete(threadClients, consultationID)
				}
			}
			threadClientsMu.Unlock()
			conn.Close()
		}
	}
}

// ConsultationSocket upgrades a participant to a live thread connection for
// one consultation.
func ConsultationSocket(c *gin.Context) {
	currentUser, err := utils.GetCurrentUser(c)

	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	consultationID, err := strconv.ParseUint(c.Param("id"), 10, 64)

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Consultation ID is required"})
		return
	}

	var consultation models.Consultation

	if err := db.DB.First(&consultation, consultationID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Consultation introuvable"})
		return
	}

	if !policy.CanAccessConsultation(currentUser, consultation) {
		c.JSON(http.StatusForbidden, gin.H{"detail": "Vous ne participez pas à cette consultation"})
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range types.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Warnf("WebSocket upgrade failed: %v", err)
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Log.Warnf("Failed to set initial read deadline: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	key := consultation.ID

	threadClientsMu.Lock()
	if threadClients[key] == nil {
		threadClients[key] = make(map[*websocket.Conn]bool)
	}
	threadClients[key][conn] = true
	threadClientsMu.Unlock()

	defer func() {
		threadClientsMu.Lock()

		if clients, exists := threadClients[key]; exists {
			delete(clients, conn)

			if len(clients) == 0 {
				delete(threadClients, key)
			}
		}

		threadClientsMu.Unlock()
		conn.Close()
	}()

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		logger.Log.Warnf("Failed to set write deadline for welcome message: %v", err)
		return
	}

	err = conn.WriteJSON(gin.H{
		"type":         "connected",
		"consultation": key,
	})

	if err != nil {
		logger.Log.Warnf("Failed to send welcome message: %v", err)
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	go func() {
		for range ticker.C {
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			break
		}

		// The socket is push-only; inbound frames are drained and dropped.
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Warnf("WebSocket error for consultation %d: %v", key, err)
			}
			break
		}
	}
}
