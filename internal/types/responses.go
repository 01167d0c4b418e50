package types

import (
	"time"

	"github.com/agrolink-dev/agrolink/internal/models"
)

// AuthenticatedUser is the snapshot of the caller placed in the gin context
// by the auth middleware.
type AuthenticatedUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsStaff  bool   `json:"is_staff"`
}

type UserResponse struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	Phone     string `json:"phone"`
	Avatar    string `json:"avatar"`
	IsStaff   bool   `json:"is_staff"`
}

type PaysanResponse struct {
	ID          uint         `json:"id"`
	User        UserResponse `json:"user"`
	Region      string       `json:"region"`
	TypeCulture string       `json:"type_culture"`
	Superficie  float64      `json:"superficie"`
	Experience  int          `json:"experience"`
}

type ExpertResponse struct {
	ID          uint         `json:"id"`
	User        UserResponse `json:"user"`
	Domaine     string       `json:"domaine"`
	Experience  int          `json:"experience"`
	Description string       `json:"description"`
}

type ConsultationResponse struct {
	ID          uint      `json:"id"`
	Sujet       string    `json:"sujet"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	Paysan      uint      `json:"paysan"`
	Expert      *uint     `json:"expert"`
}

type MessageResponse struct {
	ID           uint         `json:"id"`
	Content      string       `json:"content"`
	CreatedAt    time.Time    `json:"created_at"`
	Sender       UserResponse `json:"sender"`
	Receiver     UserResponse `json:"receiver"`
	Consultation uint         `json:"consultation"`
}

func NewUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		Phone:     u.Phone,
		Avatar:    u.Avatar,
		IsStaff:   u.IsStaff,
	}
}

func NewPaysanResponse(p models.Paysan) PaysanResponse {
	return PaysanResponse{
		ID:          p.ID,
		User:        NewUserResponse(p.User),
		Region:      p.Region,
		TypeCulture: p.TypeCulture,
		Superficie:  p.Superficie,
		Experience:  p.Experience,
	}
}

func NewExpertResponse(e models.Expert) ExpertResponse {
	return ExpertResponse{
		ID:          e.ID,
		User:        NewUserResponse(e.User),
		Domaine:     e.Domaine,
		Experience:  e.Experience,
		Description: e.Description,
	}
}

func NewConsultationResponse(c models.Consultation) ConsultationResponse {
	return ConsultationResponse{
		ID:          c.ID,
		Sujet:       c.Sujet,
		Description: c.Description,
		Status:      c.Status,
		CreatedAt:   c.CreatedAt,
		Paysan:      c.PaysanID,
		Expert:      c.ExpertID,
	}
}

func NewMessageResponse(m models.Message) MessageResponse {
	return MessageResponse{
		ID:           m.ID,
		Content:      m.Content,
		CreatedAt:    m.CreatedAt,
		Sender:       NewUserResponse(m.Sender),
		Receiver:     NewUserResponse(m.Receiver),
		Consultation: m.ConsultationID,
	}
}
