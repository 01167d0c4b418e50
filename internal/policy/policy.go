// Package policy holds the per-entity authorization predicates. Each rule is
// an explicit function over (actor, target); the middleware guarantees the
// actor is authenticated before any of these run, and staff passes every
// check unconditionally.
package policy

import (
	"github.com/agrolink-dev/agrolink/internal/models"
	"github.com/agrolink-dev/agrolink/internal/types"
)

func IsExpert(actor types.AuthenticatedUser) bool {
	return actor.Role == models.RoleExpert
}

func IsPaysan(actor types.AuthenticatedUser) bool {
	return actor.Role == models.RolePaysan
}

// CanMutateUser allows a user to modify only their own record.
func CanMutateUser(actor types.AuthenticatedUser, target models.User) bool {
	return actor.IsStaff || actor.ID == target.ID
}

// CanViewUser mirrors the listing scope: staff see everyone, others only
// themselves.
func CanViewUser(actor types.AuthenticatedUser, target models.User) bool {
	return actor.IsStaff || actor.ID == target.ID
}

// CanAccessConsultation restricts detail access to the consultation's farmer,
// its assigned expert, or staff.
func CanAccessConsultation(actor types.AuthenticatedUser, c models.Consultation) bool {
	if actor.IsStaff {
		return true
	}

	if c.PaysanID == actor.ID {
		return true
	}

	return c.ExpertID != nil && *c.ExpertID == actor.ID
}

// CanMutateConsultation covers edits to the core fields, which belong to the
// creating farmer.
func CanMutateConsultation(actor types.AuthenticatedUser, c models.Consultation) bool {
	return actor.IsStaff || c.PaysanID == actor.ID
}

// CanAcceptConsultation gates the accept/reject actions. In claim mode any
// expert may take an unassigned consultation; otherwise the assigned expert
// must be the actor.
func CanAcceptConsultation(actor types.AuthenticatedUser, c models.Consultation, claimMode bool) bool {
	if actor.IsStaff {
		return true
	}

	if !IsExpert(actor) {
		return false
	}

	if c.ExpertID != nil {
		return *c.ExpertID == actor.ID
	}

	return claimMode
}

// CanAccessMessage restricts a message to its sender, its receiver, or staff.
func CanAccessMessage(actor types.AuthenticatedUser, m models.Message) bool {
	return actor.IsStaff || m.SenderID == actor.ID || m.ReceiverID == actor.ID
}
