package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the tenant root.
type Organization struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Types        Names     `json:"types"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	POC          string    `json:"poc"`
	Contact      string    `json:"contact"`
	MemberDomain []string  `json:"member_domain"`
	Admins       IDs       `json:"admins"`
	Members      IDs       `json:"members"`
	Departments  IDs       `json:"departments"`
	Events       IDs       `json:"events"`
	CreatedBy    uuid.UUID `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasParticipant reports whether userID is a member or an admin.
func (o *Organization) HasParticipant(userID uuid.UUID) bool {
	return o.Admins.Has(userID) || o.Members.Has(userID)
}

// Clone returns a deep copy.
func (o Organization) Clone() Organization {
	o.Types = append(Names(nil), o.Types...)
	o.MemberDomain = append([]string(nil), o.MemberDomain...)
	o.Admins = o.Admins.Clone()
	o.Members = o.Members.Clone()
	o.Departments = o.Departments.Clone()
	o.Events = o.Events.Clone()
	return o
}
