package models

import (
	"time"

	"github.com/google/uuid"
)

// Department belongs to at most one organization. A nil OrganizationID marks a legacy, unscoped record.
type Department struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	Name           string     `json:"name"`
	Type           string     `json:"type"`
	Description    string     `json:"description"`
	Categories     Names      `json:"categories"`
	Admins         IDs        `json:"admins"`
	Members        IDs        `json:"members"`
	Events         IDs        `json:"events"`
	CreatedBy      uuid.UUID  `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
}

// HasParticipant reports whether userID is a member or an admin.
func (d *Department) HasParticipant(userID uuid.UUID) bool {
	return d.Admins.Has(userID) || d.Members.Has(userID)
}

// InOrganization reports whether the department's parent is orgID.
func (d *Department) InOrganization(orgID uuid.UUID) bool {
	return d.OrganizationID != nil && *d.OrganizationID == orgID
}

// Clone returns a deep copy.
func (d Department) Clone() Department {
	if d.OrganizationID != nil {
		id := *d.OrganizationID
		d.OrganizationID = &id
	}
	d.Categories = append(Names(nil), d.Categories...)
	d.Admins = d.Admins.Clone()
	d.Members = d.Members.Clone()
	d.Events = d.Events.Clone()
	return d
}
