package models

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalStatus is the state of a proposed category or type.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
)

// Category is an event category proposed for one department.
type Category struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Status       ApprovalStatus `json:"status"`
	DepartmentID uuid.UUID      `json:"department_id"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Type is a department type label proposed for one organization.
type Type struct {
	ID             uuid.UUID      `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Status         ApprovalStatus `json:"status"`
	OrganizationID *uuid.UUID     `json:"organization_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Clone returns a deep copy.
func (t Type) Clone() Type {
	if t.OrganizationID != nil {
		id := *t.OrganizationID
		t.OrganizationID = &id
	}
	return t
}
