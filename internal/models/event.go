package models

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus is the approval state of an event.
type EventStatus string

const (
	EventPending  EventStatus = "Pending"
	EventApproved EventStatus = "Approved"
	EventRejected EventStatus = "Rejected"
	EventFreezed  EventStatus = "Freezed"
)

// Valid reports whether s is a known status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventPending, EventApproved, EventRejected, EventFreezed:
		return true
	}
	return false
}

// EventMode is how an event is delivered.
type EventMode string

const (
	ModeOnline  EventMode = "Online"
	ModeOffline EventMode = "Offline"
	ModeHybrid  EventMode = "Hybrid"
)

// Valid reports whether m is a known mode.
func (m EventMode) Valid() bool {
	switch m {
	case ModeOnline, ModeOffline, ModeHybrid:
		return true
	}
	return false
}

// ParticipantType classifies a registration relative to the hosting departments.
type ParticipantType string

const (
	ParticipantInternal ParticipantType = "internal"
	ParticipantExternal ParticipantType = "external"
)

// Event is a proposed or running program hosted by one department.
type Event struct {
	ID                      uuid.UUID   `json:"id"`
	Title                   string      `json:"title"`
	Description             string      `json:"description"`
	Tags                    []string    `json:"tags"`
	DepartmentID            uuid.UUID   `json:"department_id"`
	Category                string      `json:"category"`
	RegistrationStartDate   time.Time   `json:"registration_start_date"`
	RegistrationEndDate     time.Time   `json:"registration_end_date"`
	StartDate               time.Time   `json:"start_date"`
	EndDate                 time.Time   `json:"end_date"`
	StartTime               string      `json:"start_time"`
	EndTime                 string      `json:"end_time"`
	NumberOfDays            int         `json:"number_of_days"`
	MaxParticipants         int         `json:"max_participants"`
	Mode                    EventMode   `json:"mode"`
	Venue                   string      `json:"venue"`
	CollaboratedDepartments IDs         `json:"collaborated_departments"`
	Budget                  string      `json:"budget"`
	BudgetAmount            float64     `json:"budget_amount"`
	Certificate             bool        `json:"certificate"`
	ProposedBy              uuid.UUID   `json:"proposed_by"`
	ApprovalStatus          EventStatus `json:"approval_status"`
	StatusUpdatedBy         *uuid.UUID  `json:"status_updated_by,omitempty"`
	Remarks                 string      `json:"remarks"`
	Summary                 string      `json:"summary"`
	InternalParticipants    IDs         `json:"internal_participants"`
	ExternalParticipants    IDs         `json:"external_participants"`
	AttendedParticipants    IDs         `json:"attended_participants"`
	CreatedAt               time.Time   `json:"created_at"`
	UpdatedAt               time.Time   `json:"updated_at"`
}

// RegistrantCount is the number of registered participants.
func (e *Event) RegistrantCount() int {
	return len(e.InternalParticipants) + len(e.ExternalParticipants)
}

// IsRegistered reports whether userID is registered in either list.
func (e *Event) IsRegistered(userID uuid.UUID) bool {
	return e.InternalParticipants.Has(userID) || e.ExternalParticipants.Has(userID)
}

// HostDepartments returns the primary department followed by collaborators.
func (e *Event) HostDepartments() IDs {
	hosts := IDs{e.DepartmentID}
	for _, id := range e.CollaboratedDepartments {
		hosts, _ = hosts.Add(id)
	}
	return hosts
}

// Clone returns a deep copy.
func (e Event) Clone() Event {
	e.Tags = append([]string(nil), e.Tags...)
	e.CollaboratedDepartments = e.CollaboratedDepartments.Clone()
	e.InternalParticipants = e.InternalParticipants.Clone()
	e.ExternalParticipants = e.ExternalParticipants.Clone()
	e.AttendedParticipants = e.AttendedParticipants.Clone()
	if e.StatusUpdatedBy != nil {
		id := *e.StatusUpdatedBy
		e.StatusUpdatedBy = &id
	}
	return e
}
