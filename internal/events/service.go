package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eventgrid/backend/internal/access"
	"github.com/eventgrid/backend/internal/apperr"
	"github.com/eventgrid/backend/internal/metrics"
	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/internal/store"
)

// Service implements the event lifecycle over the entity store.
type Service struct {
	store   store.Store
	metrics *metrics.Metrics
	changes store.ChangeListener
	now     func() time.Time
}

// NewService creates an events service. m may be nil.
func NewService(s store.Store, m *metrics.Metrics) *Service {
	return &Service{store: s, metrics: m, now: time.Now}
}

// SetChangeListener registers l to hear about committed event edits, deletions and status changes.
func (s *Service) SetChangeListener(l store.ChangeListener) { s.changes = l }

// CreateInput is the payload for Create.
type CreateInput struct {
	Title                   string
	Description             string
	Tags                    []string
	DepartmentID            uuid.UUID
	Category                string
	RegistrationStartDate   time.Time
	RegistrationEndDate     time.Time
	StartDate               time.Time
	EndDate                 time.Time
	StartTime               string
	EndTime                 string
	NumberOfDays            int
	MaxParticipants         int
	Mode                    models.EventMode
	Venue                   string
	CollaboratedDepartments []uuid.UUID
	Budget                  string
	BudgetAmount            float64
	Certificate             bool
}

// EditInput holds optional event fields; nil leaves a field unchanged.
type EditInput struct {
	Title                   *string
	Description             *string
	Tags                    *[]string
	DepartmentID            *uuid.UUID
	Category                *string
	RegistrationStartDate   *time.Time
	RegistrationEndDate     *time.Time
	StartDate               *time.Time
	EndDate                 *time.Time
	StartTime               *string
	EndTime                 *string
	NumberOfDays            *int
	MaxParticipants         *int
	Mode                    *models.EventMode
	Venue                   *string
	CollaboratedDepartments *[]uuid.UUID
	Budget                  *string
	BudgetAmount            *float64
	Certificate             *bool
	ApprovalStatus          *models.EventStatus
	Remarks                 *string
	Summary                 *string
}

// Registration is the result of Register.
type Registration struct {
	ParticipantType models.ParticipantType `json:"participant_type"`
	Event           *models.Event          `json:"event"`
}

// Attendance is the result of SubmitAttendance.
type Attendance struct {
	Report *AttendanceReport `json:"report"`
	Event  *models.Event     `json:"event"`
}

// Create proposes an event hosted by a department the actor administers. It starts Pending.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, in CreateInput) (*models.Event, error) {
	e := &models.Event{
		Title:                 strings.TrimSpace(in.Title),
		Description:           in.Description,
		Tags:                  trimTags(in.Tags),
		DepartmentID:          in.DepartmentID,
		Category:              strings.TrimSpace(in.Category),
		RegistrationStartDate: in.RegistrationStartDate,
		RegistrationEndDate:   in.RegistrationEndDate,
		StartDate:             in.StartDate,
		EndDate:               in.EndDate,
		StartTime:             in.StartTime,
		EndTime:               in.EndTime,
		NumberOfDays:          in.NumberOfDays,
		MaxParticipants:       in.MaxParticipants,
		Mode:                  in.Mode,
		Venue:                 in.Venue,
		Budget:                in.Budget,
		BudgetAmount:          in.BudgetAmount,
		Certificate:           in.Certificate,
		ProposedBy:            actorID,
		ApprovalStatus:        models.EventPending,
		InternalParticipants:  models.IDs{},
		ExternalParticipants:  models.IDs{},
		AttendedParticipants:  models.IDs{},
	}
	e.CollaboratedDepartments = normalizeCollaborators(in.CollaboratedDepartments, e.DepartmentID)
	if e.Title == "" {
		return nil, apperr.Validation("title is required").WithCode("missing_fields")
	}
	if len(e.Tags) == 0 {
		return nil, apperr.Validation("tags must be a non-empty list").WithCode("tags_required")
	}
	if err := validateFields(e); err != nil {
		return nil, err
	}
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		dept, err := getDept(ctx, tx, e.DepartmentID)
		if err != nil {
			return err
		}
		actor, err := access.Load(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := actor.RequireDeptAdmin(ctx, tx, dept); err != nil {
			return err
		}
		if err := validateCategory(dept, e.Category); err != nil {
			return err
		}
		if err := requireDepartments(ctx, tx, e.CollaboratedDepartments); err != nil {
			return err
		}
		if err := tx.CreateEvent(ctx, e); err != nil {
			return apperr.Internal(err, "create event")
		}
		if err := Diff(nil, e.HostDepartments()).apply(ctx, tx, e.ID); err != nil {
			return err
		}
		return moveOrganization(ctx, tx, e.ID, nil, dept.OrganizationID)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Edit applies partial changes to an event that is not Freezed. Status changes go through the state machine
// and require an admin of the hosting organization.
func (s *Service) Edit(ctx context.Context, actorID, eventID uuid.UUID, in EditInput) (*models.Event, error) {
	var (
		updated *models.Event
		from    models.EventStatus
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		current, err := getEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if current.ApprovalStatus == models.EventFreezed {
			return apperr.InvalidTransition("a frozen event cannot be edited").WithCode("event_frozen")
		}
		from = current.ApprovalStatus
		dept, err := getDept(ctx, tx, current.DepartmentID)
		if err != nil {
			return err
		}
		actor, err := access.Load(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := actor.RequireDeptAdmin(ctx, tx, dept); err != nil {
			return err
		}

		next := current.Clone()
		merge(&next, in)
		next.CollaboratedDepartments = normalizeCollaborators(next.CollaboratedDepartments, next.DepartmentID)
		if next.Title == "" {
			return apperr.Validation("title cannot be empty").WithCode("missing_fields")
		}
		if err := validateFields(&next); err != nil {
			return err
		}
		if next.MaxParticipants < current.RegistrantCount() {
			return apperr.Validation("capacity cannot drop below the %d registered participants", current.RegistrantCount()).
				WithCode("capacity_below_registrations")
		}

		target := dept
		if next.DepartmentID != current.DepartmentID {
			target, err = getDept(ctx, tx, next.DepartmentID)
			if err != nil {
				return err
			}
			if err := actor.RequireDeptAdmin(ctx, tx, target); err != nil {
				return err
			}
		}
		if next.DepartmentID != current.DepartmentID || next.Category != current.Category {
			if err := validateCategory(target, next.Category); err != nil {
				return err
			}
		}
		if in.CollaboratedDepartments != nil {
			if err := requireDepartments(ctx, tx, next.CollaboratedDepartments.Minus(current.CollaboratedDepartments)); err != nil {
				return err
			}
		}

		if in.ApprovalStatus != nil && *in.ApprovalStatus != current.ApprovalStatus {
			if err := actor.RequireOrgAdminOfDept(ctx, tx, target); err != nil {
				return err
			}
			if *in.ApprovalStatus == models.EventFreezed {
				return apperr.InvalidTransition("an event is frozen only by submitting its attendance").WithCode("freeze_requires_attendance")
			}
			if err := transition(&next, *in.ApprovalStatus, actorID, strings.TrimSpace(next.Remarks)); err != nil {
				return err
			}
		}

		if err := Diff(current.HostDepartments(), next.HostDepartments()).apply(ctx, tx, next.ID); err != nil {
			return err
		}
		if err := moveOrganization(ctx, tx, next.ID, dept.OrganizationID, target.OrganizationID); err != nil {
			return err
		}
		if err := tx.UpdateEvent(ctx, &next); err != nil {
			return translate(err, "update event")
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	if updated.ApprovalStatus != from {
		s.metrics.Transition(string(from), string(updated.ApprovalStatus))
	}
	store.Notify(ctx, s.changes)
	return updated, nil
}

// Delete removes an event and its references from departments and the organization.
func (s *Service) Delete(ctx context.Context, actorID, eventID uuid.UUID) error {
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		e, err := getEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		actor, err := access.Load(ctx, tx, actorID)
		if err != nil {
			return err
		}
		var orgID *uuid.UUID
		dept, err := tx.GetDepartment(ctx, e.DepartmentID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			if err := actor.RequireSuperAdmin(); err != nil {
				return err
			}
		case err != nil:
			return apperr.Internal(err, "load department")
		default:
			if err := actor.RequireDeptAdmin(ctx, tx, dept); err != nil {
				return err
			}
			orgID = dept.OrganizationID
		}
		if err := Diff(e.HostDepartments(), nil).apply(ctx, tx, e.ID); err != nil {
			return err
		}
		if err := moveOrganization(ctx, tx, e.ID, orgID, nil); err != nil {
			return err
		}
		return translate(tx.DeleteEvent(ctx, e.ID), "delete event")
	})
	if err != nil {
		return err
	}
	store.Notify(ctx, s.changes)
	return nil
}

// Approve moves a Pending event to Approved. Empty remarks default to DefaultApprovalRemarks.
func (s *Service) Approve(ctx context.Context, actorID, eventID uuid.UUID, remarks string) (*models.Event, error) {
	return s.decide(ctx, actorID, eventID, models.EventApproved, remarks)
}

// Reject moves a Pending event to Rejected. remarks must be non-empty.
func (s *Service) Reject(ctx context.Context, actorID, eventID uuid.UUID, remarks string) (*models.Event, error) {
	return s.decide(ctx, actorID, eventID, models.EventRejected, remarks)
}

func (s *Service) decide(ctx context.Context, actorID, eventID uuid.UUID, to models.EventStatus, remarks string) (*models.Event, error) {
	remarks = strings.TrimSpace(remarks)
	if to == models.EventRejected && remarks == "" {
		return nil, apperr.Validation("remarks are required when rejecting an event").WithCode("remarks_required")
	}
	var e *models.Event
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		e, err = getEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if err := s.requireOrgAdminOfEvent(ctx, tx, actorID, e); err != nil {
			return err
		}
		if err := transition(e, to, actorID, remarks); err != nil {
			return err
		}
		return translate(tx.UpdateEvent(ctx, e), "update event")
	})
	if err != nil {
		return nil, err
	}
	s.metrics.Transition(string(models.EventPending), string(to))
	store.Notify(ctx, s.changes)
	return e, nil
}

// Register adds the actor to an Approved event while registration is open and seats remain.
func (s *Service) Register(ctx context.Context, actorID, eventID uuid.UUID) (*Registration, error) {
	var reg *Registration
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		e, err := getEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if e.ApprovalStatus != models.EventApproved {
			return apperr.InvalidTransition("cannot register for an event that is %s", e.ApprovalStatus).WithCode("not_approved")
		}
		if s.now().After(e.RegistrationEndDate) {
			return apperr.Validation("registration deadline has passed").WithCode("registration_closed")
		}
		if e.IsRegistered(actorID) {
			return errAlreadyRegistered()
		}
		if e.RegistrantCount() >= e.MaxParticipants {
			return errAtCapacity()
		}
		user, err := tx.GetUser(ctx, actorID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		if err != nil {
			return apperr.Internal(err, "load user")
		}
		kind := Classify(user, e)
		ok, err := tx.AddRegistrant(ctx, e.ID, user.ID, kind)
		if err != nil {
			return translate(err, "register participant")
		}
		if !ok {
			fresh, err := getEvent(ctx, tx, eventID)
			if err != nil {
				return err
			}
			if fresh.IsRegistered(actorID) {
				return errAlreadyRegistered()
			}
			return errAtCapacity()
		}
		e, err = getEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		reg = &Registration{ParticipantType: kind, Event: e}
		return nil
	})
	s.metrics.Registration(registrationOutcome(err))
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Classify reports whether u registers as internal, meaning a member of a hosting department.
func Classify(u *models.User, e *models.Event) models.ParticipantType {
	if u.Departments.Intersects(e.HostDepartments()) {
		return models.ParticipantInternal
	}
	return models.ParticipantExternal
}

func errAlreadyRegistered() error {
	return apperr.Conflict("you are already registered for this event").WithCode("already_registered")
}

func errAtCapacity() error {
	return apperr.Conflict("event has reached maximum participant capacity").WithCode("at_capacity")
}

func registrationOutcome(err error) string {
	if err == nil {
		return "registered"
	}
	switch code := apperr.CodeOf(err); code {
	case "not_approved", "registration_closed", "already_registered", "at_capacity":
		return code
	}
	return "error"
}

// Deregister removes the actor from an event once its registration period has started.
func (s *Service) Deregister(ctx context.Context, actorID, eventID uuid.UUID) (*models.Event, error) {
	var e *models.Event
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		e, err = getEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if e.ApprovalStatus == models.EventFreezed {
			return apperr.InvalidTransition("attendance for this event is final").WithCode("event_frozen")
		}
		if s.now().Before(e.RegistrationStartDate) {
			return apperr.Validation("registration period has not started yet").WithCode("registration_not_started")
		}
		var removed bool
		if e.InternalParticipants, removed = e.InternalParticipants.Remove(actorID); !removed {
			e.ExternalParticipants, removed = e.ExternalParticipants.Remove(actorID)
		}
		if !removed {
			return apperr.Conflict("you are not registered for this event").WithCode("not_registered")
		}
		return translate(tx.UpdateEvent(ctx, e), "deregister participant")
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// SubmitAttendance reconciles claims against the registrants of an Approved event, records the summary
// and freezes the event.
func (s *Service) SubmitAttendance(ctx context.Context, actorID, eventID uuid.UUID, claims []string, summary string) (*Attendance, error) {
	var out *Attendance
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		e, err := getEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if err := s.requireHostAdmin(ctx, tx, actorID, e); err != nil {
			return err
		}
		if !CanTransition(e.ApprovalStatus, models.EventFreezed) {
			return apperr.InvalidTransition("attendance can only be submitted for an approved event, this one is %s", e.ApprovalStatus).
				WithCode("not_approved")
		}
		valid, _, _ := PartitionClaims(claims)
		users, err := tx.GetUsersByEmails(ctx, valid)
		if err != nil {
			return apperr.Internal(err, "resolve attendance emails")
		}
		resolved := make(map[string]uuid.UUID, len(users))
		for _, u := range users {
			resolved[strings.ToLower(u.Email)] = u.ID
		}
		report := Reconcile(claims, resolved, e)
		e.AttendedParticipants = report.Attended()
		e.Summary = summary
		if err := transition(e, models.EventFreezed, actorID, ""); err != nil {
			return err
		}
		if err := tx.UpdateEvent(ctx, e); err != nil {
			return translate(err, "freeze event")
		}
		out = &Attendance{Report: report, Event: e}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.Transition(string(models.EventApproved), string(models.EventFreezed))
	s.metrics.Attendance("present", out.Report.MarkedPresent)
	s.metrics.Attendance("invalid", len(out.Report.InvalidEmails))
	s.metrics.Attendance("unregistered", len(out.Report.UnregisteredEmails))
	store.Notify(ctx, s.changes)
	return out, nil
}

// Get returns an event to an admin of one of its hosting departments or their organizations.
func (s *Service) Get(ctx context.Context, actorID, eventID uuid.UUID) (*models.Event, error) {
	var e *models.Event
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		e, err = getEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		return s.requireHostAdmin(ctx, tx, actorID, e)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// List returns every event, newest first.
func (s *Service) List(ctx context.Context) ([]models.Event, error) {
	return s.list(ctx, store.EventFilter{})
}

// ListByDepartment returns the events whose primary department is deptID, newest first.
func (s *Service) ListByDepartment(ctx context.Context, deptID uuid.UUID) ([]models.Event, error) {
	return s.list(ctx, store.EventFilter{DepartmentIDs: []uuid.UUID{deptID}})
}

// ListForOrgAdmin returns the events of departments in organizations the actor administers.
func (s *Service) ListForOrgAdmin(ctx context.Context, actorID uuid.UUID) ([]models.Event, error) {
	var list []models.Event
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		orgs, err := tx.ListOrganizationsByAdmin(ctx, actorID)
		if err != nil {
			return apperr.Internal(err, "list organizations")
		}
		if len(orgs) == 0 {
			return apperr.Forbidden("you are not an admin of any organization")
		}
		var depts models.IDs
		for _, o := range orgs {
			for _, id := range o.Departments {
				depts, _ = depts.Add(id)
			}
		}
		if len(depts) == 0 {
			return nil
		}
		list, err = tx.ListEvents(ctx, store.EventFilter{DepartmentIDs: depts})
		return translate(err, "list events")
	})
	if err != nil {
		return nil, err
	}
	return newestFirst(list), nil
}

func (s *Service) list(ctx context.Context, f store.EventFilter) ([]models.Event, error) {
	var list []models.Event
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		list, err = tx.ListEvents(ctx, f)
		return translate(err, "list events")
	})
	if err != nil {
		return nil, err
	}
	return newestFirst(list), nil
}

func newestFirst(list []models.Event) []models.Event {
	out := make([]models.Event, len(list))
	for i, e := range list {
		out[len(list)-1-i] = e
	}
	return out
}

func (s *Service) requireOrgAdminOfEvent(ctx context.Context, tx store.Tx, actorID uuid.UUID, e *models.Event) error {
	actor, err := access.Load(ctx, tx, actorID)
	if err != nil {
		return err
	}
	dept, err := getDept(ctx, tx, e.DepartmentID)
	if err != nil {
		return err
	}
	return actor.RequireOrgAdminOfDept(ctx, tx, dept)
}

// requireHostAdmin passes for admins of the primary or a collaborating department and their organizations.
func (s *Service) requireHostAdmin(ctx context.Context, tx store.Tx, actorID uuid.UUID, e *models.Event) error {
	actor, err := access.Load(ctx, tx, actorID)
	if err != nil {
		return err
	}
	if actor.IsSuperAdmin() {
		return nil
	}
	for _, id := range e.HostDepartments() {
		dept, err := tx.GetDepartment(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return apperr.Internal(err, "load department")
		}
		if actor.RequireDeptAdmin(ctx, tx, dept) == nil {
			return nil
		}
	}
	return apperr.Forbidden("you are not an admin of a department hosting this event")
}

func merge(e *models.Event, in EditInput) {
	if in.Title != nil {
		e.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.Tags != nil {
		e.Tags = trimTags(*in.Tags)
	}
	if in.DepartmentID != nil {
		e.DepartmentID = *in.DepartmentID
	}
	if in.Category != nil {
		e.Category = strings.TrimSpace(*in.Category)
	}
	if in.RegistrationStartDate != nil {
		e.RegistrationStartDate = *in.RegistrationStartDate
	}
	if in.RegistrationEndDate != nil {
		e.RegistrationEndDate = *in.RegistrationEndDate
	}
	if in.StartDate != nil {
		e.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		e.EndDate = *in.EndDate
	}
	if in.StartTime != nil {
		e.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		e.EndTime = *in.EndTime
	}
	if in.NumberOfDays != nil {
		e.NumberOfDays = *in.NumberOfDays
	}
	if in.MaxParticipants != nil {
		e.MaxParticipants = *in.MaxParticipants
	}
	if in.Mode != nil {
		e.Mode = *in.Mode
	}
	if in.Venue != nil {
		e.Venue = *in.Venue
	}
	if in.CollaboratedDepartments != nil {
		e.CollaboratedDepartments = models.IDs(*in.CollaboratedDepartments).Clone()
	}
	if in.Budget != nil {
		e.Budget = *in.Budget
	}
	if in.BudgetAmount != nil {
		e.BudgetAmount = *in.BudgetAmount
	}
	if in.Certificate != nil {
		e.Certificate = *in.Certificate
	}
	if in.Remarks != nil {
		e.Remarks = *in.Remarks
	}
	if in.Summary != nil {
		e.Summary = *in.Summary
	}
}

// validateFields checks the schedule ordering, capacity and mode of e.
func validateFields(e *models.Event) error {
	if e.RegistrationStartDate.IsZero() || e.RegistrationEndDate.IsZero() || e.StartDate.IsZero() || e.EndDate.IsZero() {
		return apperr.Validation("registration and event dates are required").WithCode("missing_fields")
	}
	if e.RegistrationStartDate.After(e.RegistrationEndDate) || e.StartDate.After(e.EndDate) {
		return apperr.Validation("invalid date range").WithCode("invalid_date_range")
	}
	if e.RegistrationEndDate.After(e.StartDate) {
		return apperr.Validation("registration should end before the event starts").WithCode("registration_after_start")
	}
	if e.MaxParticipants <= 0 {
		return apperr.Validation("max participants must be positive").WithCode("invalid_capacity")
	}
	if !e.Mode.Valid() {
		return apperr.Validation("mode must be Online, Offline or Hybrid").WithCode("invalid_mode")
	}
	if e.NumberOfDays < 0 || e.BudgetAmount < 0 {
		return apperr.Validation("number of days and budget amount cannot be negative")
	}
	return nil
}

func validateCategory(dept *models.Department, category string) error {
	if category == "" || !dept.Categories.Has(category) {
		return apperr.Validation("invalid or unapproved category for this department").WithCode("invalid_category")
	}
	return nil
}

func requireDepartments(ctx context.Context, tx store.Tx, ids models.IDs) error {
	var missing []string
	for _, id := range ids {
		_, err := tx.GetDepartment(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			missing = append(missing, id.String())
			continue
		}
		if err != nil {
			return apperr.Internal(err, "load department")
		}
	}
	if len(missing) > 0 {
		return apperr.Validation("one or more collaborating departments not found").
			WithCode("unknown_departments").
			WithDetail("departments", missing)
	}
	return nil
}

func normalizeCollaborators(ids []uuid.UUID, primary uuid.UUID) models.IDs {
	out, _ := models.IDs(ids).Dedup().Remove(primary)
	return out
}

func trimTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEvent(ctx context.Context, tx store.Tx, id uuid.UUID) (*models.Event, error) {
	e, err := tx.GetEvent(ctx, id)
	if err != nil {
		return nil, translate(err, "load event")
	}
	return e, nil
}

func getDept(ctx context.Context, tx store.Tx, id uuid.UUID) (*models.Department, error) {
	d, err := tx.GetDepartment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("department not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "load department")
	}
	return d, nil
}

func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound("event not found")
	default:
		return apperr.Internal(err, "%s", op)
	}
}
