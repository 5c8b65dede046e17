package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventgrid/backend/internal/middleware"
	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/pkg/response"
	"github.com/eventgrid/backend/pkg/spreadsheet"
	"github.com/eventgrid/backend/pkg/storage"
)

// MaxAttendanceUpload is the largest accepted attendance workbook (10MB).
const MaxAttendanceUpload = 10 * 1024 * 1024

// Handler handles event HTTP endpoints.
type Handler struct {
	svc     *Service
	reports *Reports
	logger  *zap.Logger
}

// NewHandler creates an events handler. reports may be nil when exports are not configured.
func NewHandler(svc *Service, reports *Reports, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, reports: reports, logger: logger}
}

// Date accepts "2006-01-02" or RFC 3339 timestamps.
type Date struct {
	time.Time
}

// UnmarshalJSON parses a quoted date.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return errors.New("dates must be YYYY-MM-DD or RFC 3339")
	}
	d.Time = t
	return nil
}

func (d *Date) ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// CreateEventRequest is the body for POST /event/create.
type CreateEventRequest struct {
	Title                   string           `json:"title" binding:"required"`
	Description             string           `json:"description"`
	Tags                    []string         `json:"tags"`
	DepartmentID            uuid.UUID        `json:"department_id" binding:"required"`
	Category                string           `json:"category" binding:"required"`
	RegistrationStartDate   Date             `json:"registration_start_date"`
	RegistrationEndDate     Date             `json:"registration_end_date"`
	StartDate               Date             `json:"start_date"`
	EndDate                 Date             `json:"end_date"`
	StartTime               string           `json:"start_time"`
	EndTime                 string           `json:"end_time"`
	NumberOfDays            int              `json:"number_of_days"`
	MaxParticipants         int              `json:"max_participants"`
	Mode                    models.EventMode `json:"mode"`
	Venue                   string           `json:"venue"`
	CollaboratedDepartments []uuid.UUID      `json:"collaborated_departments"`
	Budget                  string           `json:"budget"`
	BudgetAmount            float64          `json:"budget_amount"`
	Certificate             bool             `json:"certificate"`
}

// EditEventRequest is the body for PATCH /event/:eventId/edit.
type EditEventRequest struct {
	Title                   *string             `json:"title"`
	Description             *string             `json:"description"`
	Tags                    *[]string           `json:"tags"`
	DepartmentID            *uuid.UUID          `json:"department_id"`
	Category                *string             `json:"category"`
	RegistrationStartDate   *Date               `json:"registration_start_date"`
	RegistrationEndDate     *Date               `json:"registration_end_date"`
	StartDate               *Date               `json:"start_date"`
	EndDate                 *Date               `json:"end_date"`
	StartTime               *string             `json:"start_time"`
	EndTime                 *string             `json:"end_time"`
	NumberOfDays            *int                `json:"number_of_days"`
	MaxParticipants         *int                `json:"max_participants"`
	Mode                    *models.EventMode   `json:"mode"`
	Venue                   *string             `json:"venue"`
	CollaboratedDepartments *[]uuid.UUID        `json:"collaborated_departments"`
	Budget                  *string             `json:"budget"`
	BudgetAmount            *float64            `json:"budget_amount"`
	Certificate             *bool               `json:"certificate"`
	ApprovalStatus          *models.EventStatus `json:"approval_status"`
	Remarks                 *string             `json:"remarks"`
	Summary                 *string             `json:"summary"`
}

// RemarksRequest is the body for approve and reject.
type RemarksRequest struct {
	Remarks string `json:"remarks"`
}

// SummaryRequest is the JSON body for POST /event/:eventId/summary.
type SummaryRequest struct {
	Summary           string   `json:"summary"`
	ParticipantEmails []string `json:"participant_emails"`
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	if response.Error(c, err) {
		h.logger.Error(msg, zap.Error(err), zap.String("event_id", c.Param("eventId")))
	}
}

func eventID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /event/create.
func (h *Handler) Create(c *gin.Context) {
	var body CreateEventRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "title, department_id and category required")
		return
	}
	e, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), CreateInput{
		Title:                   body.Title,
		Description:             body.Description,
		Tags:                    body.Tags,
		DepartmentID:            body.DepartmentID,
		Category:                body.Category,
		RegistrationStartDate:   body.RegistrationStartDate.Time,
		RegistrationEndDate:     body.RegistrationEndDate.Time,
		StartDate:               body.StartDate.Time,
		EndDate:                 body.EndDate.Time,
		StartTime:               body.StartTime,
		EndTime:                 body.EndTime,
		NumberOfDays:            body.NumberOfDays,
		MaxParticipants:         body.MaxParticipants,
		Mode:                    body.Mode,
		Venue:                   body.Venue,
		CollaboratedDepartments: body.CollaboratedDepartments,
		Budget:                  body.Budget,
		BudgetAmount:            body.BudgetAmount,
		Certificate:             body.Certificate,
	})
	if err != nil {
		h.fail(c, err, "create event")
		return
	}
	response.Created(c, e)
}

// Edit handles PATCH /event/:eventId/edit.
func (h *Handler) Edit(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	var body EditEventRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	e, err := h.svc.Edit(c.Request.Context(), middleware.UserID(c), id, EditInput{
		Title:                   body.Title,
		Description:             body.Description,
		Tags:                    body.Tags,
		DepartmentID:            body.DepartmentID,
		Category:                body.Category,
		RegistrationStartDate:   body.RegistrationStartDate.ptr(),
		RegistrationEndDate:     body.RegistrationEndDate.ptr(),
		StartDate:               body.StartDate.ptr(),
		EndDate:                 body.EndDate.ptr(),
		StartTime:               body.StartTime,
		EndTime:                 body.EndTime,
		NumberOfDays:            body.NumberOfDays,
		MaxParticipants:         body.MaxParticipants,
		Mode:                    body.Mode,
		Venue:                   body.Venue,
		CollaboratedDepartments: body.CollaboratedDepartments,
		Budget:                  body.Budget,
		BudgetAmount:            body.BudgetAmount,
		Certificate:             body.Certificate,
		ApprovalStatus:          body.ApprovalStatus,
		Remarks:                 body.Remarks,
		Summary:                 body.Summary,
	})
	if err != nil {
		h.fail(c, err, "edit event")
		return
	}
	response.OK(c, e)
}

// Delete handles DELETE /event/:eventId.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		h.fail(c, err, "delete event")
		return
	}
	response.OK(c, gin.H{"message": "event deleted"})
}

// List handles GET /event/all.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, "list events")
		return
	}
	response.OK(c, list)
}

// ListForOrgAdmin handles GET /event/oall.
func (h *Handler) ListForOrgAdmin(c *gin.Context) {
	list, err := h.svc.ListForOrgAdmin(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, err, "list organization events")
		return
	}
	response.OK(c, list)
}

// ListByDepartment handles GET /event/department/:deptId.
func (h *Handler) ListByDepartment(c *gin.Context) {
	deptID, err := uuid.Parse(c.Param("deptId"))
	if err != nil {
		response.BadRequest(c, "invalid department id")
		return
	}
	list, err := h.svc.ListByDepartment(c.Request.Context(), deptID)
	if err != nil {
		h.fail(c, err, "list department events")
		return
	}
	response.OK(c, list)
}

// Get handles GET /event/:eventId.
func (h *Handler) Get(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	e, err := h.svc.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		h.fail(c, err, "get event")
		return
	}
	response.OK(c, e)
}

// Approve handles PATCH /event/:eventId/approve.
func (h *Handler) Approve(c *gin.Context) {
	h.decide(c, h.svc.Approve, "approve event")
}

// Reject handles PATCH /event/:eventId/reject.
func (h *Handler) Reject(c *gin.Context) {
	h.decide(c, h.svc.Reject, "reject event")
}

type decision func(ctx context.Context, actorID, eventID uuid.UUID, remarks string) (*models.Event, error)

func (h *Handler) decide(c *gin.Context, fn decision, msg string) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	var body RemarksRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, "invalid request body")
			return
		}
	}
	e, err := fn(c.Request.Context(), middleware.UserID(c), id, body.Remarks)
	if err != nil {
		h.fail(c, err, msg)
		return
	}
	response.OK(c, e)
}

// Register handles POST /event/:eventId/register.
func (h *Handler) Register(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	reg, err := h.svc.Register(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		h.fail(c, err, "register for event")
		return
	}
	response.OK(c, reg)
}

// Deregister handles DELETE /event/:eventId/deregister.
func (h *Handler) Deregister(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	e, err := h.svc.Deregister(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		h.fail(c, err, "deregister from event")
		return
	}
	response.OK(c, e)
}

// SubmitSummary handles POST /event/:eventId/summary. It accepts JSON, or a multipart form with an
// "excel" workbook and/or a "participant_emails" JSON list, plus "summary".
func (h *Handler) SubmitSummary(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	var (
		summary string
		claims  []string
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxAttendanceUpload)
		summary = c.PostForm("summary")
		if raw := c.PostForm("participant_emails"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &claims); err != nil {
				response.BadRequest(c, "participant_emails must be a JSON list")
				return
			}
		}
		if fh, err := c.FormFile("excel"); err == nil {
			f, err := fh.Open()
			if err != nil {
				response.BadRequest(c, "cannot read uploaded file")
				return
			}
			emails, err := spreadsheet.ReadEmails(f)
			_ = f.Close()
			if err != nil {
				response.BadRequest(c, "uploaded file must be an .xlsx workbook with an email column")
				return
			}
			claims = append(emails, claims...)
		} else if !errors.Is(err, http.ErrMissingFile) {
			response.BadRequest(c, "invalid multipart form")
			return
		}
	} else {
		var body SummaryRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, "invalid request body")
			return
		}
		summary, claims = body.Summary, body.ParticipantEmails
	}
	res, err := h.svc.SubmitAttendance(c.Request.Context(), middleware.UserID(c), id, claims, summary)
	if err != nil {
		h.fail(c, err, "submit event summary")
		return
	}
	h.logger.Info("attendance submitted",
		zap.String("event_id", id.String()),
		zap.Int("submitted", res.Report.Submitted),
		zap.Int("marked_present", res.Report.MarkedPresent))
	response.OK(c, res)
}

// Roster handles GET /event/:eventId/roster.
func (h *Handler) Roster(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	_, entries, err := h.svc.Roster(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		h.fail(c, err, "event roster")
		return
	}
	response.OK(c, entries)
}

// RequestReport handles POST /event/:eventId/report.
func (h *Handler) RequestReport(c *gin.Context) {
	if h.reports == nil {
		response.ServiceUnavailable(c, "report export is not configured")
		return
	}
	id, ok := eventID(c)
	if !ok {
		return
	}
	if err := h.reports.Request(c.Request.Context(), middleware.UserID(c), id); err != nil {
		h.fail(c, err, "request attendance report")
		return
	}
	c.JSON(http.StatusAccepted, response.Body{Success: true, Data: gin.H{"message": "attendance report queued"}})
}

// ReportURL handles GET /event/:eventId/report.
func (h *Handler) ReportURL(c *gin.Context) {
	if h.reports == nil {
		response.ServiceUnavailable(c, "report export is not configured")
		return
	}
	id, ok := eventID(c)
	if !ok {
		return
	}
	url, err := h.reports.URL(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		h.fail(c, err, "attendance report url")
		return
	}
	response.OK(c, gin.H{"url": url})
}

// AttendanceTemplate handles GET /event/template/attendance with an empty upload workbook.
func (h *Handler) AttendanceTemplate(c *gin.Context) {
	var buf bytes.Buffer
	if err := spreadsheet.WriteEmails(&buf, nil); err != nil {
		h.logger.Error("build attendance template", zap.Error(err))
		response.Internal(c, "internal server error")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="attendance.xlsx"`)
	c.Data(http.StatusOK, storage.ContentTypeXLSX, buf.Bytes())
}
