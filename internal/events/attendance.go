package events

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/eventgrid/backend/internal/models"
)

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s has the shape local@domain.tld.
func ValidEmail(s string) bool {
	return emailShape.MatchString(s)
}

// AttendanceReport is the outcome of reconciling attendance claims against an event.
type AttendanceReport struct {
	Submitted          int      `json:"submitted"`
	MarkedPresent      int      `json:"marked_present"`
	InvalidEmails      []string `json:"invalid_emails"`
	UnregisteredEmails []string `json:"unregistered_emails"`

	attended models.IDs
}

// Attended returns the accepted participant ids in claim order.
func (r *AttendanceReport) Attended() models.IDs {
	return r.attended
}

// PartitionClaims splits raw claims into lower-cased, de-duplicated valid emails and verbatim
// invalid entries. Blank entries are not claims.
func PartitionClaims(claims []string) (valid, invalid []string, submitted int) {
	seen := make(map[string]bool, len(claims))
	for _, raw := range claims {
		c := strings.TrimSpace(raw)
		if c == "" {
			continue
		}
		submitted++
		if !ValidEmail(c) {
			invalid = append(invalid, raw)
			continue
		}
		email := strings.ToLower(c)
		if seen[email] {
			continue
		}
		seen[email] = true
		valid = append(valid, email)
	}
	return valid, invalid, submitted
}

// Reconcile accepts a claimed email only when it resolves to a participant registered for e.
// resolved maps lower-cased email to participant id.
func Reconcile(claims []string, resolved map[string]uuid.UUID, e *models.Event) *AttendanceReport {
	valid, invalid, submitted := PartitionClaims(claims)
	r := &AttendanceReport{
		Submitted:          submitted,
		InvalidEmails:      nonNilStrings(invalid),
		UnregisteredEmails: []string{},
		attended:           models.IDs{},
	}
	for _, email := range valid {
		id, ok := resolved[email]
		if ok && e.IsRegistered(id) {
			r.attended, _ = r.attended.Add(id)
			continue
		}
		r.UnregisteredEmails = append(r.UnregisteredEmails, email)
	}
	r.MarkedPresent = len(r.attended)
	return r
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
