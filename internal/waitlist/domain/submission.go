package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the audience segment a visitor picks on the waitlist form.
type Role string

const (
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
	RoleCompany Role = "company"
)

// Roles lists the accepted roles in display order.
var Roles = []Role{RoleStudent, RoleParent, RoleCompany}

var roleNames = map[Role]string{
	RoleStudent: "Студент",
	RoleParent:  "Родитель",
	RoleCompany: "Компания",
}

// ParseRole normalises raw input and reports whether it names a known role.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	_, ok := roleNames[role]
	return role, ok
}

// DisplayName returns the Russian label shown to admins; unknown roles render as-is.
func (r Role) DisplayName() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return string(r)
}

func (r Role) String() string {
	return string(r)
}

// DescriptionPlaceholder replaces an empty description in notifications.
const DescriptionPlaceholder = "Не указано"

// FormInput is the raw form state captured at submit time.
type FormInput struct {
	Name        string
	Email       string
	Role        string
	Description string
	Honeypot    string
	Human       bool
}

// RequestMeta carries the browsing context attached to a submission.
type RequestMeta struct {
	UserAgent string
	Referrer  string
	URL       string
}

// SubmissionRecord is one waitlist signup attempt. It is built once per submit
// and passed by value; nothing stores it.
type SubmissionRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	Description string    `json:"description"`
	Honeypot    string    `json:"honeypot"`
	Human       bool      `json:"human"`
	Timestamp   time.Time `json:"timestamp"`
	UserAgent   string    `json:"userAgent"`
	Referrer    string    `json:"referrer"`
	URL         string    `json:"url"`
}

// NewSubmission trims the form input and stamps it with the submit time and metadata.
func NewSubmission(input FormInput, meta RequestMeta, now time.Time) SubmissionRecord {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = DescriptionPlaceholder
	}
	role, _ := ParseRole(input.Role)
	return SubmissionRecord{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(input.Name),
		Email:       strings.TrimSpace(input.Email),
		Role:        role,
		Description: description,
		Honeypot:    strings.TrimSpace(input.Honeypot),
		Human:       input.Human,
		Timestamp:   now.UTC(),
		UserAgent:   meta.UserAgent,
		Referrer:    meta.Referrer,
		URL:         meta.URL,
	}
}

// TimestampISO renders the submit time the way browsers print Date.toISOString.
func (r SubmissionRecord) TimestampISO() string {
	return r.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z")
}
