package validation

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"ms-events/internal/models"
)

// Error reports every violated field with one message each.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ValidatedCreate is a fully typed, defaulted create payload safe to hand
// to the store service.
type ValidatedCreate struct {
	Title       string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Location    string
	CoverImage  *string
	Status      models.EventStatus
	IsFeatured  bool
}

// ValidatedUpdate carries only the fields the caller supplied; nil means
// the store must leave the column untouched.
type ValidatedUpdate struct {
	Title       *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Location    *string
	CoverImage  *string
	Status      *models.EventStatus
	IsFeatured  *bool
}

const (
	maxTitleLen       = 255
	minDescriptionLen = 10
)

// ValidateCreate checks every field of a create payload and applies the
// create-time defaults (status draft, isFeatured false).
func ValidateCreate(in models.CreateEventInput) (*ValidatedCreate, error) {
	fields := make(map[string]string)

	title := checkTitle(in.Title, fields)
	description := checkDescription(in.Description, fields)
	location := checkLocation(in.Location, fields)
	startDate := checkDate("startDate", in.StartDate, fields)
	endDate := checkDate("endDate", in.EndDate, fields)

	if _, ok := fields["startDate"]; !ok {
		if _, ok := fields["endDate"]; !ok && !endDate.After(startDate) {
			fields["endDate"] = "endDate must be after startDate"
		}
	}

	coverImage := checkCoverImage(in.CoverImage, fields)

	status := models.StatusDraft
	if in.Status != nil {
		status = checkStatus(*in.Status, fields)
	}

	isFeatured := false
	if in.IsFeatured != nil {
		isFeatured = *in.IsFeatured
	}

	if len(fields) > 0 {
		return nil, &Error{Fields: fields}
	}

	return &ValidatedCreate{
		Title:       title,
		Description: description,
		StartDate:   startDate,
		EndDate:     endDate,
		Location:    location,
		CoverImage:  coverImage,
		Status:      status,
		IsFeatured:  isFeatured,
	}, nil
}

// ValidateUpdate checks only the supplied fields and injects no defaults.
// The cross-field date rule is not checked here when a single date is
// supplied; the store service re-checks it against the merged record.
func ValidateUpdate(in models.UpdateEventInput) (*ValidatedUpdate, error) {
	fields := make(map[string]string)
	out := &ValidatedUpdate{}

	if in.Title != nil {
		title := checkTitle(*in.Title, fields)
		out.Title = &title
	}
	if in.Description != nil {
		description := checkDescription(*in.Description, fields)
		out.Description = &description
	}
	if in.Location != nil {
		location := checkLocation(*in.Location, fields)
		out.Location = &location
	}
	if in.StartDate != nil {
		startDate := checkDate("startDate", *in.StartDate, fields)
		out.StartDate = &startDate
	}
	if in.EndDate != nil {
		endDate := checkDate("endDate", *in.EndDate, fields)
		out.EndDate = &endDate
	}
	if out.StartDate != nil && out.EndDate != nil {
		if _, ok := fields["startDate"]; !ok {
			if _, ok := fields["endDate"]; !ok && !out.EndDate.After(*out.StartDate) {
				fields["endDate"] = "endDate must be after startDate"
			}
		}
	}
	if in.CoverImage != nil {
		out.CoverImage = checkCoverImage(in.CoverImage, fields)
	}
	if in.Status != nil {
		status := checkStatus(*in.Status, fields)
		out.Status = &status
	}
	if in.IsFeatured != nil {
		out.IsFeatured = in.IsFeatured
	}

	if len(fields) > 0 {
		return nil, &Error{Fields: fields}
	}
	return out, nil
}

func checkTitle(title string, fields map[string]string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		fields["title"] = "Title is required"
	} else if utf8.RuneCountInString(title) > maxTitleLen {
		fields["title"] = "Title is too long"
	}
	return title
}

func checkDescription(description string, fields map[string]string) string {
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) < minDescriptionLen {
		fields["description"] = "Description must be at least 10 characters"
	}
	return description
}

func checkLocation(location string, fields map[string]string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		fields["location"] = "Location is required"
	}
	return location
}

func checkDate(field, value string, fields map[string]string) time.Time {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		fields[field] = field + " must be a valid RFC3339 timestamp"
	}
	return parsed
}

// checkCoverImage treats "" as unset. Anything else must be an absolute
// https URL; plain http and relative paths are rejected.
func checkCoverImage(coverImage *string, fields map[string]string) *string {
	if coverImage == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*coverImage)
	if trimmed == "" {
		return nil
	}
	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		fields["coverImage"] = "coverImage must be an absolute https URL"
		return nil
	}
	return &trimmed
}

func checkStatus(status string, fields map[string]string) models.EventStatus {
	switch models.EventStatus(status) {
	case models.StatusDraft, models.StatusPublished:
		return models.EventStatus(status)
	default:
		fields["status"] = "status must be either draft or published"
		return models.StatusDraft
	}
}
