package domain

import (
	"strings"
	"time"
)

const dateOnly = "2006-01-02"

// ParseDate accepts an RFC 3339 timestamp or a plain YYYY-MM-DD date
// (midnight UTC).
func ParseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(dateOnly, value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, InvalidArgumentf("%s must be an RFC 3339 timestamp or a YYYY-MM-DD date", field)
}

// ParseOptionalDate parses value when it is non-nil and non-empty.
func ParseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, err := ParseDate(field, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Page is a 1-based page request.
type Page struct {
	Number int64
	Size   int64
}

// Offset returns the number of items before the page.
func (p Page) Offset() int64 {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// DateRange bounds a timestamp field; nil ends are open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether t falls inside the range, ends included.
func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

func emptyToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
