package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/autoumpire/internal/model"
)

// ErrRequired is returned when a required answer is missing.
var ErrRequired = errors.New("an answer is required")

// Validate checks an answer against its component. Renderers re-ask on
// failure.
func Validate(c Component, v any) error {
	switch c := c.(type) {
	case Text:
		s, _ := v.(string)
		if c.Required && strings.TrimSpace(s) == "" {
			return ErrRequired
		}
		if c.Validate != nil {
			return c.Validate(s)
		}
	case Datetime:
		if !c.Optional {
			if t, ok := v.(time.Time); !ok || t.IsZero() {
				return fmt.Errorf("%w: %s", model.ErrInvalidDatetime, c.Title)
			}
		}
	case PseudonymList:
		entries, _ := v.([]PseudonymEntry)
		if len(entries) == 0 || strings.TrimSpace(entries[0].Name) == "" {
			return model.ErrBlankPseudonym
		}
		if entries[0].ValidFrom != nil {
			return model.ErrInitialPseudonym
		}
	case Searchable:
		return Validate(c.Component, v)
	}
	return nil
}

// ParseDatetime parses a typed datetime in loc. Blank input gives nil.
func ParseDatetime(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DatetimeLayout, s, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %q, use %s", model.ErrInvalidDatetime, s, DatetimeLayout)
	}
	return &t, nil
}

// ParseInteger parses a typed integer. Blank input gives nil.
func ParseInteger(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidInteger, s)
	}
	return &n, nil
}

// ParseFloat parses a typed number.
func ParseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", model.ErrInvalidFloat, s)
	}
	return f, nil
}

// FormatDatetime formats t the way ParseDatetime reads it.
func FormatDatetime(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DatetimeLayout)
}
