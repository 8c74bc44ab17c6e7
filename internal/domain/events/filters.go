package events

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/zeelus/server/internal/validation"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type FilterError struct {
	Field   string
	Message string
}

func (e FilterError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ParseFilters reads list filters from query parameters. Unparseable
// paging values fall back to their defaults; out-of-range values are
// clamped.
func ParseFilters(values url.Values) (Filters, error) {
	filters := Filters{
		Title:     strings.TrimSpace(values.Get("title")),
		StartTime: strings.TrimSpace(values.Get("start_time")),
		EndTime:   strings.TrimSpace(values.Get("end_time")),
		Limit:     parsePositive(values.Get("limit"), DefaultLimit),
		Page:      parsePositive(values.Get("page"), 1),
	}
	if filters.Limit > MaxLimit {
		filters.Limit = MaxLimit
	}

	if filters.StartTime != "" && !validation.IsClock(filters.StartTime) {
		return Filters{}, FilterError{Field: "start_time", Message: "must be HH:mm"}
	}
	if filters.EndTime != "" && !validation.IsClock(filters.EndTime) {
		return Filters{}, FilterError{Field: "end_time", Message: "must be HH:mm"}
	}

	if raw := strings.TrimSpace(values.Get("start_date")); raw != "" {
		date, err := validation.ParseDate(raw)
		if err != nil {
			return Filters{}, FilterError{Field: "start_date", Message: "must be YYYY-MM-DD"}
		}
		filters.StartDate = &date
	}
	if raw := strings.TrimSpace(values.Get("end_date")); raw != "" {
		date, err := validation.ParseDate(raw)
		if err != nil {
			return Filters{}, FilterError{Field: "end_date", Message: "must be YYYY-MM-DD"}
		}
		filters.EndDate = &date
	}
	if filters.StartDate != nil && filters.EndDate != nil && filters.EndDate.Before(*filters.StartDate) {
		return Filters{}, FilterError{Field: "end_date", Message: "must be on or after start_date"}
	}

	return filters, nil
}

func parsePositive(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if n < 1 {
		return 1
	}
	return n
}
