package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"household/internal/money"
)

var (
	errInvalidAmount = errors.New("invalid amount")
	errInvalidDate   = errors.New("date must be YYYY-MM-DD or RFC 3339")
	errInvalidMonth  = errors.New("month must be YYYY-MM")
)

const dateLayout = "2006-01-02"

func parseAmountMinor(raw string) (int64, error) {
	amount, err := money.ParsePositiveMinor(raw)
	if err != nil {
		return 0, errInvalidAmount
	}
	return amount, nil
}

// parseOptionalMinor treats an empty value as zero and allows negatives.
func parseOptionalMinor(raw string) (int64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	amount, err := money.ParseMinor(raw)
	if err != nil {
		return 0, errInvalidAmount
	}
	return amount, nil
}

// parseDate returns the zero time for an empty value so services can apply
// their own default.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errInvalidDate
	}
	return t, nil
}

// parseMonth turns YYYY-MM into the half-open range [first day, next month).
func parseMonth(raw string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, time.Time{}, errInvalidMonth
	}
	return start, start.AddDate(0, 1, 0), nil
}

func parsePaging(limitRaw, offsetRaw string) (int, int) {
	limit, err := strconv.Atoi(limitRaw)
	if err != nil {
		limit = 0
	}
	offset, err := strconv.Atoi(offsetRaw)
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
