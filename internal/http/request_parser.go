package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/services"
)

const maxListLimit = 1000

// parseMonth reads an optional YYYY-MM parameter; empty stays empty so the
// service picks the current month.
func parseMonth(query url.Values, key string) (core.MonthKey, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return "", nil
	}
	return core.ParseMonthKey(v)
}

func parsePeriod(query url.Values) (analytics.Period, error) {
	p, err := analytics.ParsePeriod(strings.ToLower(strings.TrimSpace(query.Get("period"))))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errMalformed, err)
	}
	return p, nil
}

// parsePositiveInt returns def when the parameter is absent.
func parsePositiveInt(query url.Values, key string, def, max int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errMalformed, key)
	}
	if max > 0 && n > max {
		n = max
	}
	return n, nil
}

func parseTransactionFilter(query url.Values) (services.TransactionFilter, error) {
	month, err := parseMonth(query, "month")
	if err != nil {
		return services.TransactionFilter{}, err
	}
	typ := core.TransactionType(strings.ToLower(strings.TrimSpace(query.Get("type"))))
	if typ != "" && !typ.Valid() {
		return services.TransactionFilter{}, core.ErrInvalidType
	}
	limit, err := parsePositiveInt(query, "limit", 0, maxListLimit)
	if err != nil {
		return services.TransactionFilter{}, err
	}
	return services.TransactionFilter{
		Month:      month,
		Type:       typ,
		CategoryID: strings.TrimSpace(query.Get("category")),
		Limit:      limit,
	}, nil
}
