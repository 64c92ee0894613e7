package validators

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/shipfeedhq/shipfeed-backend/pkg/errors"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// feedDateLayouts are the timestamp shapes ShipStation is known to send in
// start_date/end_date parameters.
var feedDateLayouts = []string{
	"01/02/2006 15:04",
	"01/02/2006 15:04:05",
	"01/02/2006",
	time.RFC3339,
}

// ParseQueryDate parses a feed date parameter. In strict mode a malformed
// value is an error; otherwise it degrades to the zero time (no filter).
func ParseQueryDate(r *http.Request, key string, strict bool) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range feedDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	if strict {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid date parameter").WithDetails(map[string]any{"field": key, "value": raw})
	}
	return time.Time{}, nil
}
