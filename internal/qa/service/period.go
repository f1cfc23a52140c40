package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/agrilink/agrilink/internal/config"
	qadomain "github.com/agrilink/agrilink/internal/qa/domain"
	"github.com/agrilink/agrilink/pkg/validation"
)

// resolveWindow applies the configured defaults to the query's range and threshold.
// A bare date in "to" covers that whole UTC day.
func resolveWindow(q qadomain.KPIQuery, now time.Time, qa config.QAConfig) (qadomain.Period, float64, error) {
	to := now.UTC()
	if raw := strings.TrimSpace(q.To); raw != "" {
		parsed, err := validation.ParseTime(raw)
		if err != nil {
			return qadomain.Period{}, 0, validation.NewError("to", "isotime", "to must be an ISO-8601 datetime")
		}
		to = parsed
		if isDateOnly(raw) {
			to = parsed.Add(24*time.Hour - time.Nanosecond)
		}
	}

	from := to.Add(-qa.DefaultWindow())
	if raw := strings.TrimSpace(q.From); raw != "" {
		parsed, err := validation.ParseTime(raw)
		if err != nil {
			return qadomain.Period{}, 0, validation.NewError("from", "isotime", "from must be an ISO-8601 datetime")
		}
		from = parsed
	}
	if from.After(to) {
		return qadomain.Period{}, 0, validation.NewError("from", "range", "from must not be after to")
	}

	threshold := qa.TempThreshold
	if raw := strings.TrimSpace(q.TempThreshold); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return qadomain.Period{}, 0, validation.NewError("tempThreshold", "numeric", "tempThreshold must be a number")
		}
		threshold = parsed
	}

	return qadomain.Period{From: from, To: to}, threshold, nil
}

func isDateOnly(raw string) bool {
	_, err := time.Parse(time.DateOnly, raw)
	return err == nil
}
