package facture

import (
	"strings"
	"time"
)

const (
	isoDateLayout     = "2006-01-02"
	displayDateLayout = "02/01/2006"
)

// FormatDisplayDate converts a loosely ISO-8601 date string into the French
// display format DD/MM/YYYY. Empty or "N/A" input yields "N/A"; a string that
// fails to parse is returned unchanged. Normalization is best-effort, not a
// validation gate.
func FormatDisplayDate(s string) string {
	if s == "" || s == "N/A" {
		return "N/A"
	}

	datePart := s
	if idx := strings.Index(s, "T"); idx >= 0 {
		datePart = s[:idx]
	}

	t, err := time.Parse(isoDateLayout, datePart)
	if err != nil {
		return s
	}
	return t.Format(displayDateLayout)
}
