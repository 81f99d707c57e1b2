package db

import (
	"strconv"
	"strings"
	"time"
)

// ToPostgresDate maps a caller-supplied "YYYY-MM" string to the complete
// "YYYY-MM-01" form SQL DATE columns accept. Already-complete
// "YYYY-MM-DD" strings pass through unchanged, as does any other
// non-empty string (the storage layer rejects garbage). Nil or empty
// input maps to nil. Total and idempotent.
func ToPostgresDate(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	if isYearMonth(*s) {
		full := *s + "-01"
		return &full
	}
	return s
}

func isYearMonth(s string) bool {
	if len(s) != 7 || s[4] != '-' {
		return false
	}
	for i, c := range s {
		if i == 4 {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// DateFromString normalizes a caller-supplied date string through
// ToPostgresDate and parses it into a Date. Strings that do not resolve
// to a complete date ("present", free text) map to nil.
func DateFromString(s *string) *Date {
	normalized := ToPostgresDate(s)
	if normalized == nil {
		return nil
	}
	t, err := time.Parse("2006-01-02", *normalized)
	if err != nil {
		return nil
	}
	return &Date{Time: t}
}

// ToPgVector renders an embedding as the bracketed comma-joined text form
// the pgvector extension accepts: "[a,b,c]" with no spaces and no
// trailing separator. An empty slice renders as "[]".
func ToPgVector(values []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range values {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
