package models

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the layout accepted in request bodies.
	DateLayout = "2006-01-02"
	// DisplayDateLayout is DD/MM/YYYY, used by every read projection.
	DisplayDateLayout = "02/01/2006"
)

// FormatDate renders t as DD/MM/YYYY, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DisplayDateLayout)
}

// ParseDate parses a YYYY-MM-DD request date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

func formatKey(codigo int64, lote, fornecedor string) string {
	return fmt.Sprintf("%d|%s|%s", codigo, lote, fornecedor)
}
