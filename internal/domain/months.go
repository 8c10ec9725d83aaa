package domain

import "strings"

// monthNumbers maps upper-case Spanish month names to 1-12.
var monthNumbers = map[string]int{
	"ENERO":      1,
	"FEBRERO":    2,
	"MARZO":      3,
	"ABRIL":      4,
	"MAYO":       5,
	"JUNIO":      6,
	"JULIO":      7,
	"AGOSTO":     8,
	"SEPTIEMBRE": 9,
	"OCTUBRE":    10,
	"NOVIEMBRE":  11,
	"DICIEMBRE":  12,
}

// monthLabels is the display table used by the month selector.
var monthLabels = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// ParseMonth maps a Spanish month name (any case) to 1-12.
// Unmapped text returns 0, the missing month.
func ParseMonth(s string) int {
	return monthNumbers[strings.ToUpper(strings.TrimSpace(s))]
}

// MonthLabel returns the Spanish display name for 1-12, or "" outside that range.
func MonthLabel(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return monthLabels[m-1]
}
