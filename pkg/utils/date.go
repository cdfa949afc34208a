package utils

import (
	"fmt"
	"time"
)

// TimestampLayout ist das Format, in dem die Timing API Zeitpunkte erwartet
// (ISO-8601, UTC, Millisekunden immer 000).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// inputFormats sind die Formate, die ParseDate akzeptiert.
var inputFormats = []string{
	time.RFC3339,          // ISO mit Timezone (auch mit Millisekunden)
	"2006-01-02T15:04:05", // ISO ohne Timezone
	"2006-01-02 15:04",    // Datum mit Uhrzeit
	"2006-01-02",          // Nur Datum
	"02.01.2006 15:04",    // Deutsches Format mit Uhrzeit
	"02.01.2006",          // Deutsches Format
}

// TruncateToSecond schneidet Millisekunden ab (kein Runden).
func TruncateToSecond(t time.Time) time.Time {
	return t.Truncate(time.Second)
}

// FormatTimestamp formatiert einen Zeitpunkt für die Timing API.
func FormatTimestamp(t time.Time) string {
	return TruncateToSecond(t).UTC().Format(TimestampLayout)
}

// ParseDate parst Datumsangaben von der Kommandozeile. Angaben ohne Zeitzone
// werden in loc interpretiert.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	for _, format := range inputFormats {
		if parsed, err := time.ParseInLocation(format, value, loc); err == nil {
			return parsed, nil
		}
	}

	return time.Time{}, fmt.Errorf("unbekanntes Datumsformat: %q", value)
}

// FormatDuration formatiert Sekunden als H:MM:SS.
func FormatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int64(seconds)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, total/60%60, total%60)
}

// FormatDateForDisplay formatiert Datum für schöne Anzeige
func FormatDateForDisplay(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "Kein Datum"
	}

	return t.Local().Format("02.01.2006 15:04")
}
