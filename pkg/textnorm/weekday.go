package textnorm

import "time"

// The duty feed names weekdays in Spanish, lowercase and without accents
// once normalized.
var spanishWeekdays = [...]string{"domingo", "lunes", "martes", "miercoles", "jueves", "viernes", "sabado"}

var weekdayAliases = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
	"domingo": time.Sunday, "lunes": time.Monday, "martes": time.Tuesday, "miercoles": time.Wednesday,
	"jueves": time.Thursday, "viernes": time.Friday, "sabado": time.Saturday,
}

// SpanishWeekday returns the feed's name for d.
func SpanishWeekday(d time.Weekday) string {
	return spanishWeekdays[d]
}

// ParseWeekday accepts an English or Spanish weekday name in any case or
// accentuation.
func ParseWeekday(s string) (time.Weekday, bool) {
	d, ok := weekdayAliases[Normalize(s)]
	return d, ok
}
