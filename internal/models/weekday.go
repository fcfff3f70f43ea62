package models

import "strings"

var weekdays = map[string]string{
	"MON": "Monday",
	"TUE": "Tuesday",
	"WED": "Wednesday",
	"THU": "Thursday",
	"FRI": "Friday",
	"SAT": "Saturday",
	"SUN": "Sunday",
}

// NormalizeWeekday expands MON..SUN abbreviations and canonicalizes full day
// names. Anything else yields "".
func NormalizeWeekday(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if full, ok := weekdays[s]; ok {
		return full
	}
	for _, full := range weekdays {
		if strings.ToUpper(full) == s {
			return full
		}
	}
	return ""
}
