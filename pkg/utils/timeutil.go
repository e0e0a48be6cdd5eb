package utils

import (
	"time"
)

// DateLayout is the YYYY-MM-DD layout used by the Sectors API.
const DateLayout = "2006-01-02"

// WIB is Western Indonesia Time (UTC+7), the IDX trading time zone.
var WIB *time.Location

func init() {
	var err error
	WIB, err = time.LoadLocation("Asia/Jakarta")
	if err != nil {
		// Fallback: create fixed zone if tz database is not available
		WIB = time.FixedZone("WIB", 7*60*60)
	}
}

// NowWIB returns the current time in WIB.
func NowWIB() time.Time {
	return time.Now().In(WIB)
}

// ParseDateWIB parses a YYYY-MM-DD date in WIB.
func ParseDateWIB(dateStr string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, dateStr, WIB)
}

// FormatDateWIB formats t as YYYY-MM-DD in WIB.
func FormatDateWIB(t time.Time) string {
	return t.In(WIB).Format(DateLayout)
}
