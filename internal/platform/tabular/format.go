package tabular

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the canonical date-time layout written to disk. The offset
// keeps the repeated wall-clock hour of a DST change unambiguous.
const TimeLayout = time.RFC3339

var readLayouts = []string{
	TimeLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05.999999999",
}

// FormatTime renders t in local time with its UTC offset.
func FormatTime(t time.Time) string {
	return t.In(time.Local).Format(TimeLayout)
}

// ParseTime accepts RFC 3339 timestamps as well as offset-less ISO
// date-times, read as local time, with or without seconds and fractional
// seconds.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range readLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date-time %q", s)
}

// FormatOptionalTime renders nil as an empty field.
func FormatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatTime(*t)
}

// ParseOptionalTime maps an empty field to nil.
func ParseOptionalTime(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FormatFloat renders v with the shortest representation that reads back
// exactly, always using '.' as decimal separator.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseFloat accepts both '.' and ',' as decimal separator.
func ParseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}

// ParseInt parses a base-10 integer field.
func ParseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

// Field returns record[i], or "" when the record is shorter.
func Field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}
