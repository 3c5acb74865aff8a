// Package racetime converts between race clock strings and seconds.
package racetime

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrNegativeDuration is returned when formatting a duration below zero.
var ErrNegativeDuration = errors.New("negative duration")

var fieldTimePattern = regexp.MustCompile(`(\d\d):(\d\d):(\d\d)`)

// ParseFieldTime converts a published "HH:MM:SS" field time into seconds.
func ParseFieldTime(fieldTime string) (int64, error) {
	match := fieldTimePattern.FindStringSubmatch(fieldTime)
	if match == nil {
		return 0, fmt.Errorf("invalid field time %q (expected HH:MM:SS)", fieldTime)
	}
	hours, _ := strconv.ParseInt(match[1], 10, 64)
	minutes, _ := strconv.ParseInt(match[2], 10, 64)
	seconds, _ := strconv.ParseInt(match[3], 10, 64)
	return hours*3600 + minutes*60 + seconds, nil
}

// FormatDuration renders seconds as H:MM:SS with unpadded hours.
func FormatDuration(seconds int64) (string, error) {
	if seconds < 0 {
		return "", fmt.Errorf("format %d seconds: %w", seconds, ErrNegativeDuration)
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs), nil
}

// FormatGap renders the distance to a reference time as +H:MM:SS.
// A rider ahead of the reference is shown with a minus sign.
func FormatGap(seconds, reference int64) string {
	diff := seconds - reference
	sign := "+"
	if diff < 0 {
		sign = "-"
		diff = -diff
	}
	out, _ := FormatDuration(diff)
	return sign + out
}
