package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var isoDurationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// FormatISODuration renders an ISO 8601 duration as m:ss, or h:mm:ss past the hour.
// Unparseable input renders as "0:00".
//
// "PT3M45S" -> "3:45", "PT1H2M3S" -> "1:02:03"
func FormatISODuration(iso string) string {
	m := isoDurationPattern.FindStringSubmatch(iso)
	if m == nil {
		return "0:00"
	}

	part := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	hours, minutes, seconds := part(m[1]), part(m[2]), part(m[3])

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// FormatViewCount groups digits with commas. Empty input renders as "0"; anything that is
// not an unsigned integer is returned unchanged.
func FormatViewCount(count string) string {
	if count == "" {
		return "0"
	}
	if _, err := strconv.ParseUint(count, 10, 64); err != nil {
		return count
	}

	var b strings.Builder
	lead := len(count) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(count[:lead])
	for i := lead; i < len(count); i += 3 {
		b.WriteByte(',')
		b.WriteString(count[i : i+3])
	}
	return b.String()
}
