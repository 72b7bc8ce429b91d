package command

import (
	"strconv"
	"strings"
	"time"
)

// Uptime formats a duration as days, hours, minutes, and seconds, like
// "1d, 3m, 7s". Units that are zero are omitted. A duration under one second
// formats as "0s".
func Uptime(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}
	s := int64(d / time.Second)
	units := [...]struct {
		n    int64
		unit string
	}{
		{s / 86400, "d"},
		{s / 3600 % 24, "h"},
		{s / 60 % 60, "m"},
		{s % 60, "s"},
	}
	parts := make([]string, 0, len(units))
	for _, u := range units {
		if u.n > 0 {
			parts = append(parts, strconv.FormatInt(u.n, 10)+u.unit)
		}
	}
	return strings.Join(parts, ", ")
}
