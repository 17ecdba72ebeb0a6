package timer

import (
	"fmt"
	"time"
)

// FormatTime converts a duration into a ss.mmm string.
func FormatTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d.%03ds", ms/1000, ms%1000)
}
