// Package telemetry decodes count-rate frames from the detector and provides
// the transports that deliver them.
package telemetry

import (
	"fmt"
	"regexp"
	"strconv"
)

var countsPattern = regexp.MustCompile(`Cnts:(\d+)!`)

// Decode extracts the count rate from the first Cnts:<digits>! in frame.
// Frames without a match, or with a digit run that overflows an int, are
// reported as not ok and should be dropped.
func Decode(frame string) (int, bool) {
	m := countsPattern.FindStringSubmatch(frame)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Encode renders a count rate as the detector would send it.
func Encode(countRate int) string {
	return fmt.Sprintf("Cnts:%d!", countRate)
}
