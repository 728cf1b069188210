package eventlog

import (
	"bytes"
	"fmt"

	"github.com/sweeney/radmon/internal/logic"
)

// Header is the first line of an exported log.
const Header = "RTC (YYYYMMDD,HHMMSS),CPS,Dose Rate (in mR/hr),Dose (in mR/hr),Radiation Alert"

// RTCLayout renders a timestamp as YYYYMMDD,HHMMSS.
const RTCLayout = "20060102,150405"

// FormatCSV serializes entries oldest first. Lines are joined by "\n" with
// no trailing newline; timestamps are rendered in local time.
func FormatCSV(entries []logic.LogEntry) []byte {
	var b bytes.Buffer
	b.WriteString(Header)
	b.WriteByte('\n')
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s,%d,%.2f,%.2f,%s",
			e.Timestamp.Local().Format(RTCLayout), e.CountRate, e.DoseRate, e.CumulativeDose, e.Alert)
	}
	return b.Bytes()
}
