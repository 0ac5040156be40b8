package timex

import "time"

var start = time.Now()

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Micros returns microseconds since process start, truncated to uint32.
// Wraps every ~71.6 minutes; callers compare values by subtraction only.
func Micros() uint32 {
	return uint32(time.Since(start).Microseconds())
}
