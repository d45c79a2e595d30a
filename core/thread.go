package core

import (
	"runtime"
)

// goroutineID extracts the current goroutine's numeric ID from the first
// line of its stack trace ("goroutine N [running]:"). The runtime offers no
// public accessor; the Context uses this only to detect events sent from
// the wrong goroutine, never for scheduling.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	const prefix = len("goroutine ")
	var id uint64
	for _, c := range buf[prefix:n] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}
