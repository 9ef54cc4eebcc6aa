package modelledger

import "time"

// Now returns the current UTC time at the precision every backend persists.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
