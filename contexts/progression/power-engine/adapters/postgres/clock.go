package postgresadapter

import "time"

// SystemClock reads the wall clock in UTC. Calendar days derive from it.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
