// Package retry implements the bounded fixed-interval polling used while
// waiting for the board to re-enumerate.
package retry

import (
	"errors"
	"time"
)

// ErrExhausted is returned when every attempt ran without the condition
// coming true.
var ErrExhausted = errors.New("retry: attempts exhausted")

// Policy is a bounded retry with a fixed interval between attempts.
type Policy struct {
	Attempts int
	Interval time.Duration

	// Sleep is replaced in tests; nil means time.Sleep.
	Sleep func(time.Duration)
}

// Do calls fn up to p.Attempts times, sleeping p.Interval between
// attempts. It stops as soon as fn reports done or returns an error.
// Running out of attempts returns ErrExhausted.
func (p Policy) Do(fn func() (bool, error)) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	for attempt := 0; attempt < p.Attempts; attempt++ {
		if attempt > 0 {
			sleep(p.Interval)
		}
		done, err := fn()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return ErrExhausted
}
