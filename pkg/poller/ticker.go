package poller

import "time"

// realClock implements Clock using the real time package.
type realClock struct{}

var _ Clock = realClock{}

func (realClock) Now() time.Time {
	return time.Now()
}

// Ticker drops ticks while the receiver is busy, so an overrunning cycle
// delays the next one instead of queueing several.
func (realClock) Ticker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) Chan() <-chan time.Time {
	return r.t.C
}

func (r *realTicker) Stop() {
	r.t.Stop()
}
