package shared

import "time"

// Clock abstracts time so that polling loops and timeouts can be driven manually in tests.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
	AfterFunc(d time.Duration, f func()) Timer
}

// Ticker is the subset of [time.Ticker] the observers use.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Timer is the subset of [time.Timer] the observers use.
type Timer interface {
	Stop() bool
}

// SystemClock is the wall-clock [Clock].
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) NewTicker(d time.Duration) Ticker {
	return &systemTicker{t: time.NewTicker(d)}
}

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type systemTicker struct {
	t *time.Ticker
}

func (s *systemTicker) C() <-chan time.Time { return s.t.C }
func (s *systemTicker) Stop()               { s.t.Stop() }
