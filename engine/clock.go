package engine

import "time"

// Clock abstracts wall-clock time and periodic scheduling so tests can drive
// the mark-to-market and trigger loops deterministically.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) NewTicker(d time.Duration) Ticker {
	return &systemTicker{t: time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (t *systemTicker) C() <-chan time.Time { return t.t.C }
func (t *systemTicker) Stop()               { t.t.Stop() }
