// Package feed defines the price feed collaborator consumed by the engine.
package feed

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when a feed has no usable price for a symbol.
// Callers treat it as recoverable: reject the in-flight operation or skip
// the symbol for the current cycle.
var ErrUnavailable = errors.New("price unavailable")

// Source supplies the latest traded price for a symbol on demand.
type Source interface {
	LatestPrice(ctx context.Context, symbol string) (float64, error)
}

// StatusReporter is optionally implemented by sources that maintain a
// transport connection (websocket streams). Sources that don't implement
// it are assumed connected.
type StatusReporter interface {
	Connected() bool
}
