// Package feed provides live price sources for paper trading. Sources
// stream quotes in the background and expose the latest price per symbol;
// the trader polls them on its own schedule.
package feed

import (
	"context"
	"math"
	"sync"
	"time"
)

// PriceSource streams prices for a set of symbols. Run blocks until the
// context is cancelled, reconnecting on transport errors; Price returns
// the most recent quote and its arrival time.
type PriceSource interface {
	Name() string
	Run(ctx context.Context) error
	Price(symbol string) (price float64, updated time.Time, ok bool)
}

type quote struct {
	price   float64
	updated time.Time
}

// baseSource provides locked per-symbol quote storage for sources.
type baseSource struct {
	name   string
	mu     sync.RWMutex
	quotes map[string]quote
}

func newBaseSource(name string) baseSource {
	return baseSource{name: name, quotes: make(map[string]quote)}
}

func (b *baseSource) Name() string { return b.name }

func (b *baseSource) Price(symbol string) (float64, time.Time, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	q, ok := b.quotes[symbol]
	if !ok {
		return 0, time.Time{}, false
	}
	return q.price, q.updated, true
}

func (b *baseSource) setPrice(symbol string, price float64) {
	if math.IsNaN(price) || price <= 0 {
		return
	}
	b.mu.Lock()
	b.quotes[symbol] = quote{price: price, updated: time.Now()}
	b.mu.Unlock()
}
