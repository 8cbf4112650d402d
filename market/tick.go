package market

import (
	"errors"
	"sync"
	"time"
)

// Tick is one observed mark price for a symbol.
type Tick struct {
	Symbol string
	Price  float64
	Time   time.Time
}

// ErrNoPrice is returned when a symbol has never received a tick.
var ErrNoPrice = errors.New("price not found")

// TickStore keeps the latest tick per symbol. Safe for concurrent use.
type TickStore struct {
	mu    sync.RWMutex
	ticks map[string]Tick
}

func NewTickStore() *TickStore {
	return &TickStore{ticks: make(map[string]Tick)}
}

func (s *TickStore) Set(t Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks[t.Symbol] = t
}

func (s *TickStore) Get(symbol string) (Tick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.ticks[symbol]
	if !ok {
		return Tick{}, ErrNoPrice
	}
	return t, nil
}

// Snapshot returns a copy of the latest price per symbol.
func (s *TickStore) Snapshot() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]float64, len(s.ticks))
	for sym, t := range s.ticks {
		out[sym] = t.Price
	}
	return out
}
