package feed

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/mohamedkhairy/pineseries/internal/models"
)

// Synthetic generates a seeded random-walk tick stream for dev and demo
// runs. Prices start near 100 and never go below 1.
type Synthetic struct {
	interval   time.Duration
	connected  bool
	subscribed map[string]bool
	prices     map[string]float64
	rng        *rand.Rand
	tickChan   chan *models.Tick
	mu         sync.RWMutex
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewSynthetic creates a synthetic provider emitting one tick per symbol
// every interval.
func NewSynthetic(interval time.Duration) *Synthetic {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Synthetic{
		interval:   interval,
		subscribed: make(map[string]bool),
		prices:     make(map[string]float64),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		tickChan:   make(chan *models.Tick, 256),
	}
}

// Seed fixes the random source, for reproducible runs.
func (s *Synthetic) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = rand.New(rand.NewSource(seed))
}

// Connect implements Provider.
func (s *Synthetic) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return ErrAlreadyConnected
	}
	s.connected = true
	return nil
}

// Subscribe implements Provider.
func (s *Synthetic) Subscribe(ctx context.Context, symbols []string) (<-chan *models.Tick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil, ErrNotConnected
	}
	for _, symbol := range symbols {
		if symbol == "" {
			return nil, ErrInvalidSymbol
		}
		s.subscribed[symbol] = true
		if _, ok := s.prices[symbol]; !ok {
			s.prices[symbol] = 90.0 + s.rng.Float64()*20.0
		}
	}

	if s.cancel == nil {
		ctx, cancel := context.WithCancel(ctx)
		s.cancel = cancel
		s.wg.Add(1)
		go s.generate(ctx)
	}

	return s.tickChan, nil
}

// Unsubscribe implements Provider.
func (s *Synthetic) Unsubscribe(ctx context.Context, symbols []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return ErrNotConnected
	}
	for _, symbol := range symbols {
		delete(s.subscribed, symbol)
	}
	return nil
}

// Close implements Provider.
func (s *Synthetic) Close() error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return nil
	}
	s.connected = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
	close(s.tickChan)
	return nil
}

// IsConnected implements Provider.
func (s *Synthetic) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Name implements Provider.
func (s *Synthetic) Name() string {
	return "synthetic"
}

func (s *Synthetic) generate(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			symbols := make([]string, 0, len(s.subscribed))
			for symbol := range s.subscribed {
				symbols = append(symbols, symbol)
			}
			ticks := make([]*models.Tick, 0, len(symbols))
			for _, symbol := range symbols {
				price := s.prices[symbol] + (s.rng.Float64()-0.5)*0.5
				if price < 1.0 {
					price = 1.0
				}
				s.prices[symbol] = price
				ticks = append(ticks, &models.Tick{
					Symbol:    symbol,
					Price:     price,
					Size:      int64(s.rng.Intn(900) + 100),
					Timestamp: time.Now().UTC(),
				})
			}
			s.mu.Unlock()

			for _, tick := range ticks {
				select {
				case s.tickChan <- tick:
				case <-ctx.Done():
					return
				default:
					// channel full, drop the tick
				}
			}
		}
	}
}
