package daemon

import (
	"log/slog"
	"sync"
)

// RegionResetter drops click-through state bound to a window.
type RegionResetter interface {
	Reset(label string)
}

// StateSynchronizer handles cleanup when windows close or state drifts.
type StateSynchronizer struct {
	regions RegionResetter
	logger  *slog.Logger

	mu     sync.Mutex
	closed map[string]int
}

// NewStateSynchronizer creates a new state synchronizer.
func NewStateSynchronizer(regions RegionResetter, logger *slog.Logger) *StateSynchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateSynchronizer{
		regions: regions,
		logger:  logger,
		closed:  make(map[string]int),
	}
}

// HandleWindowClosed is called once for every registered window that was
// destroyed, whoever destroyed it.
func (s *StateSynchronizer) HandleWindowClosed(label string) {
	s.logger.Info("window closed, cleaning up", "label", label)

	if s.regions != nil {
		s.regions.Reset(label)
	}

	s.mu.Lock()
	s.closed[label]++
	s.mu.Unlock()
}

// Closed reports how many times a window with label was cleaned up.
func (s *StateSynchronizer) Closed(label string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed[label]
}
