package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/easymo/generation-control-plane/models"
	"github.com/easymo/generation-control-plane/repositories"
)

// Event wraps a decision log entry queued for persistence.
type Event struct {
	Log *models.DecisionLog
}

// Service persists decision audit entries asynchronously so admission
// latency never waits on the audit store. Events flow through a buffered
// channel into a small pool of writer goroutines.
type Service struct {
	auditRepo   repositories.AuditRepository
	logger      *zap.Logger
	eventChan   chan *Event
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	mu          sync.Mutex
}

// Config holds configuration for the audit Service
type Config struct {
	BufferSize  int // Size of the event buffer channel
	WorkerCount int // Number of concurrent writers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  10000,
		WorkerCount: 4,
	}
}

// NewService creates a new audit Service instance
func NewService(auditRepo repositories.AuditRepository, logger *zap.Logger, config Config) *Service {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultConfig().WorkerCount
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		auditRepo:   auditRepo,
		logger:      logger,
		eventChan:   make(chan *Event, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the background writers
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop gracefully stops the audit service, waiting for pending events.
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("audit service not started")
	}
	s.started = false
	// Closing under the same lock that guards LogDecision's send keeps a
	// concurrent log call from writing to a closed channel.
	close(s.eventChan)
	s.mu.Unlock()

	s.logger.Info("stopping audit service")

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		s.cancel()
		return nil
	case <-time.After(timeout):
		s.cancel()
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// LogDecision queues a decision log entry (non-blocking). A full buffer
// drops the event with a warning rather than stalling admission.
func (s *Service) LogDecision(log *models.DecisionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return fmt.Errorf("audit service not started")
	}

	// The send stays under the lock so Stop cannot close the channel
	// between the started check and the enqueue. It never blocks, so the
	// lock is held only briefly.
	select {
	case s.eventChan <- &Event{Log: log}:
		return nil
	default:
		s.logger.Warn("audit event channel full, dropping event",
			zap.String("outcome", string(log.Outcome)),
			zap.String("campaign_id", log.CampaignID.String()))
		return fmt.Errorf("audit event buffer full")
	}
}

// worker drains events from the channel into the audit store.
func (s *Service) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for event := range s.eventChan {
		if err := s.processEvent(event); err != nil {
			s.logger.Error("failed to process audit event",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("outcome", string(event.Log.Outcome)),
				zap.String("campaign_id", event.Log.CampaignID.String()))
		}
	}

	s.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

// processEvent persists a single audit event
func (s *Service) processEvent(event *Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.auditRepo.Insert(ctx, event.Log); err != nil {
		return fmt.Errorf("failed to insert decision log: %w", err)
	}

	return nil
}

// GetStats returns statistics about the audit service
func (s *Service) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		BufferSize:    s.bufferSize,
		PendingEvents: len(s.eventChan),
		WorkerCount:   s.workerCount,
		Started:       s.started,
	}
}

// Stats represents audit service statistics
type Stats struct {
	BufferSize    int  `json:"buffer_size"`
	PendingEvents int  `json:"pending_events"`
	WorkerCount   int  `json:"worker_count"`
	Started       bool `json:"started"`
}
