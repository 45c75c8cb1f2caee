// Package schedule runs named periodic jobs on a cron scheduler.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

type Service struct {
	cron    *cron.Cron
	parser  cron.Parser
	logger  *slog.Logger
	timeout time.Duration
	mu      sync.Mutex
	jobs    map[string]cron.EntryID
}

// NewService creates a stopped scheduler; each run gets a context bounded by timeout (0 = none).
func NewService(log *slog.Logger, timeout time.Duration) *Service {
	if log == nil {
		log = slog.Default()
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Service{
		cron:    cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		parser:  parser,
		logger:  log.With(slog.String("service", "schedule")),
		timeout: timeout,
		jobs:    map[string]cron.EntryID{},
	}
}

// Validate reports whether pattern parses.
func (s *Service) Validate(pattern string) error {
	if _, err := s.parser.Parse(strings.TrimSpace(pattern)); err != nil {
		return fmt.Errorf("invalid cron pattern: %w", err)
	}
	return nil
}

// Add registers job under name, replacing any job with the same name.
func (s *Service) Add(name, pattern string, job Job) error {
	if strings.TrimSpace(name) == "" || job == nil {
		return fmt.Errorf("name and job are required")
	}
	if err := s.Validate(pattern); err != nil {
		return err
	}
	run := func() { s.run(name, job) }

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.jobs[name]; ok {
		s.cron.Remove(old)
	}
	entryID, err := s.cron.AddFunc(strings.TrimSpace(pattern), run)
	if err != nil {
		delete(s.jobs, name)
		return err
	}
	s.jobs[name] = entryID
	return nil
}

// Remove unregisters the named job.
func (s *Service) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entryID, ok := s.jobs[name]; ok {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
	}
}

// Names returns the registered job names.
func (s *Service) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

// Next returns the next activation of the named job.
func (s *Service) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	entryID, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(entryID).Next, true
}

func (s *Service) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs or ctx.
func (s *Service) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) run(name string, job Job) {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	if err := job(ctx); err != nil {
		s.logger.Error("scheduled job failed", slog.String("job", name), slog.Any("error", err))
		return
	}
	s.logger.Debug("scheduled job finished", slog.String("job", name), slog.Duration("elapsed", time.Since(start)))
}
