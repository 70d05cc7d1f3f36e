package service

import (
	"context"
	"log/slog"
)

// saga runs ordered steps. A step may register a compensation; when a later
// step fails, the registered compensations run once each, newest first.
// Compensation errors are logged and never retried.
type saga struct {
	name          string
	logger        *slog.Logger
	compensations []compensation
	done          []string
}

type compensation struct {
	name string
	fn   func(context.Context) error
}

func newSaga(name string, logger *slog.Logger) *saga {
	return &saga{name: name, logger: logger}
}

// step runs fn. On failure every registered compensation is run before the
// error is returned.
func (s *saga) step(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		s.logger.Warn("saga step failed",
			"saga", s.name,
			"step", name,
			"completed", s.done,
			"error", err,
		)
		s.rollback(ctx)
		return err
	}
	s.done = append(s.done, name)
	return nil
}

// compensate registers fn to undo the most recent step.
func (s *saga) compensate(name string, fn func(context.Context) error) {
	s.compensations = append(s.compensations, compensation{name: name, fn: fn})
}

// rollback runs compensations in reverse registration order. They run on a
// context detached from cancellation so an aborted request still cleans up.
func (s *saga) rollback(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for i := len(s.compensations) - 1; i >= 0; i-- {
		c := s.compensations[i]
		if err := c.fn(ctx); err != nil {
			s.logger.Error("saga compensation failed",
				"saga", s.name,
				"compensation", c.name,
				"error", err,
			)
			continue
		}
		s.logger.Info("saga compensation applied", "saga", s.name, "compensation", c.name)
	}
	s.compensations = nil
}
