package application

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/ericfisherdev/passvault/internal/domain/port/driven"
)

// Health status values.
const (
	HealthOK          = "ok"
	HealthUnavailable = "unavailable"
)

// HealthReport is the aggregate result of all dependency checks.
type HealthReport struct {
	Status string
	Checks map[string]string
	Time   time.Time
}

// Healthy reports whether every check passed.
func (r HealthReport) Healthy() bool {
	return r.Status == HealthOK
}

// HealthService pings named dependencies. Failure details are logged, never
// returned, so the report is safe to expose unauthenticated.
type HealthService struct {
	checkers map[string]driven.HealthChecker
	logger   *slog.Logger
	now      func() time.Time
}

// NewHealthService creates a HealthService over the given named checkers.
func NewHealthService(checkers map[string]driven.HealthChecker, logger *slog.Logger) *HealthService {
	return &HealthService{
		checkers: checkers,
		logger:   logger,
		now:      time.Now,
	}
}

// Check runs every checker and returns the combined report.
func (s *HealthService) Check(ctx context.Context) HealthReport {
	names := make([]string, 0, len(s.checkers))
	for name := range s.checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	report := HealthReport{
		Status: HealthOK,
		Checks: make(map[string]string, len(names)),
		Time:   s.now().UTC(),
	}
	for _, name := range names {
		if err := s.checkers[name].Ping(ctx); err != nil {
			s.logger.Error("health check failed", "check", name, "error", err)
			report.Checks[name] = HealthUnavailable
			report.Status = HealthUnavailable
			continue
		}
		report.Checks[name] = HealthOK
	}

	return report
}
