package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/osdesk/ostrack/internal/cache"
	"github.com/osdesk/ostrack/internal/config"
	"github.com/osdesk/ostrack/internal/entity"
	"github.com/osdesk/ostrack/internal/report"
	ordersvc "github.com/osdesk/ostrack/internal/service/order"
	"github.com/osdesk/ostrack/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/osdesk/ostrack/service/report")

const latestKey = "reports:latest"

// Service produces daily report artifacts and remembers where they were
// written. Only artifact metadata is cached; order queries always hit the
// store.
type Service struct {
	orders    *ordersvc.Service
	generator *report.Generator
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Orders    *ordersvc.Service
	Generator *report.Generator
	Cache     cache.Store
	Config    config.Config
	Logger    *zap.Logger
}

// NewService wires a new report Service.
func NewService(p Params) *Service {
	return &Service{
		orders:    p.Orders,
		generator: p.Generator,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    p.Logger,
	}
}

// Module provides the report generator and service to Fx.
var Module = fx.Options(
	fx.Provide(report.NewGenerator),
	fx.Provide(NewService),
)

// Generate renders the CSV and PDF for one day's report snapshot. The
// snapshot comes from a single query; pending rows from other days never
// appear.
func (s *Service) Generate(ctx context.Context, day time.Time) (*report.Artifacts, error) {
	day = entity.Day(day)
	ctx, span := serviceTracer.Start(ctx, "ReportService.Generate", trace.WithAttributes(attribute.String("day", day.Format(time.DateOnly))))
	defer span.End()

	received, pending, err := s.orders.ReportSet(ctx, day)
	if err != nil {
		return nil, err
	}

	art, err := s.generator.Generate(day, received, pending)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return nil, errorbank.Internal("failed to generate report", errorbank.WithCause(err))
	}

	s.remember(ctx, art)
	return art, nil
}

// Latest returns the most recently generated artifacts, when known.
func (s *Service) Latest(ctx context.Context) (*report.Artifacts, error) {
	ctx, span := serviceTracer.Start(ctx, "ReportService.Latest")
	defer span.End()

	if s.cache == nil {
		return nil, errorbank.NotFound("no report generated yet")
	}
	raw, err := s.cache.Get(ctx, latestKey)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, errorbank.NotFound("no report generated yet")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cache error")
		return nil, errorbank.Internal("failed to read report metadata", errorbank.WithCause(err))
	}

	var art report.Artifacts
	if err := json.Unmarshal(raw, &art); err != nil {
		return nil, errorbank.Internal("corrupt report metadata", errorbank.WithCause(err))
	}
	return &art, nil
}

func (s *Service) remember(ctx context.Context, art *report.Artifacts) {
	if s.cache == nil || art == nil {
		return
	}
	raw, err := json.Marshal(art)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("marshal report artifacts", zap.Error(err))
		}
		return
	}
	for _, key := range []string{latestKey, fmt.Sprintf("reports:%s", art.Day.Format(time.DateOnly))} {
		if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
			if s.logger != nil {
				s.logger.Warn("report artifact cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
}
