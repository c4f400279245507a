package seeder

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/osdesk/ostrack/internal/database"
	"github.com/osdesk/ostrack/internal/entity"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// Orders seeds example service orders when the table is empty. Numbers are
// not unique, so the guard is a row count rather than a conflict clause.
func (s *Seeder) Orders(ctx context.Context) error {
	count, err := s.db.NewSelect().Model((*entity.ServiceOrder)(nil)).Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		if s.logger != nil {
			s.logger.Info("seed skipped; service orders already present", zap.Int("count", count))
		}
		return nil
	}

	now := time.Now().UTC()
	today := entity.Day(now)
	samples := []entity.ServiceOrder{
		{Number: "OS-1001", Customer: "Oficina Central", Salesperson: "Marina", Status: entity.StatusPending, RegisteredAt: now.Add(-3 * time.Hour), ReportDate: today},
		{Number: "OS-1002", Customer: "Auto Peças Silva", Salesperson: "Carlos", Status: entity.StatusReceived, Note: "urgent", RegisteredAt: now.Add(-2 * time.Hour), ReportDate: today},
		{Number: "OS-0993", Customer: "Retífica Norte", Salesperson: "Marina", Status: entity.StatusPending, Note: "carried over", RegisteredAt: now.Add(-26 * time.Hour), ReportDate: today.AddDate(0, 0, -1)},
	}

	for _, sample := range samples {
		so := sample
		if _, err := s.db.NewInsert().Model(&so).Exec(ctx); err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded service orders", zap.Int("count", len(samples)))
	}
	return nil
}
