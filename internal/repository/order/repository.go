package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/osdesk/ostrack/internal/database"
	"github.com/osdesk/ostrack/internal/entity"
)

var repoTracer = otel.Tracer("github.com/osdesk/ostrack/repository/order")

// ErrNotFound is returned when a service order is missing.
var ErrNotFound = errors.New("service order not found")

// Repository owns all SQL for service orders. Writes run inside a single
// transactional scope that is released on every exit path; reads go to the
// read connection and never cache.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Create persists a new service order.
func (r *Repository) Create(ctx context.Context, so *entity.ServiceOrder) error {
	if so == nil {
		return errors.New("nil service order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.String("order.number", so.Number)))
	defer span.End()

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(so).Exec(ctx)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches a service order by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.ServiceOrder, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	so := new(entity.ServiceOrder)
	err := r.reader.NewSelect().Model(so).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return so, nil
}

// Update overwrites all mutable columns of an existing row. ErrNotFound is
// returned when no row matched the id.
func (r *Repository) Update(ctx context.Context, so *entity.ServiceOrder) error {
	if so == nil {
		return errors.New("nil service order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Update", trace.WithAttributes(attribute.Int64("order.id", so.ID)))
	defer span.End()

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().Model(so).WherePK().Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}

// Delete removes a row permanently. ErrNotFound distinguishes the missing-id
// outcome from a successful removal.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().Model((*entity.ServiceOrder)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
	}
	return err
}

// DashboardSet selects the rows a day's dashboard shows: the day's own rows
// plus pending rows carried over from any earlier day. Insertion order keeps
// the listing stable.
func (r *Repository) DashboardSet(ctx context.Context, day time.Time) ([]entity.ServiceOrder, error) {
	day = entity.Day(day)
	ctx, span := repoTracer.Start(ctx, "OrderRepository.DashboardSet", trace.WithAttributes(attribute.String("day", day.Format(time.DateOnly))))
	defer span.End()

	var orders []entity.ServiceOrder
	err := r.reader.NewSelect().
		Model(&orders).
		Where("report_date = ? OR (status = ? AND report_date < ?)", day, entity.StatusPending, day).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// ReceivedOn selects the orders received and attributed to the given day,
// ordered by reception time of day.
func (r *Repository) ReceivedOn(ctx context.Context, day time.Time) ([]entity.ServiceOrder, error) {
	day = entity.Day(day)
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ReceivedOn", trace.WithAttributes(attribute.String("day", day.Format(time.DateOnly))))
	defer span.End()

	var orders []entity.ServiceOrder
	err := r.reader.NewSelect().
		Model(&orders).
		Where("report_date = ? AND status = ?", day, entity.StatusReceived).
		Order("registered_at ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// ForDay selects exactly the rows attributed to the given day. Unlike
// DashboardSet it never carries over stale pending rows; the daily report
// reflects a single report_date only.
func (r *Repository) ForDay(ctx context.Context, day time.Time) ([]entity.ServiceOrder, error) {
	day = entity.Day(day)
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ForDay", trace.WithAttributes(attribute.String("day", day.Format(time.DateOnly))))
	defer span.End()

	var orders []entity.ServiceOrder
	err := r.reader.NewSelect().
		Model(&orders).
		Where("report_date = ?", day).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// History lists rows by registration time, newest first. With a day filter
// it returns every row registered within that calendar day; without one it
// returns at most limit rows.
func (r *Repository) History(ctx context.Context, day *time.Time, limit int) ([]entity.ServiceOrder, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.History")
	defer span.End()

	var orders []entity.ServiceOrder
	q := r.reader.NewSelect().
		Model(&orders).
		Order("registered_at DESC")
	if day != nil {
		start := entity.Day(*day)
		end := start.Add(24 * time.Hour)
		span.SetAttributes(attribute.String("day", start.Format(time.DateOnly)))
		q = q.Where("registered_at >= ? AND registered_at < ?", start, end)
	} else if limit > 0 {
		span.SetAttributes(attribute.Int("limit", limit))
		q = q.Limit(limit)
	}

	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}
