package order

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

	"github.com/osdesk/ostrack/internal/config"
	"github.com/osdesk/ostrack/internal/entity"
	"github.com/osdesk/ostrack/internal/messaging"
	repo "github.com/osdesk/ostrack/internal/repository/order"
	"github.com/osdesk/ostrack/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/osdesk/ostrack/service/order")

// Repository is the store surface the service needs. The concrete
// implementation lives in internal/repository/order; tests substitute an
// in-memory fake.
type Repository interface {
	Create(ctx context.Context, so *entity.ServiceOrder) error
	GetByID(ctx context.Context, id int64) (*entity.ServiceOrder, error)
	Update(ctx context.Context, so *entity.ServiceOrder) error
	Delete(ctx context.Context, id int64) error
	DashboardSet(ctx context.Context, day time.Time) ([]entity.ServiceOrder, error)
	ReceivedOn(ctx context.Context, day time.Time) ([]entity.ServiceOrder, error)
	ForDay(ctx context.Context, day time.Time) ([]entity.ServiceOrder, error)
	History(ctx context.Context, day *time.Time, limit int) ([]entity.ServiceOrder, error)
}

// Input carries the mutable service-order fields as accepted from callers.
// Status arrives already parsed; the transport boundary rejects unknown
// values before building an Input.
type Input struct {
	Number      string
	Customer    string
	Salesperson string
	Status      entity.Status
	Note        string
}

func (in Input) validate() error {
	if in.Number == "" {
		return errorbank.BadRequest("order number is required")
	}
	if in.Customer == "" {
		return errorbank.BadRequest("customer is required")
	}
	if in.Salesperson == "" {
		return errorbank.BadRequest("salesperson is required")
	}
	if in.Status != "" && !in.Status.Valid() {
		return errorbank.BadRequest("unrecognized status")
	}
	return nil
}

// Service owns the service-order lifecycle rules: creation defaults, the two
// distinct Pending→Received timestamp policies, partitioning, and history.
type Service struct {
	repo         Repository
	logger       *zap.Logger
	publisher    messaging.Client
	messaging    messagingConfig
	historyLimit int
	now          func() time.Time
}

type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository Repository
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:         p.Repository,
		logger:       p.Logger,
		publisher:    p.Publisher,
		historyLimit: p.Config.History.Limit,
		now:          time.Now,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
	}
}

// Get loads a single order, mapping missing ids onto the NotFound taxonomy.
func (s *Service) Get(ctx context.Context, id int64) (*entity.ServiceOrder, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	so, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("service order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load service order", errorbank.WithCause(err))
	}
	return so, nil
}

// Create registers a new order. The status defaults to Pending, the order is
// attributed to today's report, and the registration timestamp is stamped
// once, here.
func (s *Service) Create(ctx context.Context, in Input) (*entity.ServiceOrder, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create", trace.WithAttributes(attribute.String("order.number", in.Number)))
	defer span.End()

	status := in.Status
	if status == "" {
		status = entity.StatusPending
	}

	now := s.now()
	so := &entity.ServiceOrder{
		Number:       in.Number,
		Customer:     in.Customer,
		Salesperson:  in.Salesperson,
		Status:       status,
		Note:         in.Note,
		RegisteredAt: now,
		ReportDate:   entity.Day(now),
	}

	if err := s.repo.Create(ctx, so); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create service order", errorbank.WithCause(err))
	}

	s.publishEvent(ctx, EventOrderCreated, so)
	return so, nil
}

// QuickReceive marks an order received and pulls it into today's report,
// unconditionally. It deliberately never touches RegisteredAt; only the Edit
// path stamps the reception time. The two policies differ on purpose.
func (s *Service) QuickReceive(ctx context.Context, id int64) (*entity.ServiceOrder, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.QuickReceive", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	so, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	so.Status = entity.StatusReceived
	so.ReportDate = entity.Day(s.now())

	if err := s.update(ctx, span, so); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, EventOrderReceived, so)
	return so, nil
}

// Edit overwrites all mutable fields. RegisteredAt is refreshed only when
// the status observed before the call was Pending and the incoming status is
// Received; every other combination leaves it alone. ReportDate never moves
// through this path.
func (s *Service) Edit(ctx context.Context, id int64, in Input) (*entity.ServiceOrder, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.Status == "" {
		return nil, errorbank.BadRequest("status is required")
	}
	ctx, span := serviceTracer.Start(ctx, "OrderService.Edit", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	so, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := so.Status
	so.Number = in.Number
	so.Customer = in.Customer
	so.Salesperson = in.Salesperson
	so.Status = in.Status
	so.Note = in.Note

	if previous == entity.StatusPending && in.Status == entity.StatusReceived {
		so.RegisteredAt = s.now()
	}

	if err := s.update(ctx, span, so); err != nil {
		return nil, err
	}
	if previous == entity.StatusPending && in.Status == entity.StatusReceived {
		s.publishEvent(ctx, EventOrderReceived, so)
	}
	return so, nil
}

// Delete removes an order permanently. A missing id surfaces as NotFound so
// the caller can tell the user which of the two outcomes happened.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	so, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("service order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete service order", errorbank.WithCause(err))
	}

	s.publishEvent(ctx, EventOrderDeleted, so)
	return nil
}

// Dashboard returns the day's received and pending partitions. Pending rows
// from earlier days carry over until they are received.
func (s *Service) Dashboard(ctx context.Context, day time.Time) (received, pending []entity.ServiceOrder, err error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Dashboard")
	defer span.End()

	orders, err := s.repo.DashboardSet(ctx, day)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, nil, errorbank.Internal("failed to load dashboard", errorbank.WithCause(err))
	}
	received, pending = partition(orders)
	return received, pending, nil
}

// ReceivedOnDate lists the orders received on a given day, by time of day.
func (s *Service) ReceivedOnDate(ctx context.Context, day time.Time) ([]entity.ServiceOrder, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ReceivedOnDate")
	defer span.End()

	orders, err := s.repo.ReceivedOn(ctx, day)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load received orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// ReportSet returns the report snapshot for one day: that day's rows only,
// partitioned by status. Stale pending rows never leak into it.
func (s *Service) ReportSet(ctx context.Context, day time.Time) (received, pending []entity.ServiceOrder, err error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ReportSet")
	defer span.End()

	orders, err := s.repo.ForDay(ctx, day)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, nil, errorbank.Internal("failed to load report set", errorbank.WithCause(err))
	}
	received, pending = partition(orders)
	return received, pending, nil
}

// History lists orders by registration time, newest first. An empty filter
// returns the most recent rows up to the configured cap; a malformed filter
// yields an empty result rather than an error.
func (s *Service) History(ctx context.Context, filter string) ([]entity.ServiceOrder, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.History")
	defer span.End()

	var day *time.Time
	if filter != "" {
		parsed, err := time.Parse(time.DateOnly, filter)
		if err != nil {
			s.logger.Debug("history date filter unparseable", zap.String("filter", filter))
			return []entity.ServiceOrder{}, nil
		}
		day = &parsed
	}

	limit := 0
	if day == nil {
		limit = s.historyLimit
	}

	orders, err := s.repo.History(ctx, day, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load history", errorbank.WithCause(err))
	}
	return orders, nil
}

func (s *Service) update(ctx context.Context, span trace.Span, so *entity.ServiceOrder) error {
	if err := s.repo.Update(ctx, so); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("service order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to update service order", errorbank.WithCause(err))
	}
	return nil
}

func partition(orders []entity.ServiceOrder) (received, pending []entity.ServiceOrder) {
	received = make([]entity.ServiceOrder, 0, len(orders))
	pending = make([]entity.ServiceOrder, 0, len(orders))
	for _, so := range orders {
		if so.Status == entity.StatusReceived {
			received = append(received, so)
		} else {
			pending = append(pending, so)
		}
	}
	return received, pending
}

// Event types published to the order topic.
const (
	EventOrderCreated  = "order.created"
	EventOrderReceived = "order.received"
	EventOrderDeleted  = "order.deleted"
)

// OrderEvent is emitted on order lifecycle changes.
type OrderEvent struct {
	Type         string    `json:"type"`
	ID           int64     `json:"id"`
	Number       string    `json:"number"`
	Status       string    `json:"status"`
	ReportDate   string    `json:"report_date"`
	RegisteredAt time.Time `json:"registered_at"`
}

func (s *Service) publishEvent(ctx context.Context, eventType string, so *entity.ServiceOrder) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event := OrderEvent{
		Type:         eventType,
		ID:           so.ID,
		Number:       so.Number,
		Status:       string(so.Status),
		ReportDate:   so.ReportDate.Format(time.DateOnly),
		RegisteredAt: so.RegisteredAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("marshal order event", zap.Error(err))
		}
		return
	}
	if err := s.publisher.Publish(ctx, []byte(fmt.Sprintf("order-%d", so.ID)), payload); err != nil {
		if s.logger != nil {
			s.logger.Error("publish order event", zap.String("type", eventType), zap.Error(err))
		}
	}
}
