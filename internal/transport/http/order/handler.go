package order

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/osdesk/ostrack/internal/dto"
	"github.com/osdesk/ostrack/internal/entity"
	"github.com/osdesk/ostrack/internal/presentation/http/response"
	service "github.com/osdesk/ostrack/internal/service/order"
	"github.com/osdesk/ostrack/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/osdesk/ostrack/transport/http/order")

// Handler exposes service-order endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/dashboard", h.dashboard)
	e.GET("/history", h.history)

	g := e.Group("/orders")
	g.POST("", h.create)
	g.GET("/:id", h.getByID)
	g.POST("/:id/receive", h.quickReceive)
	g.PUT("/:id", h.edit)
	g.DELETE("/:id", h.remove)
}

// orderPayload binds the legacy desk form field names alongside JSON.
type orderPayload struct {
	Number      string `json:"numero_os" form:"numero_os"`
	Customer    string `json:"cliente" form:"cliente"`
	Salesperson string `json:"vendedor" form:"vendedor"`
	Status      string `json:"status" form:"status"`
	Note        string `json:"observacao" form:"observacao"`
}

func (p orderPayload) toInput() (service.Input, error) {
	var status entity.Status
	if p.Status != "" {
		parsed, err := entity.ParseStatus(p.Status)
		if err != nil {
			return service.Input{}, errorbank.BadRequest("unrecognized status", errorbank.WithCause(err))
		}
		status = parsed
	}
	return service.Input{
		Number:      p.Number,
		Customer:    p.Customer,
		Salesperson: p.Salesperson,
		Status:      status,
		Note:        p.Note,
	}, nil
}

func (h *Handler) dashboard(c echo.Context) error {
	b := response.New(c)

	day := time.Now()
	if raw := c.QueryParam("data"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return b.WithError(errorbank.Parse("invalid date, expected YYYY-MM-DD", errorbank.WithCause(err))).Build()
		}
		day = parsed
	}
	day = entity.Day(day)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.dashboard", trace.WithAttributes(attribute.String("day", day.Format(time.DateOnly))))
	defer span.End()

	received, pending, err := h.svc.Dashboard(ctx, day)
	if err != nil {
		return b.WithError(err).Build()
	}

	yesterday, err := h.svc.ReceivedOnDate(ctx, day.AddDate(0, 0, -1))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.DashboardResponse{
		Day:               day.Format(time.DateOnly),
		Received:          toDTOs(received),
		Pending:           toDTOs(pending),
		ReceivedYesterday: toDTOs(yesterday),
	}).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload orderPayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	in, err := payload.toInput()
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create", trace.WithAttributes(attribute.String("order.number", in.Number)))
	defer span.End()

	so, err := h.svc.Create(ctx, in)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(toDTO(so)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	so, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(so)).Build()
}

func (h *Handler) quickReceive(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.quickReceive", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	so, err := h.svc.QuickReceive(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithMessage("service order received").WithData(toDTO(so)).Build()
}

func (h *Handler) edit(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload orderPayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	in, err := payload.toInput()
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.edit", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	so, err := h.svc.Edit(ctx, id, in)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithMessage("service order updated").WithData(toDTO(so)).Build()
}

func (h *Handler) remove(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.remove", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}

	return b.WithMessage("service order removed").Build()
}

func (h *Handler) history(c echo.Context) error {
	b := response.New(c)

	filter := c.QueryParam("data")

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.history")
	defer span.End()

	orders, err := h.svc.History(ctx, filter)
	if err != nil {
		return b.WithError(err).Build()
	}

	if filter != "" {
		b.WithMeta("filter_date", filter)
	}
	return b.WithData(toDTOs(orders)).Build()
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errorbank.BadRequest("invalid id", errorbank.WithCause(err))
	}
	return id, nil
}

func toDTO(so *entity.ServiceOrder) dto.OrderResponse {
	return dto.OrderResponse{
		ID:           so.ID,
		Number:       so.Number,
		Customer:     so.Customer,
		Salesperson:  so.Salesperson,
		Status:       string(so.Status),
		Note:         so.Note,
		RegisteredAt: so.RegisteredAt,
		ReportDate:   so.ReportDate.Format(time.DateOnly),
	}
}

func toDTOs(orders []entity.ServiceOrder) []dto.OrderResponse {
	out := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toDTO(&orders[i]))
	}
	return out
}
