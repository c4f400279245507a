package report

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/osdesk/ostrack/internal/dto"
	"github.com/osdesk/ostrack/internal/presentation/http/response"
	"github.com/osdesk/ostrack/internal/report"
	service "github.com/osdesk/ostrack/internal/service/report"
	"github.com/osdesk/ostrack/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/osdesk/ostrack/transport/http/report")

// Handler exposes report endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a report Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/reports")
	g.POST("", h.generate)
	g.GET("/latest", h.latest)
}

func (h *Handler) generate(c echo.Context) error {
	b := response.New(c)

	day := time.Now()
	if raw := c.QueryParam("data"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return b.WithError(errorbank.Parse("invalid date, expected YYYY-MM-DD", errorbank.WithCause(err))).Build()
		}
		day = parsed
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "reports.generate")
	defer span.End()

	art, err := h.svc.Generate(ctx, day)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithMessage("report generated").WithData(toDTO(art)).Build()
}

func (h *Handler) latest(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "reports.latest")
	defer span.End()

	art, err := h.svc.Latest(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(art)).Build()
}

func toDTO(art *report.Artifacts) dto.ReportResponse {
	return dto.ReportResponse{
		RunID:       art.RunID,
		Day:         art.Day.Format(time.DateOnly),
		CSVPath:     art.CSVPath,
		PDFPath:     art.PDFPath,
		GeneratedAt: art.GeneratedAt,
	}
}
