package order

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/osdesk/ostrack/internal/config"
	"github.com/osdesk/ostrack/internal/entity"
	repo "github.com/osdesk/ostrack/internal/repository/order"
	service "github.com/osdesk/ostrack/internal/service/order"
)

type stubRepo struct {
	nextID int64
	byID   map[int64]entity.ServiceOrder
}

func newStubRepo() *stubRepo {
	return &stubRepo{byID: map[int64]entity.ServiceOrder{}}
}

func (s *stubRepo) Create(_ context.Context, so *entity.ServiceOrder) error {
	s.nextID++
	so.ID = s.nextID
	s.byID[so.ID] = *so
	return nil
}

func (s *stubRepo) GetByID(_ context.Context, id int64) (*entity.ServiceOrder, error) {
	so, ok := s.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &so, nil
}

func (s *stubRepo) Update(_ context.Context, so *entity.ServiceOrder) error {
	if _, ok := s.byID[so.ID]; !ok {
		return repo.ErrNotFound
	}
	s.byID[so.ID] = *so
	return nil
}

func (s *stubRepo) Delete(_ context.Context, id int64) error {
	if _, ok := s.byID[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *stubRepo) DashboardSet(context.Context, time.Time) ([]entity.ServiceOrder, error) {
	return nil, nil
}

func (s *stubRepo) ReceivedOn(context.Context, time.Time) ([]entity.ServiceOrder, error) {
	return nil, nil
}

func (s *stubRepo) ForDay(context.Context, time.Time) ([]entity.ServiceOrder, error) {
	return nil, nil
}

func (s *stubRepo) History(context.Context, *time.Time, int) ([]entity.ServiceOrder, error) {
	return nil, nil
}

func newTestServer(t *testing.T) (*echo.Echo, *stubRepo) {
	t.Helper()
	store := newStubRepo()
	svc := service.NewService(service.Params{
		Repository: store,
		Config:     config.Config{History: config.History{Limit: 50}},
		Logger:     zap.NewNop(),
	})
	e := echo.New()
	Register(e, NewHandler(svc))
	return e, store
}

func postForm(e *echo.Echo, method, target string, form url.Values) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreateOrderFromForm(t *testing.T) {
	e, store := newTestServer(t)

	rec := postForm(e, http.MethodPost, "/orders", url.Values{
		"numero_os":  {"OS-200"},
		"cliente":    {"Oficina Central"},
		"vendedor":   {"Marina"},
		"observacao": {"front bumper"},
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"number":"OS-200"`)
	require.Len(t, store.byID, 1)
	created := store.byID[1]
	assert.Equal(t, "OS-200", created.Number)
	assert.Equal(t, entity.StatusPending, created.Status, "status defaults to pending")
	assert.Equal(t, "front bumper", created.Note)
}

func TestCreateOrderRejectsUnknownStatus(t *testing.T) {
	e, store := newTestServer(t)

	rec := postForm(e, http.MethodPost, "/orders", url.Values{
		"numero_os": {"OS-200"},
		"cliente":   {"Oficina Central"},
		"vendedor":  {"Marina"},
		"status":    {"lost"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.byID)
}

func TestCreateOrderRequiresFields(t *testing.T) {
	e, store := newTestServer(t)

	rec := postForm(e, http.MethodPost, "/orders", url.Values{
		"numero_os": {"OS-200"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.byID)
}

func TestQuickReceiveEndpoint(t *testing.T) {
	e, store := newTestServer(t)
	store.byID[7] = entity.ServiceOrder{
		ID: 7, Number: "OS-7", Customer: "C", Salesperson: "S",
		Status:       entity.StatusPending,
		RegisteredAt: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		ReportDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	store.nextID = 7

	rec := postForm(e, http.MethodPost, "/orders/7/receive", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	got := store.byID[7]
	assert.Equal(t, entity.StatusReceived, got.Status)
	assert.True(t, got.RegisteredAt.Equal(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)))
	assert.Contains(t, rec.Body.String(), "service order received")
}

func TestQuickReceiveMissingOrder(t *testing.T) {
	e, _ := newTestServer(t)

	rec := postForm(e, http.MethodPost, "/orders/99/receive", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestDeleteOutcomes(t *testing.T) {
	e, store := newTestServer(t)
	store.byID[3] = entity.ServiceOrder{ID: 3, Number: "OS-3", Customer: "C", Salesperson: "S", Status: entity.StatusPending}
	store.nextID = 3

	rec := postForm(e, http.MethodDelete, "/orders/3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "service order removed")
	assert.Empty(t, store.byID)

	rec = postForm(e, http.MethodDelete, "/orders/3", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvalidIDParam(t *testing.T) {
	e, _ := newTestServer(t)

	rec := postForm(e, http.MethodDelete, "/orders/abc", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryFailsSoftOnBadDate(t *testing.T) {
	e, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/history?data=31-12-2024", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
}
