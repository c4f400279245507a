package order

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/osdesk/ostrack/internal/config"
	"github.com/osdesk/ostrack/internal/entity"
	repo "github.com/osdesk/ostrack/internal/repository/order"
	"github.com/osdesk/ostrack/pkg/errorbank"
)

// memRepo mirrors the SQL predicates of the real repository over an
// in-memory slice so the lifecycle rules can be exercised without a
// database.
type memRepo struct {
	nextID int64
	orders []entity.ServiceOrder
}

func (m *memRepo) Create(_ context.Context, so *entity.ServiceOrder) error {
	m.nextID++
	so.ID = m.nextID
	m.orders = append(m.orders, *so)
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id int64) (*entity.ServiceOrder, error) {
	for i := range m.orders {
		if m.orders[i].ID == id {
			cp := m.orders[i]
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memRepo) Update(_ context.Context, so *entity.ServiceOrder) error {
	for i := range m.orders {
		if m.orders[i].ID == so.ID {
			m.orders[i] = *so
			return nil
		}
	}
	return repo.ErrNotFound
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	for i := range m.orders {
		if m.orders[i].ID == id {
			m.orders = append(m.orders[:i], m.orders[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

func (m *memRepo) DashboardSet(_ context.Context, day time.Time) ([]entity.ServiceOrder, error) {
	day = entity.Day(day)
	var out []entity.ServiceOrder
	for _, so := range m.orders {
		if so.ReportDate.Equal(day) || (so.Status == entity.StatusPending && so.ReportDate.Before(day)) {
			out = append(out, so)
		}
	}
	return out, nil
}

func (m *memRepo) ReceivedOn(_ context.Context, day time.Time) ([]entity.ServiceOrder, error) {
	day = entity.Day(day)
	var out []entity.ServiceOrder
	for _, so := range m.orders {
		if so.ReportDate.Equal(day) && so.Status == entity.StatusReceived {
			out = append(out, so)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.Before(out[j].RegisteredAt) })
	return out, nil
}

func (m *memRepo) ForDay(_ context.Context, day time.Time) ([]entity.ServiceOrder, error) {
	day = entity.Day(day)
	var out []entity.ServiceOrder
	for _, so := range m.orders {
		if so.ReportDate.Equal(day) {
			out = append(out, so)
		}
	}
	return out, nil
}

func (m *memRepo) History(_ context.Context, day *time.Time, limit int) ([]entity.ServiceOrder, error) {
	var out []entity.ServiceOrder
	for _, so := range m.orders {
		if day != nil {
			start := entity.Day(*day)
			end := start.Add(24 * time.Hour)
			if so.RegisteredAt.Before(start) || !so.RegisteredAt.Before(end) {
				continue
			}
		}
		out = append(out, so)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.After(out[j].RegisteredAt) })
	if day == nil && limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func newTestService(t *testing.T) (*Service, *memRepo) {
	t.Helper()
	store := &memRepo{}
	svc := NewService(Params{
		Repository: store,
		Config:     config.Config{History: config.History{Limit: 50}},
		Logger:     zap.NewNop(),
	})
	return svc, store
}

func at(t *testing.T, svc *Service, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	svc.now = func() time.Time { return parsed }
	return parsed
}

func validInput() Input {
	return Input{
		Number:      "OS-100",
		Customer:    "Oficina Central",
		Salesperson: "Marina",
	}
}

func TestCreateDefaults(t *testing.T) {
	svc, _ := newTestService(t)
	now := at(t, svc, "2024-01-01T09:30:00Z")

	so, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, entity.StatusPending, so.Status)
	assert.True(t, so.RegisteredAt.Equal(now))
	assert.True(t, so.ReportDate.Equal(entity.Day(now)))
	assert.NotZero(t, so.ID)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)

	cases := []struct {
		name   string
		mutate func(*Input)
	}{
		{"missing number", func(in *Input) { in.Number = "" }},
		{"missing customer", func(in *Input) { in.Customer = "" }},
		{"missing salesperson", func(in *Input) { in.Salesperson = "" }},
		{"bogus status", func(in *Input) { in.Status = "lost" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := svc.Create(context.Background(), in)
			require.Error(t, err)
			assert.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())
		})
	}
}

func TestQuickReceiveKeepsRegisteredAt(t *testing.T) {
	svc, _ := newTestService(t)
	createdAt := at(t, svc, "2024-01-01T09:00:00Z")

	so, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	later := at(t, svc, "2024-01-03T14:00:00Z")

	got, err := svc.QuickReceive(context.Background(), so.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusReceived, got.Status)
	assert.True(t, got.ReportDate.Equal(entity.Day(later)), "quick receive pulls the order into today's report")
	assert.True(t, got.RegisteredAt.Equal(createdAt), "quick receive must not touch registered_at")
}

func TestQuickReceiveNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.QuickReceive(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, errorbank.KindNotFound, errorbank.From(err).Kind())
}

func TestEditStampsOnlyOnPendingToReceived(t *testing.T) {
	svc, _ := newTestService(t)

	t.Run("pending to received stamps", func(t *testing.T) {
		at(t, svc, "2024-01-01T09:00:00Z")
		so, err := svc.Create(context.Background(), validInput())
		require.NoError(t, err)

		editAt := at(t, svc, "2024-01-02T10:00:00Z")
		in := validInput()
		in.Status = entity.StatusReceived
		got, err := svc.Edit(context.Background(), so.ID, in)
		require.NoError(t, err)

		assert.Equal(t, entity.StatusReceived, got.Status)
		assert.True(t, got.RegisteredAt.Equal(editAt))
		assert.True(t, got.ReportDate.Equal(so.ReportDate), "edit never moves report_date")
	})

	t.Run("received to received keeps timestamp", func(t *testing.T) {
		createdAt := at(t, svc, "2024-01-01T09:00:00Z")
		in := validInput()
		in.Status = entity.StatusReceived
		so, err := svc.Create(context.Background(), in)
		require.NoError(t, err)

		at(t, svc, "2024-01-05T10:00:00Z")
		in.Note = "updated"
		got, err := svc.Edit(context.Background(), so.ID, in)
		require.NoError(t, err)

		assert.True(t, got.RegisteredAt.Equal(createdAt))
		assert.Equal(t, "updated", got.Note)
	})

	t.Run("received back to pending keeps timestamp", func(t *testing.T) {
		createdAt := at(t, svc, "2024-01-01T09:00:00Z")
		in := validInput()
		in.Status = entity.StatusReceived
		so, err := svc.Create(context.Background(), in)
		require.NoError(t, err)

		at(t, svc, "2024-01-06T10:00:00Z")
		in.Status = entity.StatusPending
		got, err := svc.Edit(context.Background(), so.ID, in)
		require.NoError(t, err)

		assert.Equal(t, entity.StatusPending, got.Status)
		assert.True(t, got.RegisteredAt.Equal(createdAt))
	})
}

func TestDeleteOutcomes(t *testing.T) {
	svc, store := newTestService(t)
	at(t, svc, "2024-01-01T09:00:00Z")

	so, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	other, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	err = svc.Delete(context.Background(), 999)
	require.Error(t, err)
	assert.Equal(t, errorbank.KindNotFound, errorbank.From(err).Kind())
	assert.Len(t, store.orders, 2, "failed delete leaves the store unchanged")

	require.NoError(t, svc.Delete(context.Background(), so.ID))
	assert.Len(t, store.orders, 1)
	assert.Equal(t, other.ID, store.orders[0].ID)
}

func TestDashboardCarryOver(t *testing.T) {
	svc, _ := newTestService(t)

	at(t, svc, "2024-01-01T09:00:00Z")
	stale, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	receivedIn := validInput()
	receivedIn.Status = entity.StatusReceived
	_, err = svc.Create(context.Background(), receivedIn)
	require.NoError(t, err)

	day := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	received, pending, err := svc.Dashboard(context.Background(), day)
	require.NoError(t, err)

	assert.Empty(t, received, "an old received order never carries over")
	require.Len(t, pending, 1, "a pending order carries over no matter how old")
	assert.Equal(t, stale.ID, pending[0].ID)
}

func TestQuickReceiveMovesOrderBetweenReports(t *testing.T) {
	svc, _ := newTestService(t)

	at(t, svc, "2024-01-01T09:00:00Z")
	so, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	at(t, svc, "2024-01-03T11:00:00Z")
	_, err = svc.QuickReceive(context.Background(), so.ID)
	require.NoError(t, err)

	jan3 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	received, pending, err := svc.ReportSet(context.Background(), jan3)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, so.ID, received[0].ID)
	assert.Empty(t, pending)

	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	received, pending, err = svc.ReportSet(context.Background(), jan1)
	require.NoError(t, err)
	assert.Empty(t, received)
	assert.Empty(t, pending, "the order left its original report day entirely")
}

func TestReportSetExcludesCarriedOverPending(t *testing.T) {
	svc, _ := newTestService(t)

	at(t, svc, "2024-01-01T09:00:00Z")
	_, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	jan3 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	received, pending, err := svc.ReportSet(context.Background(), jan3)
	require.NoError(t, err)
	assert.Empty(t, received)
	assert.Empty(t, pending, "the report snapshot never carries over stale pending rows")
}

func TestReceivedOnDateOrdering(t *testing.T) {
	svc, _ := newTestService(t)

	for _, stamp := range []string{"2024-01-02T15:00:00Z", "2024-01-02T08:00:00Z", "2024-01-02T11:30:00Z"} {
		at(t, svc, stamp)
		in := validInput()
		in.Status = entity.StatusReceived
		_, err := svc.Create(context.Background(), in)
		require.NoError(t, err)
	}

	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	got, err := svc.ReceivedOnDate(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.True(t, !got[i].RegisteredAt.Before(got[i-1].RegisteredAt), "ordered by time of day ascending")
	}
}

func TestHistory(t *testing.T) {
	svc, _ := newTestService(t)

	base, err := time.Parse(time.RFC3339, "2024-02-01T08:00:00Z")
	require.NoError(t, err)
	for i := 0; i < 60; i++ {
		stamp := base.Add(time.Duration(i) * time.Minute)
		svc.now = func() time.Time { return stamp }
		in := validInput()
		in.Number = fmt.Sprintf("OS-%03d", i)
		_, err := svc.Create(context.Background(), in)
		require.NoError(t, err)
	}

	t.Run("unfiltered caps at 50 newest first", func(t *testing.T) {
		got, err := svc.History(context.Background(), "")
		require.NoError(t, err)
		require.Len(t, got, 50)
		assert.Equal(t, "OS-059", got[0].Number)
		for i := 1; i < len(got); i++ {
			assert.True(t, !got[i].RegisteredAt.After(got[i-1].RegisteredAt))
		}
	})

	t.Run("date filter matches the calendar day", func(t *testing.T) {
		got, err := svc.History(context.Background(), "2024-02-01")
		require.NoError(t, err)
		assert.Len(t, got, 60)
	})

	t.Run("date before any data yields empty", func(t *testing.T) {
		got, err := svc.History(context.Background(), "1999-01-01")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("malformed date fails soft", func(t *testing.T) {
		got, err := svc.History(context.Background(), "not-a-date")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
