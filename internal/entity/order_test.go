package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"pending", StatusPending, false},
		{"received", StatusReceived, false},
		{"Pending", StatusPending, false},
		{"  RECEIVED ", StatusReceived, false},
		{"faltante", StatusPending, false},
		{"Recebida", StatusReceived, false},
		{"", "", true},
		{"done", "", true},
		{"receivedd", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseStatus(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusReceived.Valid())
	assert.False(t, Status("done").Valid())
	assert.False(t, Status("").Valid())
}

func TestDay(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			"utc afternoon",
			time.Date(2024, 3, 15, 14, 30, 45, 12345, time.UTC),
			time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			"already midnight",
			time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			"local zone converts to utc first",
			time.Date(2024, 3, 15, 22, 0, 0, 0, loc),
			time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Day(tc.in)
			assert.True(t, got.Equal(tc.want), "got %v want %v", got, tc.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestDayIdempotent(t *testing.T) {
	in := time.Date(2024, 7, 1, 18, 45, 0, 0, time.UTC)
	assert.True(t, Day(Day(in)).Equal(Day(in)))
}
