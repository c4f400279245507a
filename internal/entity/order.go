package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Status is the service-order lifecycle state. Exactly two values exist;
// anything else must be rejected at the boundary before it reaches storage.
type Status string

const (
	StatusPending  Status = "pending"
	StatusReceived Status = "received"
)

// ParseStatus validates raw status input. The Portuguese spellings used by
// the desk's legacy intake forms are accepted as aliases.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending", "faltante":
		return StatusPending, nil
	case "received", "recebida":
		return StatusReceived, nil
	default:
		return "", fmt.Errorf("unrecognized status %q", raw)
	}
}

// Valid reports whether s is one of the two known states.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusReceived
}

// Day truncates a timestamp to its calendar day (midnight UTC). Every
// report_date value stored or compared goes through this.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ServiceOrder is a tracked service order ("OS"). ReportDate decides which
// day's dashboard and report the order belongs to; RegisteredAt is the
// creation or reception timestamp and moves independently of ReportDate.
type ServiceOrder struct {
	bun.BaseModel `bun:"table:service_orders"`

	ID           int64     `bun:",pk,autoincrement"`
	Number       string    `bun:"number"`
	Customer     string    `bun:"customer"`
	Salesperson  string    `bun:"salesperson"`
	Status       Status    `bun:"status"`
	Note         string    `bun:"note"`
	RegisteredAt time.Time `bun:"registered_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	ReportDate   time.Time `bun:"report_date,type:date"`
}
