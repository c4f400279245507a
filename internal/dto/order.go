package dto

import "time"

// OrderResponse represents a service order as exposed via transport layers.
type OrderResponse struct {
	ID           int64     `json:"id"`
	Number       string    `json:"number"`
	Customer     string    `json:"customer"`
	Salesperson  string    `json:"salesperson"`
	Status       string    `json:"status"`
	Note         string    `json:"note,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
	ReportDate   string    `json:"report_date"`
}

// DashboardResponse groups the day's partitions plus the prior day's
// received orders.
type DashboardResponse struct {
	Day               string          `json:"day"`
	Received          []OrderResponse `json:"received"`
	Pending           []OrderResponse `json:"pending"`
	ReceivedYesterday []OrderResponse `json:"received_yesterday"`
}

// ReportResponse describes the artifacts produced by a report run.
type ReportResponse struct {
	RunID       string    `json:"run_id"`
	Day         string    `json:"day"`
	CSVPath     string    `json:"csv_path"`
	PDFPath     string    `json:"pdf_path"`
	GeneratedAt time.Time `json:"generated_at"`
}
