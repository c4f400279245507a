package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/osdesk/ostrack/internal/config"
	"github.com/osdesk/ostrack/internal/entity"
)

// Artifacts describes the files produced by one report run.
type Artifacts struct {
	RunID       string    `json:"run_id"`
	Day         time.Time `json:"day"`
	CSVPath     string    `json:"csv_path"`
	PDFPath     string    `json:"pdf_path"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Generator renders one day's report snapshot into a CSV file and a styled
// PDF under the configured reports directory.
type Generator struct {
	dir    string
	logo   string
	logger *zap.Logger
}

// NewGenerator constructs a Generator from configuration.
func NewGenerator(cfg config.Config, logger *zap.Logger) *Generator {
	return &Generator{
		dir:    cfg.Reports.Dir,
		logo:   cfg.Reports.LogoPath,
		logger: logger,
	}
}

var columns = []string{"Date", "Time", "Number", "Customer", "Salesperson", "Note"}

const placeholder = "No records."

// Generate writes report_<day>.csv and report_<day>.pdf for the given
// partitions, creating the reports directory when absent. IO failures
// propagate untouched.
func (g *Generator) Generate(day time.Time, received, pending []entity.ServiceOrder) (*Artifacts, error) {
	day = entity.Day(day)

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}

	stamp := day.Format(time.DateOnly)
	art := &Artifacts{
		RunID:       uuid.NewString(),
		Day:         day,
		CSVPath:     filepath.Join(g.dir, fmt.Sprintf("report_%s.csv", stamp)),
		PDFPath:     filepath.Join(g.dir, fmt.Sprintf("report_%s.pdf", stamp)),
		GeneratedAt: time.Now(),
	}

	if err := g.writeCSV(art.CSVPath, received, pending); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	if err := g.writePDF(art.PDFPath, day, received, pending); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}

	if g.logger != nil {
		g.logger.Info("report generated",
			zap.String("run_id", art.RunID),
			zap.String("day", stamp),
			zap.Int("received", len(received)),
			zap.Int("pending", len(pending)),
		)
	}
	return art, nil
}

func (g *Generator) writeCSV(path string, received, pending []entity.ServiceOrder) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	writeSection := func(label string, orders []entity.ServiceOrder) error {
		if err := w.Write([]string{label}); err != nil {
			return err
		}
		if err := w.Write(columns); err != nil {
			return err
		}
		for i := range orders {
			if err := w.Write(row(&orders[i])); err != nil {
				return err
			}
		}
		return nil
	}

	if err := writeSection("=== RECEIVED ===", received); err != nil {
		return err
	}
	if err := w.Write([]string{}); err != nil {
		return err
	}
	if err := writeSection("=== PENDING ===", pending); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func (g *Generator) writePDF(path string, day time.Time, received, pending []entity.ServiceOrder) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	if g.logo != "" {
		if _, err := os.Stat(g.logo); err == nil {
			pdf.ImageOptions(g.logo, 10, 10, 30, 0, false, fpdf.ImageOptions{}, 0, "")
			pdf.SetY(28)
		}
	}

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("Service Order Report - %s", day.Format("02/01/2006")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	g.writeTable(pdf, "Received Orders", received)
	g.writeTable(pdf, "Pending Orders", pending)

	return pdf.OutputFileAndClose(path)
}

// Column widths in mm; together they span the printable A4 width.
var widths = []float64{22, 14, 28, 42, 38, 46}

func (g *Generator) writeTable(pdf *fpdf.Fpdf, title string, orders []entity.ServiceOrder) {
	const lineHeight = 5.5

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(211, 211, 211)
	for i, col := range columns {
		pdf.CellFormat(widths[i], 7, col, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)

	rows := make([][]string, 0, len(orders))
	for i := range orders {
		rows = append(rows, row(&orders[i]))
	}
	if len(rows) == 0 {
		rows = append(rows, []string{"-", "-", "-", "-", "-", placeholder})
	}

	for _, cells := range rows {
		// Wrapped cells: the row height follows the tallest column.
		lines := 1
		for i, cell := range cells {
			n := len(pdf.SplitText(cell, widths[i]-2))
			if n > lines {
				lines = n
			}
		}
		height := float64(lines) * lineHeight

		x, y := pdf.GetXY()
		for i, cell := range cells {
			pdf.Rect(x, y, widths[i], height, "D")
			pdf.SetXY(x+1, y)
			pdf.MultiCell(widths[i]-2, lineHeight, cell, "", "L", false)
			x += widths[i]
			pdf.SetXY(x, y)
		}
		pdf.SetXY(pdf.GetX()-sum(widths), y+height)
	}
	pdf.Ln(6)
}

func row(so *entity.ServiceOrder) []string {
	return []string{
		so.ReportDate.Format("02/01/2006"),
		so.RegisteredAt.Format("15:04"),
		so.Number,
		so.Customer,
		so.Salesperson,
		so.Note,
	}
}

func sum(ws []float64) float64 {
	var total float64
	for _, w := range ws {
		total += w
	}
	return total
}
