package worker

// email_worker.go
// Mails the closing report of a date: the summary figures in the body and
// the same date as an XLSX attachment.

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"playzone/internal/dto"
	"playzone/internal/summary"

	"github.com/rs/zerolog/log"
)

// ReportEmailPayload is the job envelope sent to QueueReportEmail.
type ReportEmailPayload struct {
	Date string   `json:"date"` // YYYY-MM-DD
	To   []string `json:"to"`
}

// ReportSource is the slice of the summary service the worker needs.
type ReportSource interface {
	Get(ctx context.Context, day time.Time) (*dto.SummaryResponse, error)
	ExportXLSX(ctx context.Context, from, to time.Time) ([]byte, error)
}

// ReportSender delivers the rendered report.
type ReportSender interface {
	Enabled() bool
	SendReport(to []string, subject, body, filename string, xlsx []byte) error
}

// EmailWorker processes jobs from QueueReportEmail.
type EmailWorker struct {
	reports ReportSource
	mailer  ReportSender
	loc     *time.Location
}

func NewEmailWorker(reports ReportSource, mailer ReportSender, loc *time.Location) *EmailWorker {
	return &EmailWorker{reports: reports, mailer: mailer, loc: loc}
}

// Process renders and sends one closing report.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReportEmailPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("email_worker: invalid payload: %v: %w", err, ErrPermanent)
	}
	if len(payload.To) == 0 {
		log.Warn().Str("date", payload.Date).Msg("email_worker: no recipients, skipping")
		return nil
	}
	if !w.mailer.Enabled() {
		return fmt.Errorf("email_worker: SMTP not configured: %w", ErrPermanent)
	}
	day, err := summary.ParseDate(payload.Date, w.loc)
	if err != nil {
		return fmt.Errorf("email_worker: invalid payload: %v: %w", err, ErrPermanent)
	}

	sum, err := w.reports.Get(ctx, day)
	if err != nil {
		return fmt.Errorf("email_worker: load summary: %w", err)
	}
	xlsx, err := w.reports.ExportXLSX(ctx, day, day)
	if err != nil {
		return fmt.Errorf("email_worker: export: %w", err)
	}

	subject := "Closing report " + payload.Date
	filename := "summary-" + payload.Date + ".xlsx"
	if err := w.mailer.SendReport(payload.To, subject, reportBody(sum), filename, xlsx); err != nil {
		return fmt.Errorf("email_worker: send: %w", err)
	}
	log.Info().Str("date", payload.Date).Strs("to", payload.To).Msg("email_worker: closing report sent")
	return nil
}

func reportBody(s *dto.SummaryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily summary for %s\n\n", s.Date)
	fmt.Fprintf(&b, "Sessions revenue: %s\n", s.SessionsRevenue.StringFixed(2))
	fmt.Fprintf(&b, "Sales revenue:    %s\n", s.SalesRevenue.StringFixed(2))
	fmt.Fprintf(&b, "Expenses:         %s\n", s.ExpensesTotal.StringFixed(2))
	fmt.Fprintf(&b, "Discounts given:  %s\n", s.DiscountsTotal.StringFixed(2))
	fmt.Fprintf(&b, "Net income:       %s\n", s.NetIncome.StringFixed(2))
	return b.String()
}
