package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"playzone/internal/apierror"
	"playzone/internal/dto"
	"playzone/internal/service"
	"playzone/internal/summary"
	"playzone/internal/worker"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportQueue queues closing report mails; *worker.Dispatcher implements it.
type ReportQueue interface {
	EnqueueReportEmail(ctx context.Context, payload worker.ReportEmailPayload) error
}

type ReportsHandler struct {
	svc   service.SummaryService
	queue ReportQueue
	loc   *time.Location
}

func NewReportsHandler(svc service.SummaryService, queue ReportQueue, loc *time.Location) *ReportsHandler {
	return &ReportsHandler{svc: svc, queue: queue, loc: loc}
}

// dateRange parses validated from/to strings in the venue zone.
func (h *ReportsHandler) dateRange(c *gin.Context, fromS, toS string) (time.Time, time.Time, bool) {
	from, err := summary.ParseDate(fromS, h.loc)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, apierror.WithCode("invalid_range", "invalid from date"))
		return from, from, false
	}
	to, err := summary.ParseDate(toS, h.loc)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, apierror.WithCode("invalid_range", "invalid to date"))
		return from, to, false
	}
	return from, to, true
}

// Daily godoc
// @Summary      Daily summary
// @Description  Revenue, expenses, discounts and net income of one calendar date.
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        date query string false "YYYY-MM-DD, default today"
// @Success      200 {object} dto.SummaryResponse
// @Router       /v1/reports/daily [get]
func (h *ReportsHandler) Daily(c *gin.Context) {
	var q dto.DailyQuery
	if !bindQuery(c, &q) {
		return
	}
	day := time.Now().In(h.loc)
	if q.Date != "" {
		d, err := summary.ParseDate(q.Date, h.loc)
		if err != nil {
			respondError(c, fmt.Errorf("%w: date", service.ErrInvalidInput))
			return
		}
		day = d
	}
	resp, err := h.svc.Get(c.Request.Context(), day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Range godoc
// @Summary      Summaries of a date range with totals
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        from query string true "YYYY-MM-DD"
// @Param        to   query string true "YYYY-MM-DD"
// @Success      200 {object} dto.SummaryRangeResponse
// @Failure      422 {object} apierror.APIError
// @Router       /v1/reports/summary [get]
func (h *ReportsHandler) Range(c *gin.Context) {
	var q dto.SummaryRangeQuery
	if !bindQuery(c, &q) {
		return
	}
	from, to, ok := h.dateRange(c, q.From, q.To)
	if !ok {
		return
	}
	resp, err := h.svc.Range(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportXLSX godoc
// @Summary      Download summaries of a date range as a spreadsheet
// @Tags         reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        from query string true "YYYY-MM-DD"
// @Param        to   query string true "YYYY-MM-DD"
// @Success      200 {file} binary
// @Router       /v1/reports/summary.xlsx [get]
func (h *ReportsHandler) ExportXLSX(c *gin.Context) {
	var q dto.SummaryRangeQuery
	if !bindQuery(c, &q) {
		return
	}
	from, to, ok := h.dateRange(c, q.From, q.To)
	if !ok {
		return
	}
	data, err := h.svc.ExportXLSX(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	filename := fmt.Sprintf("summary-%s_%s.xlsx", q.From, q.To)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// Rebuild godoc
// @Summary      Re-derive summaries of a date range from the base rows
// @Tags         reports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body     dto.RebuildRequest true "Range"
// @Success      202  {object} dto.RebuildResponse
// @Router       /v1/reports/rebuild [post]
func (h *ReportsHandler) Rebuild(c *gin.Context) {
	var req dto.RebuildRequest
	if !bindAndValidate(c, &req) {
		return
	}
	from, to, ok := h.dateRange(c, req.From, req.To)
	if !ok {
		return
	}
	n, err := h.svc.RebuildRange(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.RebuildResponse{Queued: n})
}

// SendEmail godoc
// @Summary      Mail the closing report of a date
// @Tags         reports
// @Accept       json
// @Security     BearerAuth
// @Param        body body dto.SendReportRequest true "Date and recipients"
// @Success      202
// @Router       /v1/reports/email [post]
func (h *ReportsHandler) SendEmail(c *gin.Context) {
	var req dto.SendReportRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, apierror.WithCode("unavailable", "job queue not configured"))
		return
	}
	if err := h.queue.EnqueueReportEmail(c.Request.Context(), worker.ReportEmailPayload{Date: req.Date, To: req.To}); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}
