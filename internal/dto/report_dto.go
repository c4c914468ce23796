package dto

import "github.com/shopspring/decimal"

// SummaryRangeQuery is bound from ?from=&to= on the report endpoints.
type SummaryRangeQuery struct {
	From string `form:"from" validate:"required,datetime=2006-01-02"`
	To   string `form:"to"   validate:"required,datetime=2006-01-02"`
}

type RebuildRequest struct {
	From string `json:"from" validate:"required,datetime=2006-01-02"`
	To   string `json:"to"   validate:"required,datetime=2006-01-02"`
}

type RebuildResponse struct {
	Queued int `json:"queued"`
}

type SummaryResponse struct {
	Date            string          `json:"date"`
	SessionsRevenue decimal.Decimal `json:"sessions_revenue"`
	SalesRevenue    decimal.Decimal `json:"sales_revenue"`
	ExpensesTotal   decimal.Decimal `json:"expenses_total"`
	DiscountsTotal  decimal.Decimal `json:"discounts_total"`
	NetIncome       decimal.Decimal `json:"net_income"`
}

// SummaryRangeResponse lists one row per date in range plus the totals.
type SummaryRangeResponse struct {
	Days   []SummaryResponse `json:"days"`
	Totals SummaryResponse   `json:"totals"`
}

type DailyQuery struct {
	Date string `form:"date" validate:"omitempty,datetime=2006-01-02"` // empty = today
}

// SendReportRequest queues the closing report of a date by mail.
type SendReportRequest struct {
	Date string   `json:"date" validate:"required,datetime=2006-01-02"`
	To   []string `json:"to"   validate:"required,min=1,max=10,dive,email"`
}
