package http

import (
	"kudi/internal/core"
)

type expenseRequest struct {
	Name     string `json:"name"`
	Amount   string `json:"amount"`
	Currency string `json:"currency,omitempty"`
	Category string `json:"category"`
	Date     string `json:"date,omitempty"`
}

type timeEntryRequest struct {
	Activity        string `json:"activity"`
	DurationSeconds int64  `json:"duration_seconds"`
	Date            string `json:"date,omitempty"`
}

type entryResponse struct {
	ID                string `json:"id"`
	Kind              string `json:"kind"`
	Name              string `json:"name,omitempty"`
	AmountCents       int64  `json:"amount_cents,omitempty"`
	Currency          string `json:"currency,omitempty"`
	NormalizedCents   int64  `json:"normalized_cents,omitempty"`
	ConversionPending bool   `json:"conversion_pending,omitempty"`
	Category          string `json:"category,omitempty"`
	Activity          string `json:"activity,omitempty"`
	DurationSeconds   int64  `json:"duration_seconds,omitempty"`
	Date              string `json:"date"`
	OriginRuleID      string `json:"origin_rule_id,omitempty"`
}

func toEntryResponse(e core.Entry) entryResponse {
	return entryResponse{
		ID:                e.ID,
		Kind:              string(e.Kind),
		Name:              e.Name,
		AmountCents:       e.Amount.Cents,
		Currency:          e.Currency,
		NormalizedCents:   e.Normalized.Cents,
		ConversionPending: e.ConversionPending,
		Category:          e.Category,
		Activity:          e.Activity,
		DurationSeconds:   e.DurationSeconds,
		Date:              e.OccurredAt.String(),
		OriginRuleID:      e.OriginRuleID,
	}
}

type ruleRequest struct {
	Name      string `json:"name"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency,omitempty"`
	Category  string `json:"category"`
	Frequency string `json:"frequency"`
	StartDate string `json:"start_date"`
}

type ruleResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	AmountCents      int64  `json:"amount_cents"`
	Currency         string `json:"currency"`
	Category         string `json:"category"`
	Frequency        string `json:"frequency"`
	StartDate        string `json:"start_date"`
	LastMaterialized string `json:"last_materialized,omitempty"`
}

func toRuleResponse(r core.Rule) ruleResponse {
	resp := ruleResponse{
		ID:          r.ID,
		Name:        r.Name,
		AmountCents: r.Amount.Cents,
		Currency:    r.Currency,
		Category:    r.Category,
		Frequency:   string(r.Frequency),
		StartDate:   r.StartDate.String(),
	}
	if !r.LastMaterialized.IsZero() {
		resp.LastMaterialized = r.LastMaterialized.String()
	}
	return resp
}

type runResponse struct {
	Date         string          `json:"date"`
	Materialized []entryResponse `json:"materialized"`
	Issues       []runIssue      `json:"issues,omitempty"`
}

type runIssue struct {
	RuleID string `json:"rule_id"`
	Error  string `json:"error"`
}

type categoryAmountResponse struct {
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
}

type activityDurationResponse struct {
	Name    string `json:"name"`
	Seconds int64  `json:"seconds"`
}

type summaryResponse struct {
	Date         string                     `json:"date"`
	TodayCents   int64                      `json:"today_cents"`
	WeekCents    int64                      `json:"week_cents"`
	MonthCents   int64                      `json:"month_cents"`
	ByCategory   []categoryAmountResponse   `json:"by_category"`
	TodaySeconds int64                      `json:"today_seconds"`
	WeekSeconds  int64                      `json:"week_seconds"`
	MonthSeconds int64                      `json:"month_seconds"`
	ByActivity   []activityDurationResponse `json:"by_activity"`
}

func toSummaryResponse(s core.Summary) summaryResponse {
	resp := summaryResponse{
		Date:         s.Date.String(),
		TodayCents:   s.TodayCents.Cents,
		WeekCents:    s.WeekCents.Cents,
		MonthCents:   s.MonthCents.Cents,
		TodaySeconds: s.TodaySeconds,
		WeekSeconds:  s.WeekSeconds,
		MonthSeconds: s.MonthSeconds,
		ByCategory:   []categoryAmountResponse{},
		ByActivity:   []activityDurationResponse{},
	}
	for _, c := range s.ByCategory {
		resp.ByCategory = append(resp.ByCategory, categoryAmountResponse{Name: c.Name, AmountCents: c.Amount.Cents})
	}
	for _, a := range s.ByActivity {
		resp.ByActivity = append(resp.ByActivity, activityDurationResponse{Name: a.Name, Seconds: a.Seconds})
	}
	return resp
}

type limitsPayload struct {
	MonthlyCents  int64            `json:"monthly_cents"`
	CategoryCents map[string]int64 `json:"category_cents,omitempty"`
}

type warningsResponse struct {
	Date     string   `json:"date"`
	Warnings []string `json:"warnings"`
}
