package finance

import (
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/mueblesworkflow/backend/internal/models"
)

// MonthlyAmount is one row of a per-month series, keyed "YYYY-MM".
type MonthlyAmount struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

type KPIs struct {
	TotalIncome   float64 `json:"totalIncome"`
	TotalCashflow float64 `json:"totalCashflow"`
	TotalExpenses float64 `json:"totalExpenses"`
	TotalProfit   float64 `json:"totalProfit"`
}

type Series struct {
	Income   []MonthlyAmount `json:"income"`
	Cashflow []MonthlyAmount `json:"cashflow"`
	Expenses []MonthlyAmount `json:"expenses"`
	Profit   []MonthlyAmount `json:"profit"`
}

type DashboardResponse struct {
	From   string `json:"from"`
	To     string `json:"to"`
	KPIs   KPIs   `json:"kpis"`
	Series Series `json:"series"`
}

type UserPerformanceRow struct {
	UserName  string  `json:"userName"`
	UnitsSold int64   `json:"unitsSold"`
	Income    float64 `json:"income"`
}

type Service struct {
	DB *gorm.DB
}

// Dashboard aggregates the range into aligned monthly series:
// income groups order prices by start month, cashflow groups payments by
// payment month, expenses groups costs by cost month, profit is
// income - expenses. Every month of the range appears even when empty.
func (s *Service) Dashboard(from, to time.Time) (DashboardResponse, error) {
	var orders []models.Product
	if err := s.DB.Where("start_date BETWEEN ? AND ?", from, endOfDay(to)).Find(&orders).Error; err != nil {
		return DashboardResponse{}, fmt.Errorf("finance: load orders: %w", err)
	}

	var payments []models.Payment
	if err := s.DB.Where("date BETWEEN ? AND ?", from, endOfDay(to)).Find(&payments).Error; err != nil {
		return DashboardResponse{}, fmt.Errorf("finance: load payments: %w", err)
	}

	var costs []models.Cost
	if err := s.DB.Where("date BETWEEN ? AND ?", from, endOfDay(to)).Find(&costs).Error; err != nil {
		return DashboardResponse{}, fmt.Errorf("finance: load costs: %w", err)
	}

	income := map[string]float64{}
	for _, o := range orders {
		income[monthKey(o.StartDate)] += o.UnitPrice
	}
	cashflow := map[string]float64{}
	for _, p := range payments {
		cashflow[monthKey(p.Date)] += p.Amount
	}
	expenses := map[string]float64{}
	for _, c := range costs {
		expenses[monthKey(c.Date)] += c.Amount
	}

	months := monthAxis(from, to, income, cashflow, expenses)

	resp := DashboardResponse{
		From: from.Format("2006-01-02"),
		To:   to.Format("2006-01-02"),
	}
	for _, m := range months {
		inc := income[m]
		cf := cashflow[m]
		exp := expenses[m]

		resp.Series.Income = append(resp.Series.Income, MonthlyAmount{Month: m, Total: inc})
		resp.Series.Cashflow = append(resp.Series.Cashflow, MonthlyAmount{Month: m, Total: cf})
		resp.Series.Expenses = append(resp.Series.Expenses, MonthlyAmount{Month: m, Total: exp})
		resp.Series.Profit = append(resp.Series.Profit, MonthlyAmount{Month: m, Total: inc - exp})

		resp.KPIs.TotalIncome += inc
		resp.KPIs.TotalCashflow += cf
		resp.KPIs.TotalExpenses += exp
	}
	resp.KPIs.TotalProfit = resp.KPIs.TotalIncome - resp.KPIs.TotalExpenses

	return resp, nil
}

// UserPerformance totals units and income per order owner in the range.
func (s *Service) UserPerformance(from, to time.Time) ([]UserPerformanceRow, error) {
	var orders []models.Product
	if err := s.DB.Preload("Owner").
		Where("start_date BETWEEN ? AND ?", from, endOfDay(to)).
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("finance: load orders: %w", err)
	}

	byUser := map[string]*UserPerformanceRow{}
	for _, o := range orders {
		name := "unknown"
		if o.Owner != nil {
			name = o.Owner.Username
		}
		row, ok := byUser[name]
		if !ok {
			row = &UserPerformanceRow{UserName: name}
			byUser[name] = row
		}
		row.UnitsSold += o.Quantity
		row.Income += o.UnitPrice
	}

	rows := make([]UserPerformanceRow, 0, len(byUser))
	for _, row := range byUser {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].UserName < rows[j].UserName })
	return rows, nil
}

// monthAxis returns every month between from and to plus any month that
// carries data, sorted ascending.
func monthAxis(from, to time.Time, sets ...map[string]float64) []string {
	seen := map[string]bool{}
	cur := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(end) {
		seen[cur.Format("2006-01")] = true
		cur = cur.AddDate(0, 1, 0)
	}
	for _, set := range sets {
		for m := range set {
			seen[m] = true
		}
	}

	months := make([]string, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	sort.Strings(months)
	return months
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
