package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Dan9191/budget-tracker/internal/models"
)

// MonthlyStats returns income/expense totals for every month of the given
// year. A year of 0 means the current calendar year.
func (s *Service) MonthlyStats(userID int64, year int) ([]models.MonthlyStat, error) {
	if year <= 0 {
		year = time.Now().Year()
	}
	transactions, err := s.store.ListTransactionsByYear(userID, year)
	if err != nil {
		return nil, err
	}
	return ComputeMonthlyStats(year, transactions), nil
}

// YearlyStats returns income/expense totals for every year the user has
// transactions in
func (s *Service) YearlyStats(userID int64) ([]models.YearlyStat, error) {
	transactions, err := s.store.ListTransactions(userID)
	if err != nil {
		return nil, err
	}
	return ComputeYearlyStats(transactions), nil
}

// CategoryTrendsMonthly returns one pivot row per month of the given year
// with a signed total per category. A year of 0 means the current year.
func (s *Service) CategoryTrendsMonthly(userID int64, year int) ([]models.TrendRow, error) {
	if year <= 0 {
		year = time.Now().Year()
	}
	transactions, err := s.store.ListTransactionsByYear(userID, year)
	if err != nil {
		return nil, err
	}
	return ComputeCategoryTrendsMonthly(year, transactions), nil
}

// CategoryTrendsYearly returns one pivot row per year with data, with a
// signed total per category
func (s *Service) CategoryTrendsYearly(userID int64) ([]models.TrendRow, error) {
	transactions, err := s.store.ListTransactions(userID)
	if err != nil {
		return nil, err
	}
	return ComputeCategoryTrendsYearly(transactions), nil
}

// signedAmount maps a transaction to its contribution to any aggregate:
// +amount for income, -|amount| for expenses.
func signedAmount(tx models.Transaction) float64 {
	if tx.Type == models.TypeExpense {
		return -math.Abs(tx.Amount)
	}
	return tx.Amount
}

// monthLabel formats a month as YYYY-MM
func monthLabel(year, month int) string {
	return fmt.Sprintf("%d-%02d", year, month)
}

// ComputeMonthlyStats groups transactions of one calendar year by month and
// sums income and expense separately. The result always holds exactly 12
// rows in ascending month order; months without data carry zero totals.
func ComputeMonthlyStats(year int, transactions []models.Transaction) []models.MonthlyStat {
	stats := make([]models.MonthlyStat, 12)
	for i := range stats {
		stats[i].Month = monthLabel(year, i+1)
	}

	for _, tx := range transactions {
		if tx.Date.Year() != year {
			continue
		}
		row := &stats[int(tx.Date.Month())-1]
		switch tx.Type {
		case models.TypeIncome:
			row.Income += tx.Amount
		case models.TypeExpense:
			row.Expense -= math.Abs(tx.Amount)
		}
	}
	return stats
}

// ComputeYearlyStats groups all transactions by calendar year. Only years
// with at least one transaction appear, in ascending order.
func ComputeYearlyStats(transactions []models.Transaction) []models.YearlyStat {
	byYear := make(map[int]*models.YearlyStat)
	for _, tx := range transactions {
		year := tx.Date.Year()
		row, ok := byYear[year]
		if !ok {
			row = &models.YearlyStat{Year: year}
			byYear[year] = row
		}
		switch tx.Type {
		case models.TypeIncome:
			row.Income += tx.Amount
		case models.TypeExpense:
			row.Expense -= math.Abs(tx.Amount)
		}
	}

	years := make([]int, 0, len(byYear))
	for year := range byYear {
		years = append(years, year)
	}
	sort.Ints(years)

	stats := make([]models.YearlyStat, 0, len(years))
	for _, year := range years {
		stats = append(stats, *byYear[year])
	}
	return stats
}

// ComputeCategoryTrendsMonthly pivots one year of transactions into 12 rows
// keyed "month", one column per category observed that year. Expenses
// contribute negatively; a category seen as both income and expense within
// the same month sums its signed contributions. Missing combinations are 0.
func ComputeCategoryTrendsMonthly(year int, transactions []models.Transaction) []models.TrendRow {
	totals := make(map[int]map[string]float64) // month -> category -> signed total
	categories := map[string]bool{}
	for _, tx := range transactions {
		if tx.Date.Year() != year {
			continue
		}
		month := int(tx.Date.Month())
		if totals[month] == nil {
			totals[month] = make(map[string]float64)
		}
		totals[month][tx.Category] += signedAmount(tx)
		categories[tx.Category] = true
	}

	rows := make([]models.TrendRow, 0, 12)
	for month := 1; month <= 12; month++ {
		row := models.TrendRow{"month": monthLabel(year, month)}
		for category := range categories {
			row[category] = totals[month][category]
		}
		rows = append(rows, row)
	}
	return rows
}

// ComputeCategoryTrendsYearly pivots all transactions into one row per year
// with data, keyed "year", one column per category ever observed. Missing
// combinations are 0.
func ComputeCategoryTrendsYearly(transactions []models.Transaction) []models.TrendRow {
	totals := make(map[int]map[string]float64) // year -> category -> signed total
	categories := map[string]bool{}
	for _, tx := range transactions {
		year := tx.Date.Year()
		if totals[year] == nil {
			totals[year] = make(map[string]float64)
		}
		totals[year][tx.Category] += signedAmount(tx)
		categories[tx.Category] = true
	}

	years := make([]int, 0, len(totals))
	for year := range totals {
		years = append(years, year)
	}
	sort.Ints(years)

	rows := make([]models.TrendRow, 0, len(years))
	for _, year := range years {
		row := models.TrendRow{"year": year}
		for category := range categories {
			row[category] = totals[year][category]
		}
		rows = append(rows, row)
	}
	return rows
}
