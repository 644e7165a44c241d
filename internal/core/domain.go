package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	AccountChecking   AccountType = "CHECKING_ACCOUNT"
	AccountSavings    AccountType = "SAVINGS_ACCOUNT"
	AccountWallet     AccountType = "PHYSICAL_WALLET"
	AccountDigital    AccountType = "DIGITAL_WALLET"
	AccountInvestment AccountType = "INVESTMENT_ACCOUNT"
	AccountOther      AccountType = "OTHER"

	CategoryIncome   CategoryType = "INCOME"
	CategoryExpense  CategoryType = "EXPENSE"
	CategoryTransfer CategoryType = "TRANSFER"

	KindFixed    CategoryKind = "FIXED"
	KindVariable CategoryKind = "VARIABLE"
	KindSavings  CategoryKind = "SAVINGS"
)

type (
	AccountType  string
	CategoryType string
	CategoryKind string

	// Date is a calendar date. On the wire it is "2006-01-02"; full RFC 3339
	// timestamps are accepted on input.
	Date struct {
		time.Time
	}

	Budget struct {
		ID           string   `json:"id"`
		Name         string   `json:"name"`
		Type         string   `json:"type,omitempty"`
		Participants []string `json:"participants,omitempty"`
	}

	Account struct {
		ID       string      `json:"id"`
		BudgetID string      `json:"budgetId"`
		Name     string      `json:"name"`
		Type     AccountType `json:"type"`
		Balance  Money       `json:"balance"`
	}

	Category struct {
		ID       string       `json:"id"`
		BudgetID string       `json:"budgetId"`
		Name     string       `json:"name"`
		Type     CategoryType `json:"type"`
		Kind     CategoryKind `json:"kind,omitempty"`
		Color    string       `json:"color,omitempty"`
		Icon     string       `json:"icon,omitempty"`
		Active   bool         `json:"active"`
		Order    int          `json:"order"`
	}

	Envelope struct {
		ID              string  `json:"id"`
		BudgetID        string  `json:"budgetId"`
		CategoryID      string  `json:"categoryId"`
		Name            string  `json:"name"`
		Limit           Money   `json:"limit"`
		CurrentUsage    Money   `json:"currentUsage"`
		UsagePercentage float64 `json:"usagePercentage"`
	}

	Goal struct {
		ID                string `json:"id"`
		BudgetID          string `json:"budgetId"`
		Name              string `json:"name"`
		TotalAmount       Money  `json:"totalAmount"`
		AccumulatedAmount Money  `json:"accumulatedAmount"`
		Deadline          *Date  `json:"deadline,omitempty"`
		SourceAccountID   string `json:"sourceAccountId,omitempty"`
		CreatedAt         *Date  `json:"createdAt,omitempty"`
	}

	// BudgetOverview is the payload of GET /budget/{id}/overview.
	BudgetOverview struct {
		BudgetID      string `json:"budgetId"`
		Name          string `json:"name"`
		Period        string `json:"period,omitempty"`
		TotalIncome   Money  `json:"totalIncome"`
		TotalExpenses Money  `json:"totalExpenses"`
		Balance       Money  `json:"balance"`
		AccountsTotal Money  `json:"accountsTotal"`
	}

	CategorySpending struct {
		CategoryID   string `json:"categoryId"`
		CategoryName string `json:"categoryName"`
		Amount       Money  `json:"amount"`
	}

	// DashboardInsights is the payload of GET /budget/{id}/dashboard/insights.
	DashboardInsights struct {
		MonthlyIncome          Money              `json:"monthlyIncome"`
		MonthlyExpenses        Money              `json:"monthlyExpenses"`
		AverageMonthlyExpenses Money              `json:"averageMonthlyExpenses"`
		LiquidReserve          Money              `json:"liquidReserve"`
		SpendingByCategory     []CategorySpending `json:"spendingByCategory,omitempty"`
	}
)

var ErrInvalidDate = errors.New("invalid date")

// NewDate creates a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses "2006-01-02" or an RFC 3339 timestamp. A timestamp keeps
// the calendar day of its own offset.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidDate
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(m.Cents, 10)), nil
}

// UnmarshalJSON reads integer cents. Whole-valued floats ("1500.0") are
// tolerated since some encoders emit them.
func (m *Money) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		m.Cents = 0
		return nil
	}
	if c, err := strconv.ParseInt(string(b), 10, 64); err == nil {
		m.Cents = c
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil || f != float64(int64(f)) {
		return ErrInvalidAmount
	}
	m.Cents = int64(f)
	return nil
}

func (t AccountType) IsValid() bool {
	switch t {
	case AccountChecking, AccountSavings, AccountWallet, AccountDigital, AccountInvestment, AccountOther:
		return true
	}
	return false
}

// Label returns the user-facing name of the account type.
func (t AccountType) Label() string {
	switch t {
	case AccountChecking:
		return "Conta corrente"
	case AccountSavings:
		return "Poupança"
	case AccountWallet:
		return "Carteira física"
	case AccountDigital:
		return "Carteira digital"
	case AccountInvestment:
		return "Investimentos"
	case AccountOther:
		return "Outra"
	}
	return string(t)
}

// AccountTypes lists every account type in display order.
func AccountTypes() []AccountType {
	return []AccountType{AccountChecking, AccountSavings, AccountWallet, AccountDigital, AccountInvestment, AccountOther}
}

func (t CategoryType) IsValid() bool {
	switch t {
	case CategoryIncome, CategoryExpense, CategoryTransfer:
		return true
	}
	return false
}

func (t CategoryType) Label() string {
	switch t {
	case CategoryIncome:
		return "Receita"
	case CategoryExpense:
		return "Despesa"
	case CategoryTransfer:
		return "Transferência"
	}
	return string(t)
}

func CategoryTypes() []CategoryType {
	return []CategoryType{CategoryExpense, CategoryIncome, CategoryTransfer}
}

// FindAccount returns the account with the given id from a loaded list.
func FindAccount(accounts []Account, id string) (Account, bool) {
	for _, a := range accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}

func FindGoal(goals []Goal, id string) (Goal, bool) {
	for _, g := range goals {
		if g.ID == id {
			return g, true
		}
	}
	return Goal{}, false
}

func FindCategory(categories []Category, id string) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// TotalBalance sums the balances of the given accounts.
func TotalBalance(accounts []Account) Money {
	var total Money
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total
}
