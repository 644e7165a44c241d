package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const MaxNameLength = 100

var (
	ErrRequired            = errors.New("required field")
	ErrNameTooLong         = errors.New("name too long")
	ErrSameAccount         = errors.New("source and destination accounts are the same")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAccountNotFound     = errors.New("account not found")
	ErrGoalNotFound        = errors.New("goal not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrBalanceUnchanged    = errors.New("real balance equals recorded balance")
	ErrExceedsAccumulated  = errors.New("amount exceeds accumulated amount")
	ErrInvalidType         = errors.New("invalid type")
	ErrDeadlineInPast      = errors.New("deadline in the past")
)

// ValidationError is a failed rule on one form field. Message is the text
// shown to the user; Err is the sentinel for programmatic checks.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ValidationErrors collects every failed rule of a form.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(v))
	for _, e := range v {
		errs = append(errs, e)
	}
	return errs
}

// Messages returns the user-facing messages in order.
func (v ValidationErrors) Messages() []string {
	out := make([]string, 0, len(v))
	for _, e := range v {
		out = append(out, e.Message)
	}
	return out
}

// Field returns the first error for the named field, if any.
func (v ValidationErrors) Field(name string) *ValidationError {
	for _, e := range v {
		if e.Field == name {
			return e
		}
	}
	return nil
}

func (v *ValidationErrors) add(field, msg string, err error) {
	*v = append(*v, &ValidationError{Field: field, Message: msg, Err: err})
}

// err returns nil for an empty list so callers can compare against nil.
func (v ValidationErrors) err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (v *ValidationErrors) name(field, value string) {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		v.add(field, "Informe o nome", ErrRequired)
	case utf8.RuneCountInString(value) > MaxNameLength:
		v.add(field, "O nome deve ter no máximo 100 caracteres", ErrNameTooLong)
	}
}

// ValidateTransfer checks a transfer against the currently loaded balances.
func ValidateTransfer(req TransferRequest, accounts []Account) error {
	var v ValidationErrors
	if req.Amount.Cents <= 0 {
		v.add("amount", "O valor deve ser maior que zero", ErrAmountNotPositive)
	}
	if req.FromAccountID == "" {
		v.add("fromAccountId", "Selecione a conta de origem", ErrRequired)
	}
	if req.ToAccountID == "" {
		v.add("toAccountId", "Selecione a conta de destino", ErrRequired)
	}
	if req.FromAccountID != "" && req.FromAccountID == req.ToAccountID {
		v.add("toAccountId", "A conta de destino deve ser diferente da origem", ErrSameAccount)
	}
	if len(v) > 0 {
		return v
	}

	from, ok := FindAccount(accounts, req.FromAccountID)
	if !ok {
		v.add("fromAccountId", "Conta de origem não encontrada", ErrAccountNotFound)
	}
	if _, ok := FindAccount(accounts, req.ToAccountID); !ok {
		v.add("toAccountId", "Conta de destino não encontrada", ErrAccountNotFound)
	}
	if len(v) == 0 && req.Amount.Cents > from.Balance.Cents {
		v.add("amount", "Saldo insuficiente na conta de origem", ErrInsufficientBalance)
	}
	return v.err()
}

// ValidateReconcile requires a loaded account whose recorded balance differs
// from the informed real balance.
func ValidateReconcile(req ReconcileRequest, accounts []Account) error {
	var v ValidationErrors
	if req.AccountID == "" {
		v.add("accountId", "Selecione a conta", ErrRequired)
		return v
	}
	acc, ok := FindAccount(accounts, req.AccountID)
	if !ok {
		v.add("accountId", "Conta não encontrada", ErrAccountNotFound)
		return v
	}
	if acc.Balance.Cents == req.RealBalance.Cents {
		v.add("realBalance", "O saldo informado é igual ao saldo registrado", ErrBalanceUnchanged)
	}
	return v.err()
}

// ValidateGoalAmount validates a contribution (remove=false) or a withdrawal.
func ValidateGoalAmount(req GoalAmountRequest, goals []Goal, remove bool) error {
	var v ValidationErrors
	if req.Amount.Cents <= 0 {
		v.add("amount", "O valor deve ser maior que zero", ErrAmountNotPositive)
	}
	g, ok := FindGoal(goals, req.GoalID)
	if !ok {
		v.add("id", "Meta não encontrada", ErrGoalNotFound)
		return v
	}
	if remove && req.Amount.Cents > g.AccumulatedAmount.Cents {
		v.add("amount", "O valor excede o acumulado da meta", ErrExceedsAccumulated)
	}
	return v.err()
}

func ValidateAccount(in AccountInput) error {
	var v ValidationErrors
	v.name("name", in.Name)
	if !in.Type.IsValid() {
		v.add("type", "Tipo de conta inválido", ErrInvalidType)
	}
	return v.err()
}

func ValidateCategory(in CategoryInput) error {
	var v ValidationErrors
	v.name("name", in.Name)
	if !in.Type.IsValid() {
		v.add("type", "Tipo de categoria inválido", ErrInvalidType)
	}
	return v.err()
}

// ValidateEnvelope requires a positive limit and, on creation, a category
// that exists among the loaded ones.
func ValidateEnvelope(in EnvelopeInput, categories []Category) error {
	var v ValidationErrors
	v.name("name", in.Name)
	if in.Limit.Cents <= 0 {
		v.add("limit", "O limite deve ser maior que zero", ErrAmountNotPositive)
	}
	if !in.IsUpdate() {
		switch {
		case in.CategoryID == "":
			v.add("categoryId", "Selecione a categoria", ErrRequired)
		case categories != nil:
			if _, ok := FindCategory(categories, in.CategoryID); !ok {
				v.add("categoryId", "Categoria não encontrada", ErrCategoryNotFound)
			}
		}
	}
	return v.err()
}

// ValidateGoal rejects a past deadline only when creating; an existing goal
// may be edited after its deadline.
func ValidateGoal(in GoalInput, now time.Time) error {
	var v ValidationErrors
	v.name("name", in.Name)
	if in.TotalAmount.Cents <= 0 {
		v.add("totalAmount", "O valor da meta deve ser maior que zero", ErrAmountNotPositive)
	}
	if !in.IsUpdate() && in.Deadline != nil && !in.Deadline.IsZero() &&
		dateOnly(in.Deadline.Time).Before(dateOnly(now)) {
		v.add("deadline", "O prazo não pode estar no passado", ErrDeadlineInPast)
	}
	return v.err()
}
