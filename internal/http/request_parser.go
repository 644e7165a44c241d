// This file turns submitted forms into request DTOs. Malformed values become
// validation errors on the field they came from, so they reach the user the
// same way as the core validators' messages.

package http

import (
	"net/http"
	"strings"

	"orca/internal/core"
)

// maxFormBytes bounds every submitted form.
const maxFormBytes = 64 << 10

// formReader reads sanitized form values and collects parse failures.
type formReader struct {
	r    *http.Request
	errs core.ValidationErrors
}

// parseForm parses the request body. The error is a 400-worthy failure.
func parseForm(w http.ResponseWriter, r *http.Request) (*formReader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return &formReader{r: r}, nil
}

func (f *formReader) String(key string) string {
	return sanitizeInput(f.r.PostForm.Get(key))
}

// Money parses an amount field. Empty input yields zero so that required
// amount rules stay with the core validators.
func (f *formReader) Money(key string) core.Money {
	raw := f.String(key)
	if raw == "" {
		return core.Money{}
	}
	m, err := core.ParseMoney(raw)
	if err != nil {
		f.fail(key, "Valor inválido", core.ErrInvalidAmount)
		return core.Money{}
	}
	return m
}

// Date parses an optional "2006-01-02" field.
func (f *formReader) Date(key string) *core.Date {
	raw := f.String(key)
	if raw == "" {
		return nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		f.fail(key, "Data inválida", core.ErrInvalidDate)
		return nil
	}
	return &d
}

func (f *formReader) fail(field, msg string, err error) {
	f.errs = append(f.errs, &core.ValidationError{Field: field, Message: msg, Err: err})
}

// Err returns the collected parse failures, nil when there are none.
func (f *formReader) Err() error {
	if len(f.errs) == 0 {
		return nil
	}
	return f.errs
}

func (f *formReader) AccountInput() core.AccountInput {
	return core.AccountInput{
		ID:             f.String("id"),
		Name:           f.String("name"),
		Type:           core.AccountType(f.String("type")),
		InitialBalance: f.Money("initialBalance"),
	}
}

func (f *formReader) CategoryInput() core.CategoryInput {
	return core.CategoryInput{
		ID:    f.String("id"),
		Name:  f.String("name"),
		Type:  core.CategoryType(f.String("type")),
		Kind:  core.CategoryKind(f.String("kind")),
		Color: f.String("color"),
		Icon:  f.String("icon"),
	}
}

func (f *formReader) EnvelopeInput() core.EnvelopeInput {
	return core.EnvelopeInput{
		ID:         f.String("id"),
		CategoryID: f.String("categoryId"),
		Name:       f.String("name"),
		Limit:      f.Money("limit"),
	}
}

func (f *formReader) GoalInput() core.GoalInput {
	return core.GoalInput{
		ID:              f.String("id"),
		Name:            f.String("name"),
		TotalAmount:     f.Money("totalAmount"),
		Deadline:        f.Date("deadline"),
		SourceAccountID: f.String("sourceAccountId"),
	}
}

func (f *formReader) TransferRequest() core.TransferRequest {
	return core.TransferRequest{
		FromAccountID: f.String("fromAccountId"),
		ToAccountID:   f.String("toAccountId"),
		Amount:        f.Money("amount"),
		Description:   f.String("description"),
	}
}

func (f *formReader) ReconcileRequest() core.ReconcileRequest {
	return core.ReconcileRequest{
		AccountID:     f.String("accountId"),
		RealBalance:   f.Money("realBalance"),
		Justification: f.String("justification"),
	}
}

func (f *formReader) GoalAmountRequest() core.GoalAmountRequest {
	return core.GoalAmountRequest{
		GoalID: f.String("id"),
		Amount: f.Money("amount"),
	}
}

// sanitizeInput trims and drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
