package core

// Request bodies posted to the remote API. Field names follow the API's
// camelCase contract; amounts are integer cents.
type (
	AccountInput struct {
		ID             string      `json:"id,omitempty"`
		BudgetID       string      `json:"budgetId"`
		Name           string      `json:"name"`
		Type           AccountType `json:"type"`
		InitialBalance Money       `json:"initialBalance"`
	}

	CategoryInput struct {
		ID       string       `json:"id,omitempty"`
		BudgetID string       `json:"budgetId"`
		Name     string       `json:"name"`
		Type     CategoryType `json:"type"`
		Kind     CategoryKind `json:"kind,omitempty"`
		Color    string       `json:"color,omitempty"`
		Icon     string       `json:"icon,omitempty"`
	}

	EnvelopeInput struct {
		ID         string `json:"id,omitempty"`
		BudgetID   string `json:"budgetId"`
		CategoryID string `json:"categoryId"`
		Name       string `json:"name"`
		Limit      Money  `json:"limit"`
	}

	GoalInput struct {
		ID              string `json:"id,omitempty"`
		BudgetID        string `json:"budgetId"`
		Name            string `json:"name"`
		TotalAmount     Money  `json:"totalAmount"`
		Deadline        *Date  `json:"deadline,omitempty"`
		SourceAccountID string `json:"sourceAccountId,omitempty"`
	}

	// DeleteRequest is the body of every delete-* endpoint.
	DeleteRequest struct {
		ID       string `json:"id"`
		BudgetID string `json:"budgetId"`
	}

	TransferRequest struct {
		BudgetID      string `json:"budgetId"`
		FromAccountID string `json:"fromAccountId"`
		ToAccountID   string `json:"toAccountId"`
		Amount        Money  `json:"amount"`
		Description   string `json:"description,omitempty"`
	}

	ReconcileRequest struct {
		BudgetID      string `json:"budgetId"`
		AccountID     string `json:"accountId"`
		RealBalance   Money  `json:"realBalance"`
		Justification string `json:"justification,omitempty"`
	}

	// GoalAmountRequest adds to or removes from a goal's accumulated amount.
	GoalAmountRequest struct {
		BudgetID string `json:"budgetId"`
		GoalID   string `json:"id"`
		Amount   Money  `json:"amount"`
	}
)

// IsUpdate reports whether the input targets an existing record.
func (in AccountInput) IsUpdate() bool  { return in.ID != "" }
func (in CategoryInput) IsUpdate() bool { return in.ID != "" }
func (in EnvelopeInput) IsUpdate() bool { return in.ID != "" }
func (in GoalInput) IsUpdate() bool     { return in.ID != "" }
