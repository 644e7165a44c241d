package amqp

import (
	"context"

	"orca/internal/log"
	"orca/internal/state"
)

// Notifier adapts the client to state.Deps.Notify. Publish failures are
// logged; the write they follow has already succeeded.
func (c *Client) Notifier() func(ctx context.Context, change state.Change) {
	return func(ctx context.Context, change state.Change) {
		ctx = context.WithoutCancel(ctx)
		if err := c.PublishBudgetChanged(ctx, change.BudgetID, change.Resource, change.Operation); err != nil {
			c.logger.WarnContext(ctx, "Failed to publish budget change",
				log.FieldBudgetID, change.BudgetID,
				log.FieldError, err.Error())
		}
	}
}

// BudgetInvalidator is implemented by state.Registry.
type BudgetInvalidator interface {
	InvalidateBudget(budgetID, skipSession string) int
}

// InvalidateHandler marks every local workspace of the changed budget stale.
func InvalidateHandler(reg BudgetInvalidator, logger *log.Logger) Handler {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentAMQP)
	return func(ctx context.Context, msg *BudgetChangedMessage) error {
		n := reg.InvalidateBudget(msg.BudgetID, "")
		logger.DebugContext(ctx, "Invalidated workspaces after remote change",
			log.FieldBudgetID, msg.BudgetID,
			log.FieldResource, msg.Resource,
			log.FieldOperation, msg.Operation,
			log.FieldCount, n)
		return nil
	}
}
