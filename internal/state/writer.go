package state

import (
	"context"

	"orca/internal/api"
	"orca/internal/log"
)

// writer runs the submit → reload → notify sequence shared by all holders.
// Validation happens in the holders before they call apply.
type writer struct {
	ws     *Workspace
	logger *log.Logger
	events *log.StructuredLogger
}

// c is read after submit so that submit may fill in the created id.
func (w *writer) apply(ctx context.Context, c *Change, submit func(context.Context) error, reload ...Loader) error {
	if err := submit(ctx); err != nil {
		apiErr := api.AsError(err)
		w.logger.WarnContext(ctx, "Write rejected",
			log.FieldOperation, c.Operation,
			log.FieldResource, c.Resource,
			log.FieldBudgetID, c.BudgetID,
			log.FieldErrorCode, apiErr.Code,
			log.FieldError, apiErr.Error())
		return apiErr
	}
	w.events.LogWrite(ctx, c.Operation, c.BudgetID, c.Resource, c.ResourceID, c.AmountCents)

	for _, l := range reload {
		if _, err := l.Load(ctx, true); err != nil {
			w.logger.WarnContext(ctx, "Reload after write failed",
				log.FieldOperation, log.OpLoad,
				log.FieldResource, c.Resource,
				log.FieldError, err.Error())
		}
	}
	w.ws.Dashboard.Invalidate()

	if n := w.ws.deps.Notify; n != nil {
		n(ctx, *c)
	}
	return nil
}
