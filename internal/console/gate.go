package console

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/DylanUno/whatsapp-group-form-automation/internal/domain"
)

// Gate implements domain.ConfirmationGate with an interactive terminal
// prompt. The wait is unbounded: the form stays up until the operator
// answers or the context is cancelled.
type Gate struct{}

func NewGate() *Gate {
	return &Gate{}
}

// AwaitConfirmation blocks until the operator approves the batch.
func (g *Gate) AwaitConfirmation(ctx context.Context, batch domain.Batch, totalBatches int) error {
	title := fmt.Sprintf("Batch %d of %d: add %d numbers to the group?", batch.Seq, totalBatches, len(batch.Numbers))
	return g.confirm(ctx, title, "Review the list above before proceeding.")
}

// AwaitOperator blocks until the operator confirms a manual setup step
// such as scanning the QR code or navigating to the target group.
func (g *Gate) AwaitOperator(ctx context.Context, message string) error {
	return g.confirm(ctx, message, "")
}

func (g *Gate) confirm(ctx context.Context, title, description string) error {
	ok := false
	confirm := huh.NewConfirm().
		Title(title).
		Affirmative("Proceed").
		Negative("Abort").
		Value(&ok)
	if description != "" {
		confirm = confirm.Description(description)
	}

	if err := huh.NewForm(huh.NewGroup(confirm)).RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return domain.ErrAborted
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	if !ok {
		return domain.ErrAborted
	}
	return nil
}
