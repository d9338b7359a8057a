package notify

import (
	"context"
	"log/slog"

	"cardreturn/internal/card/models"
)

// LogNotifier writes the composed message to the log instead of delivering
// it. Default adapter for development and tests.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, owner Owner, card models.Card) error {
	subject, body := Compose(owner, card)
	n.logger.InfoContext(ctx, "notification (log delivery)",
		"to", owner.Email,
		"subject", subject,
		"body", body,
	)
	return nil
}
