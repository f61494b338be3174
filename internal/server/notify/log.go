package notify

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
)

// LogNotifier writes messages to the log instead of delivering them. It is
// used when no SMTP relay is configured.
type LogNotifier struct {
	log logging.Logger
}

func NewLogNotifier(log logging.Logger) *LogNotifier {
	return &LogNotifier{log: log.With("module", "notify")}
}

func (n *LogNotifier) Send(ctx context.Context, to, subject, body string) error {
	n.log.Info(ctx, "notification", "to", to, "subject", subject, "body", body)
	return nil
}
