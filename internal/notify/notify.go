// Package notify fans operational events out to chat channels (Telegram,
// Discord) so operators hear about venue connectivity changes without
// watching logs.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Event names emitted by bookscope.
const (
	EventVenueConnected    = "venue_connected"
	EventVenueDisconnected = "venue_disconnected"
	EventArchiveCompleted  = "archive_completed"
	EventError             = "error"
)

// Sender delivers one notification over a single channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier dispatches events to all registered senders, filtered by the set
// of event names the operator opted into. An empty filter allows everything.
type Notifier struct {
	senders []Sender
	allowed map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier delivering to the given senders.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		allowed: allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify delivers the event to every sender when the event passes the
// configured filter. Individual sender failures are logged and collected;
// one failing channel does not block the others.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if len(n.allowed) > 0 && !n.allowed[event] {
		return nil
	}
	if len(n.senders) == 0 {
		return nil
	}

	var failed []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("event", event),
				slog.String("error", err.Error()),
			)
			failed = append(failed, fmt.Sprintf("%s: %v", s.Name(), err))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(failed), strings.Join(failed, "; "))
	}
	return nil
}
