package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/newthinker/swingdesk/internal/core"
)

// Notifier defines the interface for signal notification
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Send sends a single signal notification
	Send(ctx context.Context, signal core.Signal) error

	// SendBatch sends multiple signal notifications in one message
	SendBatch(ctx context.Context, signals []core.Signal) error
}

// Message renders a signal as a short plain-text notification.
func Message(signal core.Signal) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s (strength %+d)\n", signal.Action.Label(), signal.Symbol, signal.Strength)
	if signal.Price > 0 {
		fmt.Fprintf(&sb, "Price: %.2f\n", signal.Price)
	}
	if signal.Reason != "" {
		sb.WriteString(signal.Reason)
		sb.WriteString("\n")
	}
	sb.WriteString(signal.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))
	return sb.String()
}
