// Package notify delivers outbound text messages. Delivery is best-effort:
// callers treat a failed send as a logged event, never as a reason to roll
// back the state change that triggered it.
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

type Notifier interface {
	SendSMS(ctx context.Context, toMobile, message string) error
}

// ConsoleNotifier writes messages to the log instead of a carrier. Default
// provider in dev.
type ConsoleNotifier struct {
	log zerolog.Logger
}

func NewConsoleNotifier(log zerolog.Logger) *ConsoleNotifier {
	return &ConsoleNotifier{log: log}
}

func (n *ConsoleNotifier) SendSMS(_ context.Context, toMobile, message string) error {
	n.log.Info().
		Str("to", toMobile).
		Str("message", message).
		Msg("mock sms")
	return nil
}
