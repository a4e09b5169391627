// internal/notify/notifier.go
package notify

import (
	"context"
	"fmt"
)

// Result is the outcome of a successful Send.
type Result string

const (
	Delivered  Result = "delivered"
	Suppressed Result = "suppressed"
)

// StartupMessage is sent once when monitoring begins.
const StartupMessage = "🚀 Liquidation Bot has started monitoring!"

// Notifier delivers human-readable messages.
type Notifier interface {
	Send(ctx context.Context, message string) (Result, error)
}

// NotificationDeliveryError reports a failed delivery. Failed messages are
// not retried.
type NotificationDeliveryError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *NotificationDeliveryError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("notification delivery failed: %v", e.Err)
	case e.Body != "":
		return fmt.Sprintf("notification delivery failed: status %d: %s", e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("notification delivery failed: status %d", e.StatusCode)
	}
}

func (e *NotificationDeliveryError) Unwrap() error {
	return e.Err
}
