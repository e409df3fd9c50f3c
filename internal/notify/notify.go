// Package notify delivers one-time codes to their recipients.
package notify

import (
	"context"
	"time"
)

// Delivery is the template data for a single code message.
type Delivery struct {
	Identifier string    // Normalized recipient.
	Purpose    string    // Flow the code was issued for.
	Code       string    // Plaintext code.
	ExpiresAt  time.Time // Code expiry.
	SiteName   string    // Product name shown in the message.
}

// Notifier sends a code out of band. Implementations must return an error when delivery fails.
type Notifier interface {
	SendOTP(ctx context.Context, d Delivery) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, d Delivery) error

// SendOTP calls f.
func (f NotifierFunc) SendOTP(ctx context.Context, d Delivery) error {
	return f(ctx, d)
}
