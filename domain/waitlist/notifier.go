package waitlist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akeren/clawsec-waitlist/internal/log"
	"github.com/akeren/clawsec-waitlist/pkg/mailer"
	"github.com/akeren/clawsec-waitlist/pkg/retry"
)

const (
	notifyTimeout  = 15 * time.Second
	notifyAttempts = 3
	notifyDelay    = 2 * time.Second
)

// Notifier is told about every accepted signup. It must not block the request.
type Notifier interface {
	NotifySignup(ctx context.Context, email string)
}

// MailNotifier sends a welcome email for each signup in the background.
type MailNotifier struct {
	sender mailer.Sender
	logger *log.Logger
	policy retry.RetryPolicy
	wg     sync.WaitGroup
}

// NewMailNotifier returns nil when sender is nil.
func NewMailNotifier(sender mailer.Sender, logger *log.Logger) *MailNotifier {
	if sender == nil {
		return nil
	}
	return &MailNotifier{
		sender: sender,
		logger: logger.WithScope("waitlist.notifier"),
		// Only transient provider failures are retried.
		policy: retry.NewFixedDelay(&retry.Config{MaxAttempts: notifyAttempts, BaseDelay: notifyDelay}),
	}
}

func (n *MailNotifier) NotifySignup(ctx context.Context, email string) {
	if n == nil {
		return
	}
	logger := log.GetLoggerInstanceFromContext(ctx, n.logger)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()

		var id string
		err := n.policy.Execute(sendCtx, func(ctx context.Context) error {
			var sendErr error
			id, sendErr = n.sender.Send(ctx, welcomeMessage(email))
			return sendErr
		})
		if err != nil {
			logger.Error("Failed to send waitlist welcome email", "error", err)
			return
		}
		logger.Info("Waitlist welcome email sent", "message_id", id)
	}()
}

// Wait blocks until in-flight emails have been handed to the provider or ctx expires.
func (n *MailNotifier) Wait(ctx context.Context) error {
	if n == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waitlist: welcome emails still sending: %w", ctx.Err())
	}
}

func welcomeMessage(email string) mailer.Message {
	return mailer.Message{
		To:      email,
		Subject: "You're on the Clawsec waitlist",
		Text: "Thanks for joining the Clawsec waitlist.\n\n" +
			"We'll email you as soon as early access opens. No other mail, promise.\n",
	}
}
