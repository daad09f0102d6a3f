package watcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmailNotifierDefaultsRecipient(t *testing.T) {
	n := NewEmailNotifier(SmtpConfig{Server: "smtp.example.com", Port: 587, EmailAddress: "watcher@example.com"})
	require.Equal(t, []string{"watcher@example.com"}, n.config.To)
}

func TestEmailNotifierCancelled(t *testing.T) {
	n := NewEmailNotifier(SmtpConfig{Server: "127.0.0.1", Port: 1, EmailAddress: "watcher@example.com"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := n.Notify(ctx, "Signed up", "body")
	require.ErrorIs(t, err, context.Canceled)
}
