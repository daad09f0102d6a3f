package portal

import (
	"context"
	"errors"
	"fmt"
)

// withReauth runs attempt, a single authenticated request followed by its
// extraction that returns errSessionExpired when the portal answered with its
// logged out notice. If the session turns out to be expired and the session
// allows it, it logs in again with the remembered credentials and runs attempt
// exactly once more. A second expiry is not retried.
func withReauth[T any](ctx context.Context, c *Client, id string, attempt func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	result, err := attempt(ctx)
	if !errors.Is(err, errSessionExpired) {
		return result, err
	}

	userId, password, ok := c.session.canRelogin()
	if !ok {
		c.tel.ReportDebug("session expired, relogin not allowed", id)
		return zero, ErrNotAuthenticated
	}

	c.tel.ReportDebug("session expired, logging in again", id, userId)
	success, err := c.login(ctx, userId, password)
	if err != nil {
		c.tel.ReportWarning(report_client_reauth, err, id)
		return zero, fmt.Errorf("%w: %w", ErrReauthFailed, err)
	}
	if !success {
		c.tel.ReportWarning(report_client_reauth, "remembered credentials rejected", id)
		return zero, ErrReauthFailed
	}

	result, err = attempt(ctx)
	if errors.Is(err, errSessionExpired) {
		c.tel.ReportBroken(report_client_reauth, "session expired right after logging in", id)
		return zero, ErrNotAuthenticated
	}
	return result, err
}
