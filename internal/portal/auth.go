package portal

import (
	"context"
	"errors"
	"fmt"
)

// errLoginRejected marks a login response carrying the portal's error notice.
var errLoginRejected = errors.New("portal: login rejected")

type LoginRequest struct {
	// UserId and Password each fall back to the credentials remembered by the
	// session when empty.
	UserId   string
	Password string
	// Remember keeps the credentials in the session after a successful login.
	Remember bool
	// AutoRelogin sets whether expired sessions are renewed with the remembered
	// credentials, nil keeps the current setting.
	AutoRelogin *bool
}

// Login logs the session in. A wrong user id or password is not an error, it
// returns false and forgets any remembered credentials.
func (c *Client) Login(ctx context.Context, req LoginRequest) (bool, error) {
	if req.AutoRelogin != nil {
		c.session.setAutoRelogin(*req.AutoRelogin)
	}

	userId, password := req.UserId, req.Password
	usingRemembered := false
	if userId == "" || password == "" {
		rememberedUserId, rememberedPassword, ok := c.session.Credentials()
		if ok {
			if userId == "" {
				userId = rememberedUserId
			}
			if password == "" {
				password = rememberedPassword
			}
			usingRemembered = true
		}
	}
	if userId == "" || password == "" {
		return false, ErrCredentialsMissing
	}

	success, err := c.login(ctx, userId, password)
	if err != nil {
		return false, err
	}
	if !success {
		return false, nil
	}

	if req.Remember || usingRemembered {
		c.session.remember(userId, password)
	} else {
		c.session.forget()
	}
	return true, nil
}

// login posts the credentials and classifies the response, it never passes
// through withReauth.
func (c *Client) login(ctx context.Context, userId, password string) (bool, error) {
	c.tel.ReportDebug(report_client_login, userId)

	body, err := c.postMultipart(ctx, endpoint_login, map[string]string{
		"p_usr": userId,
		"p_pwd": password,
	})
	if err != nil {
		return false, err
	}

	m, ok := loginMarkers.classify(body)
	if !ok {
		c.tel.ReportBroken(
			report_client_login,
			ErrAmbiguousLoginResponse,
			userId,
		)
		return false, fmt.Errorf("%w (user %s)", ErrAmbiguousLoginResponse, userId)
	}
	if m.err != nil {
		c.tel.ReportWarning(report_client_login, "credentials rejected", userId)
		c.session.forget()
		return false, nil
	}
	return true, nil
}

// Logout ends the server side session by dropping its cookie, remembered
// credentials are forgotten too. Logging out twice is not an error.
func (c *Client) Logout(ctx context.Context) error {
	c.session.ClearSessionCookie(c.BaseUrl)
	c.session.forget()
	return nil
}
