package portal

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
)

// SessionCookieName is the cookie the portal keeps its server side session in.
const SessionCookieName = "PHPSESSID"

// Session is the authentication state shared by every request of a Client: the
// cookie jar, the remembered credentials and whether an expired session may be
// renewed by logging in again.
//
// Only the login flow mutates a Session, extractors and actions only read it.
type Session struct {
	jar *cookiejar.Jar

	mutex       sync.Mutex
	userId      string
	password    string
	remembered  bool
	autoRelogin bool
}

func NewSession() (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Session{jar: jar}, nil
}

// Jar returns the cookie jar the session owns.
func (s *Session) Jar() http.CookieJar {
	return s.jar
}

// Credentials returns the remembered credentials, ok is false when none are remembered.
func (s *Session) Credentials() (userId, password string, ok bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.userId, s.password, s.remembered
}

func (s *Session) AutoRelogin() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.autoRelogin
}

// canRelogin reports whether an expired session may be renewed silently.
func (s *Session) canRelogin() (userId, password string, ok bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.autoRelogin || !s.remembered {
		return "", "", false
	}
	return s.userId, s.password, true
}

func (s *Session) setAutoRelogin(value bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.autoRelogin = value
}

func (s *Session) remember(userId, password string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.userId = userId
	s.password = password
	s.remembered = true
}

func (s *Session) forget() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.userId = ""
	s.password = ""
	s.remembered = false
}

// ClearSessionCookie expires the portal's session cookie for the host of u at
// path "/". Clearing a cookie that does not exist is a no-op.
func (s *Session) ClearSessionCookie(u *url.URL) {
	root := &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}
	s.jar.SetCookies(root, []*http.Cookie{{
		Name:   SessionCookieName,
		Path:   "/",
		MaxAge: -1,
	}})
}

// HasSessionCookie reports whether the jar currently holds a session cookie for u.
func (s *Session) HasSessionCookie(u *url.URL) bool {
	for _, c := range s.jar.Cookies(u) {
		if c.Name == SessionCookieName {
			return true
		}
	}
	return false
}
