package portal

import (
	"context"
	"fmt"
	"mime"
	"ncue-api/internal/components/assert"
	"ncue-api/internal/components/telemetry"
	"net/http"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// DefaultBaseUrl is the root of the NCUE student app portal.
const DefaultBaseUrl = "http://aps.ncue.edu.tw/app"

const (
	endpoint_login      = "/sess_student.php"
	endpoint_results    = "/score.php"
	endpoint_curriculum = "/curriculum.php"
	endpoint_events     = "/signup.php"
	endpoint_event      = "/show_content.php"
	endpoint_members    = "/show_member.php"
	endpoint_signup     = "/sign_app_ok.php"
	endpoint_signed_up  = "/finish.php"
	endpoint_cancel     = "/del_signup.php"
	endpoint_hours      = "/hour.php"
)

const (
	institutional_domain = "mail.ncue.edu.tw"
	default_user_agent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	default_display_name = "NCUE-Plus 搶通識機器人"
	default_timeout      = 30 * time.Second
	default_rate_per_sec = 2
	default_rate_burst   = 2
)

const (
	report_client_fetch      = "client.fetch"
	report_client_login      = "client.login"
	report_client_reauth     = "client.reauth"
	report_client_results    = "client.results"
	report_client_curriculum = "client.curriculum"
	report_client_events     = "client.events"
	report_client_event      = "client.event"
	report_client_members    = "client.event-members"
	report_client_signed_up  = "client.signed-up-events"
	report_client_sign_seq   = "client.sign-seq"
	report_client_signup     = "client.signup"
	report_client_cancel     = "client.cancel-signup"
	report_client_hours      = "client.approved-hours"
)

type ClientOptions struct {
	// BaseUrl defaults to DefaultBaseUrl.
	BaseUrl string
	// Timeout of a single request, defaults to 30 seconds.
	Timeout time.Duration
	// RequestsPerSecond and Burst configure the client side rate limiter,
	// they default to 2 and 2.
	RequestsPerSecond float64
	Burst             int
	// BypassCloudflare wraps the transport with browser-like TLS and headers.
	BypassCloudflare bool
	// SignupDisplayName is the applicant name put on signup forms.
	SignupDisplayName string
	// DumpDir, when set, receives a file per request and response. Login
	// request bodies are never written.
	DumpDir string
}

// Client talks to the portal on behalf of a single Session.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	session     *Session
	displayName string
	tel         telemetry.API
}

func NewClient(opts ClientOptions, session *Session, tel telemetry.API) (*Client, error) {
	assert.NotNil(session)
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("portal", tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.Timeout == 0 {
		opts.Timeout = default_timeout
	}
	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = default_rate_per_sec
	}
	if opts.Burst == 0 {
		opts.Burst = default_rate_burst
	}
	if opts.SignupDisplayName == "" {
		opts.SignupDisplayName = default_display_name
	}
	assert.Positive(opts.RequestsPerSecond)

	baseUrl, err := url.Parse(strings.TrimSuffix(opts.BaseUrl, "/"))
	if err != nil {
		return nil, err
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(baseUrl.String())
	httpClient.SetCookieJar(session.Jar())
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetHeader("user-agent", default_user_agent)
	httpClient.SetHeader("cache-control", "no-cache")
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	if opts.BypassCloudflare {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	// max burst >= 1 just means that no requests will be dropped
	rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, tel)
	if opts.DumpDir != "" {
		dump, err := telemetry.NewFilesystemDump(opts.DumpDir)
		if err != nil {
			return nil, fmt.Errorf("http dump: %w", err)
		}
		telemetry.DumpResty(httpClient, dump, func(req *http.Request) bool {
			return strings.HasSuffix(req.URL.Path, endpoint_login)
		})
	}

	return &Client{
		BaseUrl:     baseUrl,
		Http:        httpClient,
		session:     session,
		displayName: opts.SignupDisplayName,
		tel:         tel,
	}, nil
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *Session {
	return c.session
}

// resolve returns the absolute url of an endpoint, used for the hrefs of records
// and for cookie operations.
func (c *Client) resolve(endpoint string, query url.Values) *url.URL {
	u := *c.BaseUrl
	u.Path = strings.TrimSuffix(u.Path, "/") + endpoint
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return &u
}

// readBody returns the response body as utf-8, bodies in another charset
// declared by the content-type header are decoded.
func readBody(res *resty.Response) (string, error) {
	body := res.Body()
	_, params, err := mime.ParseMediaType(res.Header().Get("content-type"))
	if err != nil || params["charset"] == "" {
		return string(body), nil
	}
	encoding, name := charset.Lookup(params["charset"])
	if encoding == nil {
		return "", fmt.Errorf("unknown charset %q", params["charset"])
	}
	if name == "utf-8" {
		return string(body), nil
	}
	decoded, err := encoding.NewDecoder().Bytes(body)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func (c *Client) handleResponse(res *resty.Response, err error, endpoint string) (string, error) {
	if err != nil {
		c.tel.ReportBroken(report_client_fetch, fmt.Errorf("fetch: %w", err), endpoint)
		return "", transportError(err)
	}
	if res.IsError() {
		err := fmt.Errorf("unexpected status %s", res.Status())
		c.tel.ReportBroken(report_client_fetch, err, endpoint)
		return "", transportError(err)
	}
	body, err := readBody(res)
	if err != nil {
		c.tel.ReportBroken(report_client_fetch, fmt.Errorf("decode body: %w", err), endpoint)
		return "", transportError(err)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values) (string, error) {
	req := c.Http.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	res, err := req.Get(endpoint)
	return c.handleResponse(res, err, endpoint)
}

func (c *Client) postMultipart(ctx context.Context, endpoint string, form map[string]string) (string, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		SetMultipartFormData(form).
		Post(endpoint)
	return c.handleResponse(res, err, endpoint)
}

func parseDocument(body string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(body))
}
