// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cloudvision

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
)

// Default client configuration values
const (
	DefaultPort            = 443
	DefaultUserAgent       = "go-cloudvision"
	DefaultPrettyPrintLogs = false
)

// Security limits for logging request bodies
const (
	MaxJSONSizeForLogging = 1 * 1024 * 1024 // 1MB limit to prevent ReDoS attacks
	MaxSensitiveFields    = 1000            // Max redaction operations to prevent DoS
)

// Logging message constants
const (
	JSONTooLargeMessage     = "[JSON TOO LARGE FOR LOGGING]"
	JSONTooManySensitiveMsg = "[JSON CONTAINS TOO MANY SENSITIVE FIELDS]"
)

// sensitiveFields are redacted from JSON written to the debug log
var sensitiveFields = []string{"token", "password", "secret", "auth"}

// defaultRedactionPatterns matches `"<field>": "<value>"` for each sensitive field
var defaultRedactionPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(sensitiveFields))
	for _, field := range sensitiveFields {
		patterns = append(patterns, regexp.MustCompile(`"`+field+`"\s*:\s*"[^"]*"`))
	}
	return patterns
}()

// Client is a CloudVision REST API client
//
// A Client holds the base URL, the bearer token and the TLS verification
// flag. It keeps no per-call state, so one Client may be shared by many
// goroutines. The TLS flag is the only mutable field and is not locked:
// do not call SetAcceptInvalidCerts while calls are in flight.
type Client struct {
	baseURL *url.URL

	// Connection parameters, fixed at construction
	hostname string
	port     uint16
	token    string // unexported for security

	// TLS options
	acceptInvalidCerts bool
	rootCAs            *x509.CertPool

	// transport is cloned for every call
	transport *http.Transport
	userAgent string

	// Logging configuration
	logger            Logger
	prettyPrintLogs   bool
	redactionPatterns []*regexp.Regexp
}

// NewClient creates a new client from a resolved configuration
//
// The base URL is always https://<hostname>[:<port>]/. Port 443 is the
// scheme default and is left out of the URL.
//
// Example:
//
//	cfg := cloudvision.NewConfig("www.cv-staging.corp.arista.io", 443, token)
//	client, err := cloudvision.NewClient(cfg,
//	    cloudvision.WithLogger(cloudvision.NewDefaultLogger(cloudvision.LogLevelInfo)))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(client.BaseURL()) // https://www.cv-staging.corp.arista.io/
//
// Returns an error of kind KindURLParse, KindBadClientPort or KindNoToken
// when the configuration cannot produce a usable client.
func NewClient(cfg Config, opts ...func(*Client)) (*Client, error) {
	client := &Client{
		hostname:           cfg.Hostname,
		port:               cfg.Port,
		token:              cfg.Token,
		acceptInvalidCerts: cfg.AcceptInvalidCerts,
		userAgent:          DefaultUserAgent,
		logger:             &NoOpLogger{},
		prettyPrintLogs:    DefaultPrettyPrintLogs,
		redactionPatterns:  defaultRedactionPatterns,
	}

	for _, opt := range opts {
		opt(client)
	}

	base, err := buildBaseURL(cfg.Hostname, cfg.Port)
	if err != nil {
		return nil, err
	}
	client.baseURL = base

	if client.token == "" {
		return nil, &CloudVisionError{
			Operation: "new client",
			Kind:      KindNoToken,
			Message:   "bearer token cannot be empty",
		}
	}

	if client.acceptInvalidCerts {
		client.warnInsecure(context.Background())
	}

	client.logger.Info(context.Background(), "CloudVision client created",
		"host", client.baseURL.Host)

	return client, nil
}

// buildBaseURL parses https://<hostname>/ and applies the port
func buildBaseURL(hostname string, port uint16) (*url.URL, error) {
	if strings.TrimSpace(hostname) == "" {
		return nil, &CloudVisionError{Operation: "new client", Kind: KindURLParse, Message: "hostname cannot be empty"}
	}

	u, err := url.Parse("https://" + hostname + "/")
	if err != nil {
		return nil, newError("new client", KindURLParse, err)
	}
	if u.Hostname() == "" || u.User != nil || u.Path != "/" || u.RawQuery != "" || u.Fragment != "" {
		return nil, &CloudVisionError{
			Operation: "new client",
			Kind:      KindURLParse,
			Message:   fmt.Sprintf("invalid hostname %q", hostname),
		}
	}

	if port != 0 {
		if u.Port() != "" {
			return nil, &CloudVisionError{
				Operation: "new client",
				Kind:      KindBadClientPort,
				Message:   fmt.Sprintf("hostname %q already carries a port", hostname),
			}
		}
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(int(port)))
	} else if u.Port() != "" {
		if _, err := strconv.ParseUint(u.Port(), 10, 16); err != nil {
			return nil, newError("new client", KindBadClientPort, err)
		}
	}

	if u.Port() == strconv.Itoa(DefaultPort) {
		u.Host = u.Hostname()
		if strings.Contains(u.Host, ":") {
			u.Host = "[" + u.Host + "]"
		}
	}

	return u, nil
}

// BaseURL returns a copy of the base URL
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// BuildURL returns the base URL with its path and query replaced.
//
// The path must be absolute. When a query is given, a trailing "/" on the
// path is dropped:
//
//	client.BuildURL("/api/resources/v2/tagAll/", "")      // .../api/resources/v2/tagAll/
//	client.BuildURL("/api/resources/v2/tagAll/", "query") // .../api/resources/v2/tagAll?query
func (c *Client) BuildURL(path, query string) *url.URL {
	u := c.BaseURL()
	if query != "" && len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	u.Path = path
	u.RawPath = ""
	u.RawQuery = query
	return u
}

// SetAcceptInvalidCerts allows or disallows invalid server certificates for
// every subsequent call. The default is false (strict validation).
//
// WARNING: Accepting invalid certificates makes calls vulnerable to
// Man-in-the-Middle attacks. Only use this against lab deployments.
func (c *Client) SetAcceptInvalidCerts(accept bool) {
	c.acceptInvalidCerts = accept
	if accept {
		c.warnInsecure(context.Background())
	}
}

// AcceptInvalidCerts reports whether certificate validation is disabled
func (c *Client) AcceptInvalidCerts() bool {
	return c.acceptInvalidCerts
}

func (c *Client) warnInsecure(ctx context.Context) {
	c.logger.Warn(ctx, "certificate validation disabled",
		"host", c.hostname,
		"security_risk", "Man-in-the-Middle attacks possible",
		"recommendation", "Use only in lab environments")
}

// Get performs an HTTPS GET on path with an optional raw query string and
// returns the response.
//
// Example:
//
//	res, err := client.Get(ctx, "/api/resources/inventory/v1/Device", "key.deviceId=SSJ17200818")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.GetValue("value.modelName").String())
func (c *Client) Get(ctx context.Context, path, query string, mods ...func(*Req)) (Res, error) {
	return c.do(ctx, "get", http.MethodGet, c.BuildURL(path, query), nil, mods)
}

// Post performs an HTTPS POST of a JSON body on path and returns the response.
func (c *Client) Post(ctx context.Context, path string, body []byte, mods ...func(*Req)) (Res, error) {
	return c.do(ctx, "post", http.MethodPost, c.BuildURL(path, ""), body, mods)
}

// postJSON marshals payload and posts it. Marshal failures are KindEncode.
func (c *Client) postJSON(ctx context.Context, op, path string, payload any, mods []func(*Req)) (Res, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Res{}, newError(op, KindEncode, err)
	}
	res, err := c.Post(ctx, path, body, mods...)
	if err != nil {
		return Res{}, withOperation(err, op)
	}
	return res, nil
}

// restClient builds a fresh resty engine for one call, scoped to the TLS
// policy in effect right now. The caller closes the returned transport's
// idle connections once the call is done.
func (c *Client) restClient(ctx context.Context) (*resty.Client, *http.Transport) {
	var transport *http.Transport
	if c.transport != nil {
		transport = c.transport.Clone()
	} else {
		transport = http.DefaultTransport.(*http.Transport).Clone()
	}

	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if transport.TLSClientConfig != nil {
		tlsConfig = transport.TLSClientConfig.Clone()
	}
	//nolint:gosec // opt-in, see SetAcceptInvalidCerts
	tlsConfig.InsecureSkipVerify = c.acceptInvalidCerts
	if c.rootCAs != nil {
		tlsConfig.RootCAs = c.rootCAs
	}

	rc := resty.New().
		SetLogger(&restyLogger{ctx: ctx, logger: c.logger}).
		SetTransport(transport).
		SetTLSClientConfig(tlsConfig).
		SetRetryCount(0).
		SetAuthToken(c.token).
		SetHeader("Accept", "application/json")
	if c.userAgent != "" {
		rc.SetHeader("User-Agent", c.userAgent)
	}

	return rc, transport
}

func (c *Client) do(ctx context.Context, op, method string, u *url.URL, body []byte, mods []func(*Req)) (Res, error) {
	if err := validatePath(u.Path); err != nil {
		return Res{}, &CloudVisionError{Operation: op, Kind: KindURLParse, Message: err.Error()}
	}

	req := newReq(mods)
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	rc, transport := c.restClient(ctx)
	defer transport.CloseIdleConnections()

	r := rc.R().SetContext(ctx)
	for key, values := range req.Header {
		for _, v := range values {
			r.Header.Add(key, v)
		}
	}
	// Accept stays fixed; resty sets Authorization after all headers
	r.SetHeader("Accept", "application/json")
	if body != nil {
		r.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	c.logger.Debug(ctx, "CloudVision request",
		"method", method,
		"url", u.String())
	if body != nil {
		c.logger.Debug(ctx, "CloudVision request body",
			"body", c.prepareJSONForLogging(string(body)))
	}

	resp, err := r.Execute(method, u.String())
	if err != nil {
		c.logger.Error(ctx, "CloudVision request failed",
			"method", method,
			"path", u.Path,
			"error", err.Error())
		return Res{}, newError(op, KindRequest, err)
	}

	data := resp.Body()
	res := Res{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       data,
	}

	c.logger.Debug(ctx, "CloudVision response",
		"method", method,
		"path", u.Path,
		"status", res.StatusCode,
		"bytes", len(data))

	if !resp.IsSuccess() {
		se := parseStatusBody(data)
		msg := fmt.Sprintf("unexpected status %d", res.StatusCode)
		if se != nil && se.Message != "" {
			msg = fmt.Sprintf("%s: %s", msg, se.Message)
		}
		c.logger.Warn(ctx, "CloudVision request rejected",
			"method", method,
			"path", u.Path,
			"status", res.StatusCode)
		return res, &CloudVisionError{
			Operation:  op,
			Kind:       KindStatus,
			Message:    msg,
			StatusCode: res.StatusCode,
			Status:     se,
		}
	}

	return res, nil
}

// validatePath checks that an API path is absolute and free of null bytes
// and "/../" traversal segments.
func validatePath(path string) error {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("path must start with '/': %s", truncatePath(path))
	}
	if i := strings.IndexByte(path, 0); i >= 0 {
		return fmt.Errorf("path contains null byte at position %d", i)
	}
	if i := strings.Index(path, "/../"); i >= 0 || strings.HasSuffix(path, "/..") {
		return fmt.Errorf("path contains traversal segment: %s", truncatePath(path))
	}
	return nil
}

// truncatePath shortens a path to 100 characters for error messages
func truncatePath(path string) string {
	if len(path) <= 100 {
		return path
	}
	return path[:100] + "..."
}

// withOperation relabels a transport error with the domain operation name
func withOperation(err error, op string) error {
	if cvErr, ok := err.(*CloudVisionError); ok {
		relabeled := *cvErr
		relabeled.Operation = op
		return &relabeled
	}
	return err
}

// prepareJSONForLogging redacts sensitive data and formats JSON for logging
//
// Bodies above MaxJSONSizeForLogging, or with more than MaxSensitiveFields
// sensitive keys, are replaced by a placeholder before any regex runs.
func (c *Client) prepareJSONForLogging(jsonStr string) string {
	if len(jsonStr) > MaxJSONSizeForLogging {
		return JSONTooLargeMessage
	}

	sensitiveCount := 0
	for _, field := range sensitiveFields {
		sensitiveCount += strings.Count(jsonStr, `"`+field+`"`)
	}
	if sensitiveCount > MaxSensitiveFields {
		c.logger.Warn(context.Background(), "Too many sensitive fields detected",
			"count", sensitiveCount,
			"max", MaxSensitiveFields)
		return JSONTooManySensitiveMsg
	}

	redacted := c.redactSensitiveData(jsonStr)

	if c.prettyPrintLogs {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(redacted), "", "  "); err == nil {
			return buf.String()
		}
	}

	return redacted
}

// redactSensitiveData replaces the values of sensitive JSON fields with [REDACTED]
func (c *Client) redactSensitiveData(jsonStr string) string {
	result := jsonStr
	for i, pattern := range c.redactionPatterns {
		if i >= len(sensitiveFields) {
			break
		}
		result = pattern.ReplaceAllString(result, `"`+sensitiveFields[i]+`":"[REDACTED]"`)
	}
	return result
}
