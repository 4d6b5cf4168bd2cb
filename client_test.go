// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cloudvision

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const testHostname = "www.cv-staging.corp.arista.io"

// newTestClient starts a TLS test server and returns a client that trusts it
func newTestClient(t testing.TB, handler http.HandlerFunc, opts ...func(*Client)) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewTLSServer(handler)
	t.Cleanup(srv.Close)

	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())

	client, err := NewClient(serverConfig(t, srv), append([]func(*Client){WithRootCAs(pool)}, opts...)...)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client, srv
}

func serverConfig(t testing.TB, srv *httptest.Server) Config {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	port, err := strconv.ParseUint(u.Port(), 10, 16)
	if err != nil {
		t.Fatalf("parse server port: %v", err)
	}
	return NewConfig(u.Hostname(), uint16(port), "test-token")
}

// TestNewClientBaseURL tests base URL construction
func TestNewClientBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		hostname string
		port     uint16
		want     string
	}{
		{
			name:     "default https port is omitted",
			hostname: testHostname,
			port:     443,
			want:     "https://www.cv-staging.corp.arista.io/",
		},
		{
			name:     "no port",
			hostname: testHostname,
			port:     0,
			want:     "https://www.cv-staging.corp.arista.io/",
		},
		{
			name:     "custom port",
			hostname: testHostname,
			port:     8443,
			want:     "https://www.cv-staging.corp.arista.io:8443/",
		},
		{
			name:     "ipv4 address",
			hostname: "192.0.2.10",
			port:     9443,
			want:     "https://192.0.2.10:9443/",
		},
		{
			name:     "ipv6 address",
			hostname: "[2001:db8::1]",
			port:     8443,
			want:     "https://[2001:db8::1]:8443/",
		},
		{
			name:     "ipv6 address default port",
			hostname: "[2001:db8::1]",
			port:     443,
			want:     "https://[2001:db8::1]/",
		},
		{
			name:     "port in hostname",
			hostname: "cvp.example.com:8443",
			port:     0,
			want:     "https://cvp.example.com:8443/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(NewConfig(tt.hostname, tt.port, "token"))
			if err != nil {
				t.Fatalf("NewClient failed: %v", err)
			}
			if got := client.BaseURL().String(); got != tt.want {
				t.Errorf("Expected base URL %s, got %s", tt.want, got)
			}
		})
	}
}

// TestNewClientValidation tests client configuration validation
func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantKind ErrorKind
		wantMsg  string
	}{
		{
			name:     "empty hostname",
			cfg:      NewConfig("", 443, "token"),
			wantKind: KindURLParse,
			wantMsg:  "hostname cannot be empty",
		},
		{
			name:     "whitespace hostname",
			cfg:      NewConfig("   ", 443, "token"),
			wantKind: KindURLParse,
			wantMsg:  "hostname cannot be empty",
		},
		{
			name:     "hostname with space",
			cfg:      NewConfig("bad host", 443, "token"),
			wantKind: KindURLParse,
		},
		{
			name:     "hostname with path",
			cfg:      NewConfig("cvp.example.com/api", 443, "token"),
			wantKind: KindURLParse,
			wantMsg:  "invalid hostname",
		},
		{
			name:     "port set twice",
			cfg:      NewConfig("cvp.example.com:8443", 443, "token"),
			wantKind: KindBadClientPort,
			wantMsg:  "already carries a port",
		},
		{
			name:     "port out of range in hostname",
			cfg:      NewConfig("cvp.example.com:70000", 0, "token"),
			wantKind: KindBadClientPort,
		},
		{
			name:     "empty token",
			cfg:      NewConfig(testHostname, 443, ""),
			wantKind: KindNoToken,
			wantMsg:  "bearer token cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.cfg)
			if err == nil {
				t.Fatalf("Expected error, got client %v", client.BaseURL())
			}
			if client != nil {
				t.Errorf("Expected nil client on error")
			}
			var cvErr *CloudVisionError
			if !errors.As(err, &cvErr) {
				t.Fatalf("Expected *CloudVisionError, got %T", err)
			}
			if cvErr.Kind != tt.wantKind {
				t.Errorf("Expected kind %v, got %v (%v)", tt.wantKind, cvErr.Kind, err)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Expected error containing %q, got %q", tt.wantMsg, err.Error())
			}
		})
	}
}

// TestBuildURL tests path and query overlay on the base URL
func TestBuildURL(t *testing.T) {
	client, err := NewClient(NewConfig(testHostname, 443, "token"))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	tests := []struct {
		name  string
		path  string
		query string
		want  string
	}{
		{
			name: "path without query keeps trailing slash",
			path: "/api/resources/v2/tagAll/",
			want: "https://www.cv-staging.corp.arista.io/api/resources/v2/tagAll/",
		},
		{
			name:  "query drops trailing slash",
			path:  "/api/resources/v2/tagAll/",
			query: "query",
			want:  "https://www.cv-staging.corp.arista.io/api/resources/v2/tagAll?query",
		},
		{
			name:  "device query",
			path:  DevicePath,
			query: "key.deviceId=SSJ17200818",
			want:  "https://www.cv-staging.corp.arista.io/api/resources/inventory/v1/Device?key.deviceId=SSJ17200818",
		},
		{
			name: "root",
			path: "/",
			want: "https://www.cv-staging.corp.arista.io/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := client.BuildURL(tt.path, tt.query).String(); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}

	// BuildURL must not modify the base
	if got := client.BaseURL().String(); got != "https://www.cv-staging.corp.arista.io/" {
		t.Errorf("Base URL changed to %s", got)
	}
}

// TestGetHeaders tests that GET carries the Accept and bearer headers
func TestGetHeaders(t *testing.T) {
	var gotMethod, gotAccept, gotAuth, gotPath, gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAccept = r.Header.Get("Accept")
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `{"value":{}}`)
	})

	res, err := client.Get(context.Background(), "/api/resources/v1/Event/all", "a=b")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if res.String() != `{"value":{}}` {
		t.Errorf("Unexpected body %q", res.String())
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", res.StatusCode)
	}
	if gotMethod != http.MethodGet {
		t.Errorf("Expected GET, got %s", gotMethod)
	}
	if gotAccept != "application/json" {
		t.Errorf("Expected Accept application/json, got %q", gotAccept)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Expected bearer auth, got %q", gotAuth)
	}
	if gotPath != "/api/resources/v1/Event/all" || gotQuery != "a=b" {
		t.Errorf("Unexpected path/query %s?%s", gotPath, gotQuery)
	}
}

// TestPostBody tests that POST sends the body unchanged
func TestPostBody(t *testing.T) {
	var gotMethod, gotBody, gotContentType, gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotQuery = r.URL.RawQuery
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		fmt.Fprint(w, "ok")
	})

	res, err := client.Post(context.Background(), "/api/resources/v1/Event/all", []byte("foo"))
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if res.String() != "ok" {
		t.Errorf("Unexpected body %q", res.String())
	}
	if gotMethod != http.MethodPost || gotBody != "foo" {
		t.Errorf("Unexpected request %s %q", gotMethod, gotBody)
	}
	if gotContentType != "application/json" {
		t.Errorf("Expected JSON content type, got %q", gotContentType)
	}
	if gotQuery != "" {
		t.Errorf("Expected no query, got %q", gotQuery)
	}
}

// TestRequestHeaderModifier tests extra headers and that auth cannot be overridden
func TestRequestHeaderModifier(t *testing.T) {
	var gotTrace, gotAuth, gotUA, gotAccept string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotTrace = r.Header.Get("X-Trace")
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
	}, WithUserAgent("cvtest/1.0"))

	_, err := client.Get(context.Background(), "/", "",
		Header("X-Trace", "abc"),
		Header("Authorization", "Bearer other"),
		Header("Accept", "text/plain"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if gotTrace != "abc" {
		t.Errorf("Expected X-Trace header, got %q", gotTrace)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization must not be overridable, got %q", gotAuth)
	}
	if gotUA != "cvtest/1.0" {
		t.Errorf("Expected user agent, got %q", gotUA)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept must not be overridable, got %q", gotAccept)
	}
}

// TestNoRetries tests that a failed call is sent exactly once
func TestNoRetries(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Post(context.Background(), DeviceAllPath, []byte(`{}`))
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("Expected status error, got %v", err)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("Expected exactly one request, got %d", n)
	}
}

// TestCertificateValidation tests strict validation and the accept-invalid toggle
func TestCertificateValidation(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	// No trust pool for the test certificate: strict validation must fail
	client, err := NewClient(serverConfig(t, srv))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.AcceptInvalidCerts() {
		t.Fatal("Expected strict validation by default")
	}

	_, err = client.Get(context.Background(), "/", "")
	if err == nil {
		t.Fatal("Expected TLS verification failure")
	}
	if !errors.Is(err, ErrRequest) {
		t.Errorf("Expected request error, got %v", err)
	}

	// Flipping the flag applies to the next call
	client.SetAcceptInvalidCerts(true)
	res, err := client.Get(context.Background(), "/", "")
	if err != nil {
		t.Fatalf("Expected success with invalid certs accepted, got %v", err)
	}
	if res.String() != "ok" {
		t.Errorf("Unexpected body %q", res.String())
	}

	// And back
	client.SetAcceptInvalidCerts(false)
	if _, err := client.Get(context.Background(), "/", ""); err == nil {
		t.Fatal("Expected TLS verification failure after re-enabling validation")
	}
}

// TestConfigAcceptInvalidCerts tests that the config flag reaches the client
func TestConfigAcceptInvalidCerts(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	cfg := serverConfig(t, srv)
	cfg.AcceptInvalidCerts = true

	mock := &mockLogger{}
	client, err := NewClient(cfg, WithLogger(mock))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if !client.AcceptInvalidCerts() {
		t.Fatal("Expected AcceptInvalidCerts to be true")
	}
	if len(mock.warnCalls) == 0 {
		t.Error("Expected a warning when certificate validation is disabled")
	}
	if _, err := client.Get(context.Background(), "/", ""); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
}

// TestStatusError tests non-2xx handling
func TestStatusError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantCode   int32
		wantMsg    string
		wantStatus bool
	}{
		{
			name:       "gateway error document",
			status:     http.StatusNotFound,
			body:       `{"code":5,"message":"device not found","details":[]}`,
			wantCode:   5,
			wantMsg:    "device not found",
			wantStatus: true,
		},
		{
			name:       "wrapped error document",
			status:     http.StatusUnauthorized,
			body:       `{"error":{"code":16,"message":"invalid token"}}`,
			wantCode:   16,
			wantMsg:    "invalid token",
			wantStatus: true,
		},
		{
			name:    "plain text",
			status:  http.StatusBadGateway,
			body:    "upstream down",
			wantMsg: "unexpected status 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			res, err := client.Get(context.Background(), DevicePath, "key.deviceId=X")
			if !errors.Is(err, ErrStatus) {
				t.Fatalf("Expected status error, got %v", err)
			}
			var cvErr *CloudVisionError
			if !errors.As(err, &cvErr) {
				t.Fatalf("Expected *CloudVisionError, got %T", err)
			}
			if cvErr.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, cvErr.StatusCode)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Expected error containing %q, got %q", tt.wantMsg, err.Error())
			}
			if tt.wantStatus {
				if cvErr.Status == nil || cvErr.Status.Code != tt.wantCode {
					t.Errorf("Expected status code %d, got %+v", tt.wantCode, cvErr.Status)
				}
			} else if cvErr.Status != nil {
				t.Errorf("Expected no status document, got %+v", cvErr.Status)
			}
			if res.String() != tt.body {
				t.Errorf("Expected raw body to be returned, got %q", res.String())
			}
		})
	}
}

// TestInvalidPath tests path validation before any request is sent
func TestInvalidPath(t *testing.T) {
	called := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	for _, path := range []string{"api/resources", "/api/../etc", "/api/\x00x"} {
		_, err := client.Get(context.Background(), path, "")
		if !errors.Is(err, ErrURLParse) {
			t.Errorf("path %q: expected url error, got %v", path, err)
		}
	}
	if called {
		t.Error("Expected no request for invalid paths")
	}
}

// TestRequestTimeout tests the Timeout request modifier
func TestRequestTimeout(t *testing.T) {
	release := make(chan struct{})
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	start := time.Now()
	_, err := client.Get(context.Background(), "/", "", Timeout(50*time.Millisecond))
	if !errors.Is(err, ErrRequest) {
		t.Fatalf("Expected request error, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded in chain, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Timeout not applied")
	}
}

// TestContextCancellation tests that a canceled context fails the call
func TestContextCancellation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, "/", "")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// TestSecurity_TokenNotLogged tests that the bearer token never reaches the logger
func TestSecurity_TokenNotLogged(t *testing.T) {
	mock := &mockLogger{}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"value":{}}}`)
	}, WithLogger(mock))

	body := []byte(`{"token":"test-token","partialEqFilter":[]}`)
	if _, err := client.Post(context.Background(), DeviceAllPath, body); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	for _, calls := range [][]map[string]any{mock.debugCalls, mock.infoCalls, mock.warnCalls, mock.errorCalls} {
		for _, call := range calls {
			for k, v := range call {
				if strings.Contains(fmt.Sprint(v), "test-token") {
					t.Errorf("Token leaked in log field %s: %v", k, v)
				}
			}
		}
	}

	cfg := NewConfig(testHostname, 443, "s3cr3t")
	if strings.Contains(cfg.String(), "s3cr3t") || strings.Contains(fmt.Sprintf("%#v", cfg), "s3cr3t") {
		t.Error("Config formatting leaked the token")
	}
}
