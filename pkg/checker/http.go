/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

//go:generate mockgen -destination=mock_checker.go -package=checker github.com/carverauto/warehouse/pkg/checker Prober

package checker

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/carverauto/warehouse/pkg/version"
)

const (
	DefaultProbeTimeout = 5 * time.Second

	// maxDrainBytes bounds how much of a response body is read before the
	// connection is returned to the pool.
	maxDrainBytes = 64 << 10
)

// Prober performs one outbound health-check request. Implementations return a
// response whenever the remote side answered, even with an error status.
type Prober interface {
	Probe(ctx context.Context, url string) (*http.Response, error)
}

// HTTPProber issues GET requests with a bounded client timeout.
type HTTPProber struct {
	client    *http.Client
	userAgent string
}

// HTTPProberOption customizes an HTTPProber.
type HTTPProberOption func(*HTTPProber)

// WithHTTPClient replaces the underlying client; tests use it to target httptest servers.
func WithHTTPClient(c *http.Client) HTTPProberOption {
	return func(p *HTTPProber) {
		p.client = c
	}
}

// NewHTTPProber creates a prober whose requests never outlive timeout.
func NewHTTPProber(timeout time.Duration, opts ...HTTPProberOption) *HTTPProber {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	p := &HTTPProber{
		client:    &http.Client{Timeout: timeout},
		userAgent: "warehouse/" + version.GetVersion(),
	}

	for _, o := range opts {
		o(p)
	}

	return p
}

// Probe sends a GET to url.
func (p *HTTPProber) Probe(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", p.userAgent)

	return p.client.Do(req)
}

// CloseResponse drains a bounded amount of the body and closes it.
func CloseResponse(resp *http.Response) error {
	if resp == nil || resp.Body == nil {
		return nil
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	return resp.Body.Close()
}
