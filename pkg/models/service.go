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

package models

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultExpectedCode = 200
	DefaultThresholdMs  = 500
)

var (
	errServiceIDRequired = errors.New("service id is required")
	errServiceIDInvalid  = errors.New("service id must be a valid hostname label")
	errThresholdNegative = errors.New("threshold_ms must not be negative")
)

// ServiceDescriptor describes one monitored service. Descriptors are loaded
// once at startup and never modified afterwards.
type ServiceDescriptor struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Endpoint     string `json:"endpoint,omitempty"`
	ExpectedCode int    `json:"expected_code,omitempty"`
	ThresholdMs  int    `json:"threshold_ms,omitempty"`
}

// ApplyDefaults fills the expected code and latency threshold when unset.
func (s *ServiceDescriptor) ApplyDefaults() {
	if s.ExpectedCode == 0 {
		s.ExpectedCode = DefaultExpectedCode
	}

	if s.ThresholdMs == 0 {
		s.ThresholdMs = DefaultThresholdMs
	}

	if s.Name == "" {
		s.Name = s.ID
	}
}

// Validate checks that the descriptor can be turned into a probe URL.
func (s *ServiceDescriptor) Validate() error {
	if s.ID == "" {
		return errServiceIDRequired
	}

	if strings.ContainsAny(s.ID, "/:?#@ ") {
		return fmt.Errorf("%w: %q", errServiceIDInvalid, s.ID)
	}

	if s.ThresholdMs < 0 {
		return fmt.Errorf("%w: %s", errThresholdNegative, s.ID)
	}

	return nil
}

// BaseURL is the service origin, recorded on every status record.
func (s *ServiceDescriptor) BaseURL(domain string) string {
	return "https://" + s.ID + "." + domain
}

// ProbeURL is the URL requested by the prober. An empty endpoint still yields
// a trailing slash.
func (s *ServiceDescriptor) ProbeURL(domain string) string {
	return s.BaseURL(domain) + "/" + strings.TrimPrefix(s.Endpoint, "/")
}
