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

package checker

import (
	"strconv"

	"github.com/carverauto/warehouse/pkg/models"
)

const (
	ReasonThresholdExceeded = "Ping exceeds threshold"
	ReasonHealthy           = "No problems detected"
)

// Classify decides whether a probed service is up or down. The status code
// rule is checked before the latency rule, so an unexpected code is always
// reported as such regardless of latency.
func Classify(statusCode, latencyMs, expectedCode, thresholdMs int) models.Classification {
	switch {
	case statusCode != expectedCode:
		return models.Classification{
			Name:   models.StatusDown,
			Reason: UnexpectedCodeReason(expectedCode),
		}
	case latencyMs > thresholdMs:
		return models.Classification{
			Name:   models.StatusDown,
			Reason: ReasonThresholdExceeded,
		}
	default:
		return models.Classification{
			Name:   models.StatusUp,
			Reason: ReasonHealthy,
		}
	}
}

// UnexpectedCodeReason formats the reason used when the status code differs
// from the expected one, e.g. "Non-200 status code".
func UnexpectedCodeReason(expectedCode int) string {
	return "Non-" + strconv.Itoa(expectedCode) + " status code"
}

// BuildRecord assembles the archived record for one probed service.
func BuildRecord(svc *models.ServiceDescriptor, domain string, result models.ProbeResult) models.StatusRecord {
	return models.StatusRecord{
		ServiceID:      svc.ID,
		URL:            svc.BaseURL(domain),
		StatusCode:     result.StatusCode,
		LatencyMs:      result.LatencyMs,
		Classification: Classify(result.StatusCode, result.LatencyMs, svc.ExpectedCode, svc.ThresholdMs),
		Name:           svc.Name,
		MachineID:      result.MachineID,
		Message:        result.StatusText,
	}
}
