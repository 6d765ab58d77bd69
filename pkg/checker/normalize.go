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
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/warehouse/pkg/models"
)

// Normalize converts the outcome of one probe into a ProbeResult. A response
// is accepted even when probeErr is set, since the client may return both
// (for example when the redirect policy stops a chain). Without a response the
// probe is unreachable.
func Normalize(resp *http.Response, elapsed time.Duration, probeErr error, machineIDHeader string) (models.ProbeResult, error) {
	if resp == nil {
		if probeErr == nil {
			return models.ProbeResult{}, fmt.Errorf("%w: no response", ErrProbeUnreachable)
		}

		return models.ProbeResult{}, fmt.Errorf("%w: %w", ErrProbeUnreachable, probeErr)
	}

	result := models.ProbeResult{
		StatusCode: resp.StatusCode,
		LatencyMs:  LatencyMillis(elapsed),
		StatusText: statusText(resp),
	}

	if machineIDHeader != "" {
		result.MachineID = resp.Header.Get(machineIDHeader)
	}

	return result, nil
}

// LatencyMillis rounds a duration to whole milliseconds.
func LatencyMillis(d time.Duration) int {
	if d < 0 {
		return 0
	}

	return int(math.Round(float64(d) / float64(time.Millisecond)))
}

// statusText returns the reason phrase without the numeric code, falling back
// to the canonical text when the server sent none.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}

	return text
}
