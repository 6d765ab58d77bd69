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
	"sort"
	"time"
)

// StatusName is the up/down verdict for a service.
type StatusName string

const (
	StatusUp   StatusName = "up"
	StatusDown StatusName = "down"

	// StatusUnknown is only used in state-change events for a service that
	// has not been observed yet.
	StatusUnknown StatusName = "unknown"
)

// ProbeResult is the normalized outcome of one probe that received a response.
type ProbeResult struct {
	StatusCode int
	LatencyMs  int
	MachineID  string
	StatusText string
}

// Classification is the verdict plus a human readable reason.
type Classification struct {
	Name   StatusName `json:"name"`
	Reason string     `json:"reason"`
}

// StatusRecord is one service's entry in a snapshot.
type StatusRecord struct {
	ServiceID      string         `json:"service_id"`
	URL            string         `json:"url"`
	StatusCode     int            `json:"status_code"`
	LatencyMs      int            `json:"latency_ms"`
	Classification Classification `json:"classification"`
	Name           string         `json:"name"`
	MachineID      string         `json:"machine_id,omitempty"`
	Message        string         `json:"message"`
}

// Snapshot maps service id to the record produced by a single poll cycle.
type Snapshot map[string]StatusRecord

// DayBucket maps an epoch-millisecond timestamp to the snapshot taken at that
// instant. One bucket holds every snapshot of one calendar day.
type DayBucket map[int64]Snapshot

// Timestamps returns the bucket keys in ascending order.
func (b DayBucket) Timestamps() []int64 {
	keys := make([]int64, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return keys
}

// Latest returns the highest timestamp in the bucket, or zero when empty.
func (b DayBucket) Latest() int64 {
	var latest int64

	for k := range b {
		if k > latest {
			latest = k
		}
	}

	return latest
}

// Millis converts t to the bucket key representation.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}
