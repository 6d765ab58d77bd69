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
	"time"
)

var errNATSURLRequired = errors.New("nats url is required when events are enabled")

const (
	DefaultEventStream  = "warehouse"
	DefaultEventSubject = "warehouse.>"
)

// EventsConfig configures optional publication of collector events to NATS
// JetStream. An empty URL disables publishing.
type EventsConfig struct {
	Enabled    bool     `json:"enabled"`
	URL        string   `json:"url" sensitive:"true"`
	Domain     string   `json:"domain,omitempty"`
	StreamName string   `json:"stream_name"`
	Subjects   []string `json:"subjects"`
	// TLS enables mutual TLS towards the NATS server when set.
	TLS *NATSTLSConfig `json:"tls,omitempty"`
}

// NATSTLSConfig points at the client certificate material for NATS.
type NATSTLSConfig struct {
	CAFile     string `json:"ca_file"`
	CertFile   string `json:"cert_file"`
	KeyFile    string `json:"key_file"`
	ServerName string `json:"server_name,omitempty"`
}

// Validate ensures the events configuration is valid
func (c *EventsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.URL == "" {
		return errNATSURLRequired
	}

	if c.StreamName == "" {
		c.StreamName = DefaultEventStream
	}

	if len(c.Subjects) == 0 {
		c.Subjects = []string{DefaultEventSubject}
	}

	return nil
}

// CloudEvent represents a CloudEvents v1.0 compliant event.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}

// ServiceStateEventData is published when a service's classification changes
// between two consecutive cycles.
type ServiceStateEventData struct {
	ServiceID     string     `json:"service_id"`
	PreviousState StatusName `json:"previous_state"`
	CurrentState  StatusName `json:"current_state"`
	Reason        string     `json:"reason"`
	StatusCode    int        `json:"status_code"`
	LatencyMs     int        `json:"latency_ms"`
	Timestamp     time.Time  `json:"timestamp"`
}

// SnapshotArchivedEventData is published after a snapshot has been merged
// into its day bucket.
type SnapshotArchivedEventData struct {
	DayKey    string    `json:"day_key"`
	Timestamp int64     `json:"timestamp"`
	Services  int       `json:"services"`
	Down      []string  `json:"down,omitempty"`
	Hash      string    `json:"hash"`
	ArchiveAt time.Time `json:"archived_at"`
}
