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

package api

import (
	"errors"

	"github.com/carverauto/warehouse/pkg/logger"
	"github.com/carverauto/warehouse/pkg/models"
)

const (
	defaultListenAddr = ":8090"
	defaultRecentDays = 5
)

var (
	errDataDirRequired   = errors.New("data_dir is required")
	errInvalidRecentDays = errors.New("recent_days must not be negative")
	errNegativeRetention = errors.New("retention_days must not be negative")
)

// Config represents the query service configuration.
type Config struct {
	ListenAddr string `json:"listen_addr"`
	DataDir    string `json:"data_dir"`
	// Timezone must match the poller's so both sides agree on day keys.
	Timezone      string            `json:"timezone"`
	RetentionDays int               `json:"retention_days"`
	RecentDays    int               `json:"recent_days"`
	CORS          models.CORSConfig `json:"cors"`
	Logging       *logger.Config    `json:"logging,omitempty"`
}

// Validate implements config.Validator interface.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errDataDirRequired
	}

	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}

	if c.RecentDays < 0 {
		return errInvalidRecentDays
	}

	if c.RecentDays == 0 {
		c.RecentDays = defaultRecentDays
	}

	if c.RetentionDays < 0 {
		return errNegativeRetention
	}

	return nil
}
