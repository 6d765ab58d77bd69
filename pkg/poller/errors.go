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

package poller

import (
	"errors"
)

var (
	errDataDirRequired     = errors.New("data_dir is required")
	errNoServices          = errors.New("at least one service must be configured")
	errDuplicateService    = errors.New("duplicate service id")
	errInvalidPollInterval = errors.New("poll_interval must be positive")
	errInvalidProbeTimeout = errors.New("probe_timeout must be positive")
	errNegativeRetention   = errors.New("retention_days must not be negative")
	errArchiveRequired     = errors.New("archive is required")
	errKeyerRequired       = errors.New("day keyer is required")
	errProbeTimeoutTooLong = errors.New("probe_timeout must be shorter than poll_interval")
)
