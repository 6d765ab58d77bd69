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
	"time"

	"github.com/carverauto/warehouse/pkg/archive"
	"github.com/carverauto/warehouse/pkg/models"
)

// ArchiveReader is the read side of the day-bucket archive.
type ArchiveReader interface {
	Keyer() *archive.DayKeyer
	Read(dateKey string) ([]byte, error)
	Load(dateKey string) (models.DayBucket, error)
	Retained(dateKey string, now time.Time) bool
}

var _ ArchiveReader = (*archive.Store)(nil)
