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

package archive

import "errors"

var (
	// ErrArchiveCorrupt is returned when an existing day bucket cannot be
	// read or decoded into exactly one well-formed entry.
	ErrArchiveCorrupt = errors.New("archive corrupt")
	// ErrArchiveWrite is returned when the temp write or the rename fails.
	ErrArchiveWrite = errors.New("archive write failed")
	// ErrNotFound is returned when no bucket exists for a day key.
	ErrNotFound = errors.New("archive not found")

	errInvalidDayKey   = errors.New("invalid day key")
	errEntryCount      = errors.New("container must hold exactly one entry")
	errEntryNotRegular = errors.New("container entry is not a regular file")
	errEntryTooLarge   = errors.New("container entry exceeds size limit")
)
