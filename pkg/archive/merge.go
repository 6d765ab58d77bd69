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

import (
	"github.com/carverauto/warehouse/pkg/logger"
	"github.com/carverauto/warehouse/pkg/models"
)

// MergeBucket returns a new bucket holding every entry of old plus snapshot
// under the key at. old is never modified. A colliding key is overwritten and
// a key that does not advance past the newest existing one is logged.
func MergeBucket(old models.DayBucket, at int64, snapshot models.Snapshot, log logger.Logger) models.DayBucket {
	merged := make(models.DayBucket, len(old)+1)

	for k, v := range old {
		merged[k] = v
	}

	if _, exists := old[at]; exists {
		log.Warn().Int64("timestamp", at).Msg("Snapshot timestamp already present in bucket, overwriting")
	} else if latest := old.Latest(); len(old) > 0 && at <= latest {
		log.Warn().
			Int64("timestamp", at).
			Int64("latest", latest).
			Msg("Snapshot timestamp does not advance bucket")
	}

	merged[at] = snapshot

	return merged
}
