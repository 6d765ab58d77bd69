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
	"fmt"
	"strings"
	"time"
)

// DayKeyLayout renders a day as an unpadded month-day-year string, e.g. 3-7-2025.
const DayKeyLayout = "1-2-2006"

var parseLayouts = []string{
	DayKeyLayout,
	"01-02-2006",
	"1/2/2006",
	"2006-01-02",
	time.RFC3339,
}

// DayKeyer maps instants to day bucket keys in one fixed timezone. The
// collector and the query service must share the same keyer configuration.
type DayKeyer struct {
	loc *time.Location
}

// NewDayKeyer returns a keyer for the named IANA timezone. An empty name
// selects UTC.
func NewDayKeyer(timezone string) (*DayKeyer, error) {
	if timezone == "" {
		return &DayKeyer{loc: time.UTC}, nil
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	return &DayKeyer{loc: loc}, nil
}

// Location returns the timezone used for day boundaries.
func (k *DayKeyer) Location() *time.Location {
	return k.loc
}

// Key returns the bucket key of the day containing t.
func (k *DayKeyer) Key(t time.Time) string {
	return t.In(k.loc).Format(DayKeyLayout)
}

// Parse accepts a day in any supported layout and returns midnight of that
// day in the keyer's timezone.
func (k *DayKeyer) Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	for _, layout := range parseLayouts {
		t, err := time.ParseInLocation(layout, s, k.loc)
		if err != nil {
			continue
		}

		return k.startOfDay(t), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", errInvalidDayKey, s)
}

// Normalize converts any accepted day string into its canonical bucket key.
func (k *DayKeyer) Normalize(s string) (string, error) {
	t, err := k.Parse(s)
	if err != nil {
		return "", err
	}

	return k.Key(t), nil
}

// Recent returns the keys of the n days ending with the day of now, newest first.
func (k *DayKeyer) Recent(now time.Time, n int) []string {
	if n <= 0 {
		return nil
	}

	today := k.startOfDay(now)
	keys := make([]string, 0, n)

	for i := 0; i < n; i++ {
		keys = append(keys, k.Key(today.AddDate(0, 0, -i)))
	}

	return keys
}

// DaysBetween returns how many calendar days separate the day of key from the
// day of now. Future days give a negative result.
func (k *DayKeyer) DaysBetween(key string, now time.Time) (int, error) {
	day, err := k.Parse(key)
	if err != nil {
		return 0, err
	}

	today := k.startOfDay(now)

	// Compare calendar dates through UTC so DST shifts don't skew the count.
	a := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	return int(b.Sub(a).Hours() / 24), nil
}

func (k *DayKeyer) startOfDay(t time.Time) time.Time {
	t = t.In(k.loc)

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, k.loc)
}
