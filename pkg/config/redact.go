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

package config

import (
	"reflect"
	"strings"
)

// Redact converts cfg into a generic map suitable for logging. Fields tagged
// `sensitive:"true"` or `json:"-"` are dropped. Keys follow the json tags.
func Redact(cfg interface{}) map[string]interface{} {
	if m, ok := redactValue(reflect.ValueOf(cfg)).(map[string]interface{}); ok {
		return m
	}

	return map[string]interface{}{}
}

func redactValue(rv reflect.Value) interface{} {
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}

		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		// Types with their own text form (durations, times) are logged as such.
		if s, ok := rv.Interface().(interface{ String() string }); ok {
			return s.String()
		}

		rt := rv.Type()
		out := make(map[string]interface{}, rt.NumField())

		for i := 0; i < rt.NumField(); i++ {
			field := rt.Field(i)
			if !field.IsExported() || field.Tag.Get("sensitive") == "true" {
				continue
			}

			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				continue
			}

			if name == "" {
				name = field.Name
			}

			out[name] = redactValue(rv.Field(i))
		}

		return out
	case reflect.Slice, reflect.Array:
		out := make([]interface{}, rv.Len())
		for i := range out {
			out[i] = redactValue(rv.Index(i))
		}

		return out
	case reflect.Map:
		out := make(map[string]interface{}, rv.Len())

		iter := rv.MapRange()
		for iter.Next() {
			if key, ok := iter.Key().Interface().(string); ok {
				out[key] = redactValue(iter.Value())
			}
		}

		return out
	case reflect.Invalid:
		return nil
	default:
		if s, ok := rv.Interface().(interface{ String() string }); ok && rv.Kind() == reflect.Int64 {
			return s.String()
		}

		return rv.Interface()
	}
}
