// Copyright 2025 The ReconCore Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reconcore

import "strings"

// BusinessCondition is one parsed clause of a business-conditions string.
type BusinessCondition struct {
	If   string
	Then string
}

// ParseBusinessConditions parses a "condition THEN label; ...; ELSE label"
// string into structured clauses. Malformed segments are skipped, not
// errors: the conditions string is advisory scenario metadata and a bad
// clause must not fail the parse.
func ParseBusinessConditions(spec string) (conditions []BusinessCondition, elseLabel string) {
	if strings.TrimSpace(spec) == "" {
		return nil, ""
	}

	for _, segment := range strings.Split(spec, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		upper := strings.ToUpper(segment)
		if idx := strings.Index(upper, "THEN"); idx >= 0 {
			ifClause := strings.TrimSpace(segment[:idx])
			thenClause := strings.TrimSpace(segment[idx+len("THEN"):])
			if ifClause == "" || thenClause == "" {
				continue
			}
			conditions = append(conditions, BusinessCondition{If: ifClause, Then: thenClause})
		} else if strings.HasPrefix(upper, "ELSE") {
			elseLabel = strings.TrimSpace(segment[len("ELSE"):])
		}
	}

	return conditions, elseLabel
}

// ParseHardcodedValues parses a "key=value,key=value" string into a map.
// Values may be quoted; quotes are stripped. Segments without '=' are
// skipped.
func ParseHardcodedValues(spec string) map[string]string {
	values := map[string]string{}
	if strings.TrimSpace(spec) == "" {
		return values
	}

	for _, pair := range strings.Split(spec, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		values[key] = value
	}

	return values
}
