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

import (
	"fmt"
	"strings"
)

// KeyArityError is returned when the source and target join key specs
// resolve to a different number of columns.
type KeyArityError struct {
	SourceCount int
	TargetCount int
}

func (e *KeyArityError) Error() string {
	return fmt.Sprintf("join key count mismatch: source has %d key(s), target has %d key(s)",
		e.SourceCount, e.TargetCount)
}

// ParseJoinKeys splits a join key spec into an ordered list of column names.
// Composite keys are comma-separated; surrounding whitespace is trimmed and
// empty segments are dropped. An empty or whitespace-only spec yields an
// empty list, which callers must treat as a configuration error.
func ParseJoinKeys(spec string) []string {
	keys := []string{}
	for _, part := range strings.Split(spec, ",") {
		if key := strings.TrimSpace(part); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// BuildJoinPredicate produces a conjunction of per-position equality
// predicates between two aliased key lists. Position i of sourceKeys always
// pairs with position i of targetKeys regardless of column naming.
func BuildJoinPredicate(sourceKeys, targetKeys []string, sourceAlias, targetAlias string) (string, error) {
	if len(sourceKeys) != len(targetKeys) {
		return "", &KeyArityError{SourceCount: len(sourceKeys), TargetCount: len(targetKeys)}
	}
	if len(sourceKeys) == 0 {
		return "", fmt.Errorf("join predicate requires at least one key pair")
	}

	conditions := make([]string, 0, len(sourceKeys))
	for i, srcKey := range sourceKeys {
		conditions = append(conditions, fmt.Sprintf("%s.%s = %s.%s", sourceAlias, srcKey, targetAlias, targetKeys[i]))
	}

	return strings.Join(conditions, " AND "), nil
}
