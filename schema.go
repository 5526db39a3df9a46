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

// SchemaCatalog maps a table name to its ordered list of known column names.
// The catalog is read-only for the duration of a run. Implementations may be
// static fixtures or live introspection adapters over a backing engine.
type SchemaCatalog interface {
	// Columns returns the ordered column names for the table, and whether
	// the table is known to the catalog. Lookup is case-insensitive on the
	// table name.
	Columns(table string) ([]string, bool)
}

// StaticSchemaCatalog is an in-memory SchemaCatalog backed by a fixed map.
type StaticSchemaCatalog struct {
	tables map[string][]string
}

func NewStaticSchemaCatalog(tables map[string][]string) *StaticSchemaCatalog {
	normalized := make(map[string][]string, len(tables))
	for table, columns := range tables {
		normalized[strings.ToLower(table)] = columns
	}
	return &StaticSchemaCatalog{tables: normalized}
}

func (c *StaticSchemaCatalog) Columns(table string) ([]string, bool) {
	columns, ok := c.tables[strings.ToLower(table)]
	return columns, ok
}

// HasColumn reports whether the catalog knows the column for the table.
// Column matching is case-insensitive.
func HasColumn(catalog SchemaCatalog, table, column string) bool {
	columns, ok := catalog.Columns(table)
	if !ok {
		return false
	}
	for _, c := range columns {
		if strings.EqualFold(c, column) {
			return true
		}
	}
	return false
}
