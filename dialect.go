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
	"regexp"
	"strings"
)

// Dialect abstracts the SQL differences between the supported query engines.
// Generated plans are not required to be bit-identical across engines, only
// to preserve the source projection -> join/classify -> summary shape.
type Dialect interface {
	Name() string

	// TableRef renders a table reference, adding engine-specific
	// qualification (e.g. BigQuery project.dataset prefixes).
	TableRef(table string) string

	// CountIf renders a conditional count over a boolean expression.
	CountIf(condition string) string

	CastString(expr string) string
	CastFloat(expr string) string

	StringLiteral(value string) string
	Concat(args ...string) string

	SupportsFullOuterJoin() bool
}

type BigQueryDialect struct {
	Project string
	Dataset string
}

func (d *BigQueryDialect) Name() string { return "bigquery" }

func (d *BigQueryDialect) TableRef(table string) string {
	if d.Project != "" && d.Dataset != "" {
		return fmt.Sprintf("`%s.%s.%s`", d.Project, d.Dataset, table)
	}
	return table
}

func (d *BigQueryDialect) CountIf(condition string) string {
	return fmt.Sprintf("COUNTIF(%s)", condition)
}

func (d *BigQueryDialect) CastString(expr string) string {
	return fmt.Sprintf("CAST(%s AS STRING)", expr)
}

func (d *BigQueryDialect) CastFloat(expr string) string {
	return fmt.Sprintf("CAST(%s AS FLOAT64)", expr)
}

func (d *BigQueryDialect) StringLiteral(value string) string {
	return quoteSingle(value)
}

func (d *BigQueryDialect) Concat(args ...string) string {
	return fmt.Sprintf("CONCAT(%s)", strings.Join(args, ", "))
}

func (d *BigQueryDialect) SupportsFullOuterJoin() bool { return true }

type ClickHouseDialect struct{}

func (d *ClickHouseDialect) Name() string { return "clickhouse" }

func (d *ClickHouseDialect) TableRef(table string) string { return table }

func (d *ClickHouseDialect) CountIf(condition string) string {
	return fmt.Sprintf("countIf(%s)", condition)
}

func (d *ClickHouseDialect) CastString(expr string) string {
	return fmt.Sprintf("toString(%s)", expr)
}

func (d *ClickHouseDialect) CastFloat(expr string) string {
	return fmt.Sprintf("toFloat64OrNull(toString(%s))", expr)
}

func (d *ClickHouseDialect) StringLiteral(value string) string {
	return quoteSingle(value)
}

func (d *ClickHouseDialect) Concat(args ...string) string {
	return fmt.Sprintf("concat(%s)", strings.Join(args, ", "))
}

func (d *ClickHouseDialect) SupportsFullOuterJoin() bool { return true }

// PostgresDialect covers PostgreSQL and is the closest to plain ANSI SQL.
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string { return "postgresql" }

func (d *PostgresDialect) TableRef(table string) string { return table }

func (d *PostgresDialect) CountIf(condition string) string {
	return fmt.Sprintf("COUNT(CASE WHEN %s THEN 1 END)", condition)
}

func (d *PostgresDialect) CastString(expr string) string {
	return fmt.Sprintf("CAST(%s AS TEXT)", expr)
}

func (d *PostgresDialect) CastFloat(expr string) string {
	return fmt.Sprintf("CAST(%s AS DOUBLE PRECISION)", expr)
}

func (d *PostgresDialect) StringLiteral(value string) string {
	return quoteSingle(value)
}

func (d *PostgresDialect) Concat(args ...string) string {
	return fmt.Sprintf("CONCAT(%s)", strings.Join(args, ", "))
}

func (d *PostgresDialect) SupportsFullOuterJoin() bool { return true }

type MySQLDialect struct{}

func (d *MySQLDialect) Name() string { return "mysql" }

func (d *MySQLDialect) TableRef(table string) string { return table }

func (d *MySQLDialect) CountIf(condition string) string {
	return fmt.Sprintf("COUNT(CASE WHEN %s THEN 1 END)", condition)
}

func (d *MySQLDialect) CastString(expr string) string {
	return fmt.Sprintf("CAST(%s AS CHAR)", expr)
}

func (d *MySQLDialect) CastFloat(expr string) string {
	return fmt.Sprintf("CAST(%s AS DOUBLE)", expr)
}

func (d *MySQLDialect) StringLiteral(value string) string {
	return quoteSingle(value)
}

func (d *MySQLDialect) Concat(args ...string) string {
	return fmt.Sprintf("CONCAT(%s)", strings.Join(args, ", "))
}

// MySQL has no FULL OUTER JOIN; plans emulate it with a LEFT JOIN union.
func (d *MySQLDialect) SupportsFullOuterJoin() bool { return false }

type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string { return "sqlite" }

func (d *SQLiteDialect) TableRef(table string) string { return table }

func (d *SQLiteDialect) CountIf(condition string) string {
	return fmt.Sprintf("COUNT(CASE WHEN %s THEN 1 END)", condition)
}

func (d *SQLiteDialect) CastString(expr string) string {
	return fmt.Sprintf("CAST(%s AS TEXT)", expr)
}

func (d *SQLiteDialect) CastFloat(expr string) string {
	return fmt.Sprintf("CAST(%s AS REAL)", expr)
}

func (d *SQLiteDialect) StringLiteral(value string) string {
	return quoteSingle(value)
}

func (d *SQLiteDialect) Concat(args ...string) string {
	return "(" + strings.Join(args, " || ") + ")"
}

func (d *SQLiteDialect) SupportsFullOuterJoin() bool { return true }

func quoteSingle(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

var doubleQuotedLiteral = regexp.MustCompile(`"([^"]*)"`)

// normalizeStringLiterals rewrites double-quoted string literals in a
// user-authored expression into the dialect's literal form. Derivation logic
// is commonly written with double quotes (BigQuery style), which most other
// engines reject.
func normalizeStringLiterals(expr string, dialect Dialect) string {
	return doubleQuotedLiteral.ReplaceAllStringFunc(expr, func(match string) string {
		return dialect.StringLiteral(strings.Trim(match, `"`))
	})
}
