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

package adapters

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// LiveSchemaCatalog implements reconcore.SchemaCatalog by introspecting the
// backing engine, with a per-table cache so each table is fetched once per
// run. Introspection failures are logged and reported as an unknown table,
// which pushes the classifier onto its fallback ladder instead of aborting
// the scenario.
type LiveSchemaCatalog struct {
	fetch  func(table string) ([]string, error)
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string][]string
}

func newLiveSchemaCatalog(fetch func(table string) ([]string, error), logger *slog.Logger) *LiveSchemaCatalog {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &LiveSchemaCatalog{
		fetch:  fetch,
		logger: logger,
		cache:  map[string][]string{},
	}
}

func (c *LiveSchemaCatalog) Columns(table string) ([]string, bool) {
	key := strings.ToLower(table)

	c.mu.Lock()
	defer c.mu.Unlock()

	if columns, ok := c.cache[key]; ok {
		return columns, len(columns) > 0
	}

	columns, err := c.fetch(table)
	if err != nil {
		c.logger.Warn("schema introspection failed, treating table as unknown",
			"table", table, "error", err.Error())
		c.cache[key] = nil
		return nil, false
	}

	c.cache[key] = columns
	return columns, len(columns) > 0
}

func NewPostgresqlSchemaCatalog(db *sql.DB, logger *slog.Logger) *LiveSchemaCatalog {
	return newLiveSchemaCatalog(func(table string) ([]string, error) {
		return queryColumns(db,
			`SELECT column_name FROM information_schema.columns WHERE table_name = $1 ORDER BY ordinal_position`,
			strings.ToLower(table))
	}, logger)
}

func NewMysqlSchemaCatalog(db *sql.DB, database string, logger *slog.Logger) *LiveSchemaCatalog {
	return newLiveSchemaCatalog(func(table string) ([]string, error) {
		return queryColumns(db,
			`SELECT column_name FROM information_schema.columns WHERE table_schema = ? AND table_name = ? ORDER BY ordinal_position`,
			database, table)
	}, logger)
}

func NewClickhouseSchemaCatalog(db *sql.DB, database string, logger *slog.Logger) *LiveSchemaCatalog {
	return newLiveSchemaCatalog(func(table string) ([]string, error) {
		return queryColumns(db,
			`SELECT name FROM system.columns WHERE database = ? AND table = ? ORDER BY position`,
			database, table)
	}, logger)
}

func NewBigquerySchemaCatalog(db *sql.DB, project, dataset string, logger *slog.Logger) *LiveSchemaCatalog {
	return newLiveSchemaCatalog(func(table string) ([]string, error) {
		// INFORMATION_SCHEMA lives under the dataset; the table name is
		// inlined as a literal since identifiers cannot be parameterized.
		query := fmt.Sprintf(
			"SELECT column_name FROM `%s.%s.INFORMATION_SCHEMA.COLUMNS` WHERE table_name = '%s' ORDER BY ordinal_position",
			project, dataset, strings.ReplaceAll(table, "'", ""))
		return queryColumns(db, query)
	}, logger)
}

func NewSqliteSchemaCatalog(db *sql.DB, logger *slog.Logger) *LiveSchemaCatalog {
	return newLiveSchemaCatalog(func(table string) ([]string, error) {
		rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%q)", table))
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var columns []string
		for rows.Next() {
			var cid int
			var name, colType string
			var notNull int
			var dfltValue sql.NullString
			var pk int
			if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
				return nil, err
			}
			columns = append(columns, name)
		}
		return columns, rows.Err()
	}, logger)
}

func queryColumns(db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}
