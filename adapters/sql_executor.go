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
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/DataBridgeTech/reconcore"
)

// SQLQueryExecutor executes compiled plans through a database/sql handle.
// All supported engines (BigQuery, ClickHouse, PostgreSQL, MySQL, SQLite)
// expose database/sql drivers, so one executor covers them.
type SQLQueryExecutor struct {
	db     *sql.DB
	engine string
	logger *slog.Logger
}

func NewSQLQueryExecutor(db *sql.DB, engine string, logger *slog.Logger) *SQLQueryExecutor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &SQLQueryExecutor{
		db:     db,
		engine: engine,
		logger: logger,
	}
}

func (e *SQLQueryExecutor) ExecuteQuery(ctx context.Context, query string) (*reconcore.ResultSet, error) {
	startTime := time.Now()

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &reconcore.ExecutionError{Engine: e.engine, Query: query, Err: err}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, &reconcore.ExecutionError{Engine: e.engine, Query: query, Err: err}
	}

	result := &reconcore.ResultSet{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, &reconcore.ExecutionError{Engine: e.engine, Query: query,
				Err: fmt.Errorf("failed to scan result row: %w", err)}
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, &reconcore.ExecutionError{Engine: e.engine, Query: query, Err: err}
	}

	e.logger.Debug("query completed",
		"engine", e.engine,
		"rows", len(result.Rows),
		"elapsed_ms", time.Since(startTime).Milliseconds())

	return result, nil
}

// Ping verifies the underlying connection is usable.
func (e *SQLQueryExecutor) Ping(ctx context.Context) error {
	return e.db.PingContext(ctx)
}
