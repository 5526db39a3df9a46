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

package recon

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/DataBridgeTech/reconcore"
	"github.com/DataBridgeTech/reconcore/adapters"
	"github.com/DataBridgeTech/reconcore/cnn"
)

const (
	Version = "v0.1.0"
)

func GetReconCoreLibVersion() string {
	return Version
}

// Open dials the data source and returns the database handle. Callers own
// the handle and close it when the run finishes.
func Open(dataSource *reconcore.DataSource) (*sql.DB, error) {
	switch dataSource.Type {
	case reconcore.DataSourceTypeBigquery:
		db, err := cnn.NewBigqueryConnection(dataSource.Configuration)
		if err != nil {
			return nil, fmt.Errorf("failed to create bigquery connection: %w", err)
		}
		return db, nil
	case reconcore.DataSourceTypeClickhouse:
		db, err := cnn.NewClickhouseConnection(dataSource.Configuration)
		if err != nil {
			return nil, fmt.Errorf("failed to create clickhouse connection: %w", err)
		}
		return db, nil
	case reconcore.DataSourceTypePostgresql:
		db, err := cnn.NewPostgresqlConnection(dataSource.Configuration)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgresql connection: %w", err)
		}
		return db, nil
	case reconcore.DataSourceTypeMysql:
		db, err := cnn.NewMysqlConnection(dataSource.Configuration)
		if err != nil {
			return nil, fmt.Errorf("failed to create mysql connection: %w", err)
		}
		return db, nil
	case reconcore.DataSourceTypeSqlite:
		db, err := cnn.NewSqliteConnection(dataSource.Configuration)
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite connection: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported data source type: %s", dataSource.Type)
	}
}

// NewQueryExecutor wraps an open handle in the executor for the data
// source's engine.
func NewQueryExecutor(dataSource *reconcore.DataSource, db *sql.DB, logger *slog.Logger) reconcore.QueryExecutor {
	return adapters.NewSQLQueryExecutor(db, string(dataSource.Type), logger)
}

// NewDialect returns the SQL dialect matching the data source.
func NewDialect(dataSource *reconcore.DataSource) (reconcore.Dialect, error) {
	switch dataSource.Type {
	case reconcore.DataSourceTypeBigquery:
		return &reconcore.BigQueryDialect{
			Project: dataSource.Configuration.Project,
			Dataset: dataSource.Configuration.Dataset,
		}, nil
	case reconcore.DataSourceTypeClickhouse:
		return &reconcore.ClickHouseDialect{}, nil
	case reconcore.DataSourceTypePostgresql:
		return &reconcore.PostgresDialect{}, nil
	case reconcore.DataSourceTypeMysql:
		return &reconcore.MySQLDialect{}, nil
	case reconcore.DataSourceTypeSqlite:
		return &reconcore.SQLiteDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported data source type: %s", dataSource.Type)
	}
}

// NewSchemaCatalog returns a live introspection catalog over the open
// handle.
func NewSchemaCatalog(dataSource *reconcore.DataSource, db *sql.DB, logger *slog.Logger) (reconcore.SchemaCatalog, error) {
	switch dataSource.Type {
	case reconcore.DataSourceTypeBigquery:
		return adapters.NewBigquerySchemaCatalog(db,
			dataSource.Configuration.Project, dataSource.Configuration.Dataset, logger), nil
	case reconcore.DataSourceTypeClickhouse:
		return adapters.NewClickhouseSchemaCatalog(db, dataSource.Configuration.Database, logger), nil
	case reconcore.DataSourceTypePostgresql:
		return adapters.NewPostgresqlSchemaCatalog(db, logger), nil
	case reconcore.DataSourceTypeMysql:
		return adapters.NewMysqlSchemaCatalog(db, dataSource.Configuration.Database, logger), nil
	case reconcore.DataSourceTypeSqlite:
		return adapters.NewSqliteSchemaCatalog(db, logger), nil
	default:
		return nil, fmt.Errorf("unsupported data source type: %s", dataSource.Type)
	}
}

// NewScenarioRunner assembles a runner for the data source with one call.
func NewScenarioRunner(dataSource *reconcore.DataSource, db *sql.DB, logger *slog.Logger, opts reconcore.RunnerOptions) (*reconcore.ScenarioRunner, error) {
	dialect, err := NewDialect(dataSource)
	if err != nil {
		return nil, err
	}

	catalog, err := NewSchemaCatalog(dataSource, db, logger)
	if err != nil {
		return nil, err
	}

	executor := NewQueryExecutor(dataSource, db, logger)
	return reconcore.NewScenarioRunner(catalog, dialect, executor, logger, opts), nil
}
