package cnn

import (
	"database/sql"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/DataBridgeTech/reconcore"
)

func NewClickhouseConnection(connectionCfg reconcore.ConnectionConfig) (*sql.DB, error) {
	db := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{connectionCfg.Host},
		Auth: clickhouse.Auth{
			Database: connectionCfg.Database,
			Username: connectionCfg.Username,
			Password: connectionCfg.Password,
		},
	})
	db.SetMaxOpenConns(32)
	db.SetMaxIdleConns(32)

	return db, nil
}
