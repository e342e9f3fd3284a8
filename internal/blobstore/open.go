package blobstore

import (
	"context"
	"database/sql"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"partest/internal/config"
)

// NewOwnerID returns a unique id for this process, recorded on published blobs
func NewOwnerID() string {
	return uuid.NewString()
}

// Open creates the store selected by the configuration
func Open(ctx context.Context, cfg *config.Config, owner string) (Store, error) {
	switch cfg.Store.Backend {
	case config.BackendFS:
		return NewFSStore(cfg.GetStorePath(), owner)

	case config.BackendRedis:
		store, err := NewRedisStore(&redis.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		}, cfg.Store.Redis.KeyPrefix, owner, cfg.Store.TTL)
		if err != nil {
			return nil, err
		}
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Store.Redis.Addr, err)
		}
		return store, nil

	case config.BackendMySQL:
		return openMySQL(ctx, cfg.Store.MySQL, owner)

	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Store.Backend)
	}
}

func mysqlConfig(c config.MySQLConfig) *mysql.Config {
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, c.Port)
	mc.DBName = c.Database
	return mc
}

// openMySQL creates the database and the blob table when missing
func openMySQL(ctx context.Context, c config.MySQLConfig, owner string) (*MySQLStore, error) {
	if err := ensureDatabase(ctx, c); err != nil {
		return nil, err
	}
	store, err := OpenMySQL(mysqlConfig(c), c.Table, owner)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func ensureDatabase(ctx context.Context, c config.MySQLConfig) error {
	if !tableNamePattern.MatchString(c.Database) {
		return fmt.Errorf("invalid database name: %s", c.Database)
	}

	// Connect to MySQL server (without specifying database)
	server := mysqlConfig(c)
	server.DBName = ""
	db, err := sql.Open("mysql", server.FormatDSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database server: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database server: %w", err)
	}

	var exists bool
	query := "SELECT EXISTS(SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?)"
	if err := db.QueryRowContext(ctx, query, c.Database).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check database %s: %w", c.Database, err)
	}
	if exists {
		return nil
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", c.Database)); err != nil {
		return fmt.Errorf("failed to create database %s: %w", c.Database, err)
	}
	return nil
}
