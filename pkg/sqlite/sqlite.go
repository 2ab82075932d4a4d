package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Config binds DATABASE_* variables for the local SQLite store.
type Config struct {
	File        string `envconfig:"DATABASE_FILE" default:"olist.db"`
	BusyTimeout int    `envconfig:"DATABASE_BUSY_TIMEOUT_MS" default:"5000"`
	MaxOpen     int    `envconfig:"DATABASE_MAX_OPEN_CONNS" default:"4"`
}

// DSN builds a modernc.org/sqlite data source name with foreign keys enforced.
func (c *Config) DSN() string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout))
	return "file:" + c.File + "?" + q.Encode()
}

func (c *Config) New(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite", c.DSN())
	if err != nil {
		return nil, err
	}
	if c.MaxOpen > 0 {
		db.SetMaxOpenConns(c.MaxOpen)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (c *Config) MustNew(ctx context.Context) *sql.DB {
	db, err := c.New(ctx)
	if err != nil {
		panic(err)
	}
	return db
}
