package infra

// source.go: read-only access to the external SQL Server system of record.
// Every query runs on its own pooled connection acquired for the duration of
// the call and always released, behind a circuit breaker and a request timeout.

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/RatanSinghYadav/scheme-app-api/internal/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/sony/gobreaker"
)

// Row is one result row keyed by column name.
type Row map[string]any

// ErrSourceNotConfigured is returned when MSSQL_SERVER is empty.
var ErrSourceNotConfigured = errors.New("external source not configured")

// SourceDB is the external source adapter.
type SourceDB struct {
	db             *sqlx.DB
	cb             *gobreaker.CircuitBreaker
	requestTimeout time.Duration
}

// SourceDSN builds a go-mssqldb connection URL from config.
func SourceDSN(cfg *config.Config) string {
	q := url.Values{}
	q.Set("database", cfg.MSSQLDatabase)
	q.Set("connection timeout", strconv.Itoa(cfg.MSSQLConnectTimeoutSeconds))
	q.Set("dial timeout", strconv.Itoa(cfg.MSSQLConnectTimeoutSeconds))
	if cfg.MSSQLEncrypt {
		q.Set("encrypt", "true")
	} else {
		q.Set("encrypt", "disable")
	}
	q.Set("TrustServerCertificate", "true")

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.MSSQLUser, cfg.MSSQLPassword),
		Host:     net.JoinHostPort(cfg.MSSQLServer, strconv.Itoa(cfg.MSSQLPort)),
		RawQuery: q.Encode(),
	}
	return u.String()
}

// NewSourceDB prepares the pool. No connection is opened until the first query.
func NewSourceDB(cfg *config.Config) (*SourceDB, error) {
	s := &SourceDB{
		cb:             NewCircuitBreaker("mssql-source", DefaultCBConfig()),
		requestTimeout: time.Duration(cfg.MSSQLRequestTimeoutSeconds) * time.Second,
	}
	if s.requestTimeout <= 0 {
		s.requestTimeout = 30 * time.Second
	}
	if cfg.MSSQLServer == "" {
		return s, nil
	}

	db, err := sqlx.Open("sqlserver", SourceDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("mssql: open: %w", err)
	}
	// One sync run uses one connection at a time.
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)
	s.db = db
	return s, nil
}

// Configured reports whether a server address was provided.
func (s *SourceDB) Configured() bool { return s != nil && s.db != nil }

// BreakerState is exposed on the health endpoint.
func (s *SourceDB) BreakerState() string { return s.cb.State().String() }

// WithConnection acquires a dedicated connection, runs fn, and releases the
// connection on every path.
func (s *SourceDB) WithConnection(ctx context.Context, fn func(conn *sqlx.Conn) error) error {
	if !s.Configured() {
		return ErrSourceNotConfigured
	}
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("mssql: connect: %w", err)
	}
	defer conn.Close()
	return fn(conn)
}

// Query runs a fixed query and returns every row. Failures count against the
// breaker; while it is open calls fail immediately.
func (s *SourceDB) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	if !s.Configured() {
		return nil, ErrSourceNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	out, err := s.cb.Execute(func() (interface{}, error) {
		var rows []Row
		err := s.WithConnection(ctx, func(conn *sqlx.Conn) error {
			rs, err := conn.QueryxContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("mssql: query: %w", err)
			}
			defer rs.Close()
			for rs.Next() {
				m := make(map[string]any)
				if err := rs.MapScan(m); err != nil {
					return fmt.Errorf("mssql: scan: %w", err)
				}
				rows = append(rows, normalizeRow(m))
			}
			return rs.Err()
		})
		return rows, err
	})
	if err != nil {
		return nil, err
	}
	return out.([]Row), nil
}

// Ping checks connectivity through the breaker.
func (s *SourceDB) Ping(ctx context.Context) error {
	if !s.Configured() {
		return ErrSourceNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.db.PingContext(ctx)
	})
	return err
}

func (s *SourceDB) Close() error {
	if !s.Configured() {
		return nil
	}
	return s.db.Close()
}

// normalizeRow converts driver byte slices to strings so callers only see
// scalar Go values.
func normalizeRow(m map[string]any) Row {
	row := make(Row, len(m))
	for k, v := range m {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
			continue
		}
		row[k] = v
	}
	return row
}
