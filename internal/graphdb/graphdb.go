// Package graphdb implements store.Store on Neo4j. Accounts, feelings,
// posts, friend requests, chats and messages are nodes; friendships,
// authorship, participation and the last-message pointer are relationships.
package graphdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"feels/backend/internal/store"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Store is a Cypher-backed social graph.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	log      *zap.Logger
}

var _ store.Store = (*Store)(nil)

type Config struct {
	URI      string
	Username string
	Password string
	// Database selects a named database; empty means the server default.
	Database string
}

// Connect opens a driver, verifies connectivity and ensures the schema.
func Connect(ctx context.Context, cfg Config, log *zap.Logger) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("connect to neo4j: %w", err)
	}

	s := &Store{driver: driver, database: cfg.Database, log: log.Named("graphdb")}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}
	s.log.Info("neo4j connection established", zap.String("uri", cfg.URI))
	return s, nil
}

var schema = []string{
	"CREATE CONSTRAINT account_uid IF NOT EXISTS FOR (a:Account) REQUIRE a.uid IS UNIQUE",
	"CREATE CONSTRAINT account_username IF NOT EXISTS FOR (a:Account) REQUIRE a.username IS UNIQUE",
	"CREATE CONSTRAINT account_email IF NOT EXISTS FOR (a:Account) REQUIRE a.email IS UNIQUE",
	"CREATE CONSTRAINT feeling_name IF NOT EXISTS FOR (f:Feeling) REQUIRE f.name IS UNIQUE",
	"CREATE CONSTRAINT feeling_type_name IF NOT EXISTS FOR (t:FeelingType) REQUIRE t.name IS UNIQUE",
	"CREATE CONSTRAINT post_uid IF NOT EXISTS FOR (p:Post) REQUIRE p.uid IS UNIQUE",
	"CREATE CONSTRAINT friend_request_uid IF NOT EXISTS FOR (r:FriendRequest) REQUIRE r.uid IS UNIQUE",
	"CREATE CONSTRAINT chat_uid IF NOT EXISTS FOR (c:Chat) REQUIRE c.uid IS UNIQUE",
	"CREATE CONSTRAINT message_uid IF NOT EXISTS FOR (m:Message) REQUIRE m.uid IS UNIQUE",
	"CREATE INDEX friend_request_status IF NOT EXISTS FOR (r:FriendRequest) ON (r.status)",
	"CREATE INDEX message_created_at IF NOT EXISTS FOR (m:Message) ON (m.created_at)",
}

// EnsureSchema creates the uniqueness constraints and indexes.
func (s *Store) EnsureSchema(ctx context.Context) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	for _, stmt := range schema {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("ensure schema %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.driver.Close(context.Background())
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

// read runs fn in a managed read transaction.
func (s *Store) read(ctx context.Context, fn func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)
	v, err := session.ExecuteRead(ctx, fn)
	return v, mapErr(err)
}

// write runs fn in a managed write transaction. Everything fn does commits
// or rolls back together.
func (s *Store) write(ctx context.Context, fn func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)
	v, err := session.ExecuteWrite(ctx, fn)
	return v, mapErr(err)
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var nerr *neo4j.Neo4jError
	if errors.As(err, &nerr) && nerr.Code == "Neo.ClientError.Schema.ConstraintValidationFailed" {
		return store.ErrDuplicate
	}
	return err
}

// collect runs query in tx and returns every record.
func collect(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any) ([]*neo4j.Record, error) {
	result, err := tx.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return result.Collect(ctx)
}

// exec runs query in tx and discards the records.
func exec(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any) error {
	result, err := tx.Run(ctx, query, params)
	if err != nil {
		return err
	}
	_, err = result.Consume(ctx)
	return err
}

// count runs a query returning a single integer column "n".
func count(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any) (int, error) {
	recs, err := collect(ctx, tx, query, params)
	if err != nil {
		return 0, err
	}
	if len(recs) == 0 {
		return 0, nil
	}
	n, _, err := neo4j.GetRecordValue[int64](recs[0], "n")
	return int(n), err
}

// region --- record decoding ---

func node(rec *neo4j.Record, key string) (neo4j.Node, bool) {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return neo4j.Node{}, false
	}
	n, ok := v.(neo4j.Node)
	return n, ok
}

func nodes(rec *neo4j.Record, key string) []neo4j.Node {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return nil
	}
	list, _ := v.([]any)
	out := make([]neo4j.Node, 0, len(list))
	for _, item := range list {
		if n, ok := item.(neo4j.Node); ok {
			out = append(out, n)
		}
	}
	return out
}

func str(p map[string]any, key string) string {
	v, _ := p[key].(string)
	return v
}

func integer(p map[string]any, key string) int {
	v, _ := p[key].(int64)
	return int(v)
}

func boolean(p map[string]any, key string) bool {
	v, _ := p[key].(bool)
	return v
}

func timestamp(p map[string]any, key string) time.Time {
	v, _ := p[key].(time.Time)
	return v
}

func timestampPtr(p map[string]any, key string) *time.Time {
	v, ok := p[key].(time.Time)
	if !ok {
		return nil
	}
	return &v
}

// optionalTime turns a nil pointer into a Cypher null.
func optionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func optionalString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// endregion
