package query

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/roach88/strata/internal/store"
	"github.com/roach88/strata/internal/testutil"
	"github.com/roach88/strata/internal/value"
)

type person struct {
	ID   int64
	Name string
	Age  *int64
}

var (
	personID   = NewField("id", value.Integer, func(p *person) *int64 { return &p.ID }).Key().NoInsert()
	personName = NewField("name", value.Text, func(p *person) *string { return &p.Name })
	personAge  = NewField("age", value.Optional(value.Int64), func(p *person) **int64 { return &p.Age })
	people     = NewTable[person]("person", personID, personName, personAge)
)

type setting struct {
	Key     string
	Value   string
	Created int64
}

var (
	settingKey     = NewField("key", value.Text, func(s *setting) *string { return &s.Key }).Key()
	settingValue   = NewField("value", value.Text, func(s *setting) *string { return &s.Value })
	settingCreated = NewField("created", value.Integer, func(s *setting) *int64 { return &s.Created }).NoUpdate()
	settings       = NewTable[setting]("setting", settingKey, settingValue, settingCreated)
)

func ptr[V any](v V) *V { return &v }

// openPeople returns a database with the person and setting tables.
func openPeople(t *testing.T) *store.DB {
	t.Helper()
	db := testutil.OpenDB(t)
	ctx := context.Background()
	require.NoError(t, people.CreateTable().Apply(ctx, db))
	require.NoError(t, settings.CreateTable().Apply(ctx, db))
	return db
}

func insertPeople(t *testing.T, db *store.DB, ps ...person) {
	t.Helper()
	for _, p := range ps {
		_, err := people.Insert(context.Background(), db, p)
		require.NoError(t, err)
	}
}

// mockConn adapts a sqlmock *sql.DB to Conn and records reported changes.
type mockConn struct {
	db      *sql.DB
	changes []store.Change
}

func newMockConn(t *testing.T) (*mockConn, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return &mockConn{db: db}, mock
}

func (c *mockConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

func (c *mockConn) Mutate(ctx context.Context, change store.Change, query string, args ...any) (sql.Result, error) {
	res, err := c.db.ExecContext(ctx, query, args...)
	if err == nil {
		c.changes = append(c.changes, change)
	}
	return res, err
}

func (c *mockConn) Query(ctx context.Context, query string, args []any, step func(*sql.Rows) error) error {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := step(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
