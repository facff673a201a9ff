package blob

import (
	"context"
	"database/sql/driver"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"mdm-registry-backend/internal/model"
)

// newTestDB creates a gorm connection backed by sqlmock with the postgres dialect.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func newSQLiteDB(t *testing.T) *gorm.DB {
	testDB, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "blob.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(&model.Blob{}))
	t.Cleanup(func() {
		sqlDB, _ := testDB.DB()
		sqlDB.Close()
	})
	return testDB
}

func TestStores_Contract(t *testing.T) {
	backends := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store { return NewGormStore(newSQLiteDB(t)) },
	}

	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			_, err := s.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put(ctx, "doc", []byte(`{"a":1}`)))
			got, err := s.Get(ctx, "doc")
			require.NoError(t, err)
			assert.Equal(t, `{"a":1}`, string(got))

			require.NoError(t, s.Put(ctx, "doc", []byte(`{"a":2}`)))
			got, err = s.Get(ctx, "doc")
			require.NoError(t, err)
			assert.Equal(t, `{"a":2}`, string(got))

			require.NoError(t, s.Delete(ctx, "doc"))
			_, err = s.Get(ctx, "doc")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.NoError(t, s.Delete(ctx, "doc"), "deleting a missing key is not an error")
		})
	}
}

func TestStores_Update(t *testing.T) {
	backends := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store { return NewGormStore(newSQLiteDB(t)) },
	}

	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			err := s.Update(ctx, "doc", func(current []byte) ([]byte, error) {
				assert.Nil(t, current, "absent key yields nil")
				return []byte("v1"), nil
			})
			require.NoError(t, err)

			err = s.Update(ctx, "doc", func(current []byte) ([]byte, error) {
				assert.Equal(t, "v1", string(current))
				return nil, nil
			})
			require.NoError(t, err)
			got, err := s.Get(ctx, "doc")
			require.NoError(t, err)
			assert.Equal(t, "v1", string(got), "nil result leaves the value alone")

			err = s.Update(ctx, "doc", func([]byte) ([]byte, error) {
				return []byte("v2"), assert.AnError
			})
			assert.ErrorIs(t, err, assert.AnError)
			got, err = s.Get(ctx, "doc")
			require.NoError(t, err)
			assert.Equal(t, "v1", string(got), "failed update writes nothing")

			err = s.Update(ctx, "doc", func(current []byte) ([]byte, error) {
				return append(current, "+v2"...), nil
			})
			require.NoError(t, err)
			got, err = s.Get(ctx, "doc")
			require.NoError(t, err)
			assert.Equal(t, "v1+v2", string(got))
		})
	}
}

func TestMemoryStore_ConcurrentUpdatesAreAtomic(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Update(ctx, "counter", func(current []byte) ([]byte, error) {
				n, _ := strconv.Atoi(string(current))
				return []byte(strconv.Itoa(n + 1)), nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(writers), string(got))
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	value := []byte("abc")
	require.NoError(t, s.Put(ctx, "k", value))
	value[0] = 'x'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'y'
	again, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestGormStore_SQL(t *testing.T) {
	t.Run("Get missing row maps to ErrNotFound", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "blobs" WHERE id = $1`)).
			WithArgs("mdm_devices_data", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "value", "updated_at"}))

		_, err := s.Get(context.Background(), "mdm_devices_data")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Put upserts on id", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "blobs" ("id","value","updated_at") VALUES ($1,$2,$3) ON CONFLICT ("id") DO UPDATE SET`)).
			WithArgs("mdm_devices_data", `{"devices":[]}`, Any{}).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := s.Put(context.Background(), "mdm_devices_data", []byte(`{"devices":[]}`))
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Update locks the row and upserts in one transaction", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "blobs" WHERE id = \$1 .*FOR UPDATE`).
			WithArgs("mdm_devices_data", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "value", "updated_at"}).
				AddRow("mdm_devices_data", `{"n":1}`, time.Now()))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "blobs" ("id","value","updated_at") VALUES ($1,$2,$3) ON CONFLICT ("id") DO UPDATE SET`)).
			WithArgs("mdm_devices_data", `{"n":2}`, Any{}).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := s.Update(context.Background(), "mdm_devices_data", func(current []byte) ([]byte, error) {
			assert.Equal(t, `{"n":1}`, string(current))
			return []byte(`{"n":2}`), nil
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Update rolls back when the callback fails", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "blobs" WHERE id = \$1 .*FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "value", "updated_at"}))
		mock.ExpectRollback()

		err := s.Update(context.Background(), "mdm_devices_data", func(current []byte) ([]byte, error) {
			assert.Nil(t, current)
			return nil, assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Get wraps driver errors", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "blobs"`)).
			WillReturnError(assert.AnError)

		_, err := s.Get(context.Background(), "mdm_devices_data")
		assert.ErrorIs(t, err, assert.AnError)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}

func TestRedisStore_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	s := NewRedisStore(client, "mdm:")

	_, err := s.Get(context.Background(), "doc")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	called := false
	err = s.Update(context.Background(), "doc", func([]byte) ([]byte, error) {
		called = true
		return []byte("x"), nil
	})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.False(t, called)
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
