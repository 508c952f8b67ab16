// Package dbtest opens throwaway SQLite databases for repository and service tests.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/medimitra/medimitra-backend/pkg/db"
	"github.com/medimitra/medimitra-backend/pkg/db/models"
)

var seq atomic.Int64

// Open returns a fresh in-memory database migrated with the given models, or
// with every model when none are passed. The database lives until the test ends.
func Open(t testing.TB, schema ...any) *gorm.DB {
	t.Helper()
	name := fmt.Sprintf("file:%s_%d_%d?mode=memory&cache=shared", sanitize(t.Name()), time.Now().UnixNano(), seq.Add(1))
	conn, err := gorm.Open(sqlite.Open(name), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		NowFunc:                db.NowUTC,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(schema) == 0 {
		schema = models.All()
	}
	if err := conn.AutoMigrate(schema...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// Client wraps Open in a *db.Client for services that need WithTx.
func Client(t testing.TB, schema ...any) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := Open(t, schema...)
	return db.NewFromConn(conn), conn
}

func sanitize(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
