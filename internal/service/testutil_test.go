package service

import (
	"context"
	"sync"
	"testing"

	"Member_Registry/internal/model"
	"Member_Registry/internal/repository/sqlstore"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupSQLiteTestDB 内存库 + 审计日志；清理时先等审计写完再关库
func setupSQLiteTestDB(t *testing.T) (*gorm.DB, *AuditLogger) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to SQLite test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := sqlstore.Migrate(context.Background(), db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	audit := NewAuditLogger(db, nil)
	t.Cleanup(audit.Wait)
	return db, audit
}

func seedMember(t *testing.T, db *gorm.DB, id, code, last, first string) *model.Member {
	t.Helper()
	m := &model.Member{ID: id, MemberCode: code, LastName: last, FirstName: first, Status: model.MemberStatusActive}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed member: %v", err)
	}
	return m
}

func auditActions(t *testing.T, db *gorm.DB, audit *AuditLogger) []string {
	t.Helper()
	audit.Wait()
	var actions []string
	if err := db.Model(&model.AuditLog{}).Order("created_at ASC").Pluck("action_type", &actions).Error; err != nil {
		t.Fatalf("read audit logs: %v", err)
	}
	return actions
}

var editor = Actor{UserID: "u-editor", Email: "editor@example.com", Role: model.RoleEditor}
var admin = Actor{UserID: "u-admin", Email: "admin@example.com", Role: model.RoleAdmin}

// memoryCache 进程内的 ListCache / ListLock
type memoryCache struct {
	mu          sync.Mutex
	data        map[string][]byte
	locks       map[string]string
	sets        int
	invalidated int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}, locks: map[string]string{}}
}

func (c *memoryCache) Get(_ context.Context, name string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[name]
	return b, ok, nil
}

func (c *memoryCache) Set(_ context.Context, name string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[name] = payload
	c.sets++
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, name)
	c.invalidated++
	return nil
}

func (c *memoryCache) Acquire(_ context.Context, name, token string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, held := c.locks[name]; held {
		return false, nil
	}
	c.locks[name] = token
	return true, nil
}

func (c *memoryCache) Release(_ context.Context, name, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locks[name] == token {
		delete(c.locks, name)
	}
	return nil
}
