package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"Member_Registry/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (p *recordingPublisher) Send(_ context.Context, key string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return p.err
}

func TestAuditLogger_WriteMasksAndPublishes(t *testing.T) {
	db, _ := setupSQLiteTestDB(t)
	pub := &recordingPublisher{}
	l := NewAuditLogger(db, pub)
	ctx := context.Background()

	row, err := l.Write(ctx, AuditEntry{
		ActionType: ActionCreateMember,
		Module:     ModuleMembers,
		Summary:    "Membru creat",
		EntityID:   "m1",
		Metadata:   map[string]any{"cnp": "1500315123456", "name": "Popescu"},
		Actor:      Actor{UserID: "u1", Role: model.RoleEditor, IP: "10.0.0.1"},
	})
	require.NoError(t, err)
	assert.NotContains(t, string(row.Metadata), "1500315123456")
	assert.Contains(t, string(row.Metadata), "Popescu")
	require.NotNil(t, row.IP)
	assert.Equal(t, "10.0.0.1", *row.IP)
	assert.Nil(t, row.EntityCode)
	assert.Equal(t, []string{"members:CREATE_MEMBER"}, pub.keys)

	// 投递失败不影响落库
	pub.err = errors.New("broker down")
	_, err = l.Write(ctx, AuditEntry{ActionType: ActionRuntimeError})
	require.NoError(t, err)

	list, err := l.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	modules := []string{list[0].Module, list[1].Module}
	assert.ElementsMatch(t, []string{ModuleMembers, ModuleSystem}, modules)
}

func TestAuditLogger_NilIsNoop(t *testing.T) {
	var l *AuditLogger
	assert.NotPanics(t, func() {
		l.Log(AuditEntry{ActionType: ActionLogout})
		l.Wait()
	})
}

func TestStatusOf(t *testing.T) {
	status, msg := StatusOf(ErrNotFoundOrNoChange)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not found or no change", msg)

	status, msg = StatusOf(errors.Join(errors.New("wrapped"), ErrAdminRequired))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Forbidden - admin access required", msg)

	status, msg = StatusOf(errors.New("disk full"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "disk full", msg)
}

func TestReadThrough_LockContention(t *testing.T) {
	ctx := context.Background()
	cache := newMemoryCache()
	held, err := cache.Acquire(ctx, "members", "other")
	require.NoError(t, err)
	require.True(t, held)

	loads := 0
	load := func(context.Context) ([]byte, error) {
		loads++
		return []byte(`[]`), nil
	}
	b, err := readThrough(ctx, cache, cache, "members", load)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
	assert.Equal(t, 1, loads)
	// 没拿到锁的请求不回填
	assert.Equal(t, 0, cache.sets)

	require.NoError(t, cache.Release(ctx, "members", "other"))
	_, err = readThrough(ctx, cache, cache, "members", load)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
	_, err = readThrough(ctx, cache, cache, "members", load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}
