package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	apperrors "process-monitor/internal/common/errors"
	"process-monitor/internal/common/logger"
	"process-monitor/internal/monitor/deviation"
	"process-monitor/internal/monitor/mutation"
	"process-monitor/internal/monitor/repository"
)

func TestMain(m *testing.M) {
	// Воркер opencensus запускается из init() клиентских библиотек Google.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

func newTestManager(t *testing.T) (*Manager, *repository.Repository) {
	t.Helper()

	db, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "monitor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.New(db, repository.SQLite)
	require.NoError(t, repo.Init(context.Background(), filepath.Join("..", "..", "..", "migrations", "001_init_monitor.sql")))

	m := NewManager(repo, nil, logger.NewTestLogger(t))
	m.newID = sequentialIDs()
	m.now = func() time.Time { return clock }
	return m, repo
}

func TestManagerLifecycle(t *testing.T) {
	m, repo := newTestManager(t)
	ctx := context.Background()

	w, err := m.Create(ctx, "  ")
	require.NoError(t, err)
	assert.Equal(t, "id-1", w.ID())
	assert.Equal(t, DefaultWorkspaceName, w.Name())
	assert.Len(t, w.Snapshot().Historical, 1)

	_, err = w.ApplyEdit(ctx, mutation.Edit{Kind: mutation.KindZoneAdd, Mode: deviation.ModeBaseline, Name: "Oven"})
	require.NoError(t, err)
	_, err = w.AddReading(ctx)
	require.NoError(t, err)

	require.NoError(t, m.Rename(ctx, w.ID(), "Paint line"))
	assert.Equal(t, "Paint line", w.Name())

	// Новый менеджер читает то же хранилище: состояние восстанавливается из документа.
	fresh := NewManager(repo, nil, logger.NewTestLogger(t))
	loaded, err := fresh.Get(ctx, w.ID())
	require.NoError(t, err)
	snap := loaded.Snapshot()
	assert.Equal(t, "Paint line", loaded.Name())
	require.Len(t, snap.Baseline.Zones, 1)
	assert.Equal(t, "Oven", snap.Baseline.Zones[0].Name)
	assert.Len(t, snap.Historical, 2)
	assert.Equal(t, 1, snap.ActiveIndex)

	same, err := fresh.Get(ctx, w.ID())
	require.NoError(t, err)
	assert.Same(t, loaded, same)

	list, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Paint line", list[0].Name)

	require.NoError(t, m.Delete(ctx, w.ID()))
	_, err = m.Get(ctx, w.ID())
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(m.Delete(ctx, w.ID())))
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(m.Rename(ctx, w.ID(), "x")))
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(m.Rename(ctx, w.ID(), "")))
}

func TestManagerRejectsCorruptDocument(t *testing.T) {
	m, repo := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &repository.Workspace{ID: "bad", Name: "Broken", Document: []byte(`{"baseline":{}}`)}))

	_, err := m.Get(ctx, "bad")
	assert.Equal(t, apperrors.CodeFormatInvalid, apperrors.CodeOf(err))
}

// countingStore считает обращения к хранилищу и задерживает чтение.
type countingStore struct {
	Store
	mu    sync.Mutex
	gets  int
	delay chan struct{}
}

func (s *countingStore) Get(ctx context.Context, id string) (*repository.Workspace, error) {
	s.mu.Lock()
	s.gets++
	s.mu.Unlock()
	<-s.delay
	return s.Store.Get(ctx, id)
}

func TestManagerGetLoadsOutsideLock(t *testing.T) {
	seed, repo := newTestManager(t)
	ctx := context.Background()

	first, err := seed.Create(ctx, "First")
	require.NoError(t, err)
	second, err := seed.Create(ctx, "Second")
	require.NoError(t, err)

	store := &countingStore{Store: repo, delay: make(chan struct{})}
	m := NewManager(store, nil, logger.NewTestLogger(t))

	got := make(chan *Workspace, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, err := m.Get(ctx, first.ID())
			assert.NoError(t, err)
			got <- w
		}()
	}

	// Оба вызова доходят до хранилища одновременно: менеджер не держит блокировку во время загрузки.
	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.gets == 2
	}, time.Second, 5*time.Millisecond)

	close(store.delay)
	wg.Wait()
	close(got)

	a, b := <-got, <-got
	require.NotNil(t, a)
	assert.Same(t, a, b)

	other, err := m.Get(ctx, second.ID())
	require.NoError(t, err)
	assert.Equal(t, "Second", other.Name())
}
