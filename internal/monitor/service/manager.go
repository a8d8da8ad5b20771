package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "process-monitor/internal/common/errors"
	"process-monitor/internal/common/metrics"
	"process-monitor/internal/monitor/llm"
	"process-monitor/internal/monitor/models"
	"process-monitor/internal/monitor/repository"
	"process-monitor/internal/monitor/savefile"
)

// Store - хранилище рабочих пространств.
type Store interface {
	Create(ctx context.Context, w *repository.Workspace) error
	Get(ctx context.Context, id string) (*repository.Workspace, error)
	List(ctx context.Context) ([]repository.Workspace, error)
	Save(ctx context.Context, id string, document []byte, activeIndex int) error
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}

const DefaultWorkspaceName = "Untitled process line"

// ============================================================
// Workspace Manager
// ============================================================

// Manager держит загруженные рабочие пространства и сохраняет их после каждой правки.
type Manager struct {
	mu     sync.Mutex
	loaded map[string]*Workspace

	store  Store
	diag   llm.Diagnostician
	logger *zap.Logger
	newID  func() string
	now    func() time.Time
}

func NewManager(store Store, diag llm.Diagnostician, logger *zap.Logger) *Manager {
	if diag == nil {
		diag = llm.Disabled{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		loaded: make(map[string]*Workspace),
		store:  store,
		diag:   diag,
		logger: logger,
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

func (m *Manager) options(id string) Options {
	return Options{
		Diagnostician: m.diag,
		Logger:        m.logger,
		NewID:         m.newID,
		Now:           m.now,
		Save: func(ctx context.Context, document []byte, activeIndex int) error {
			return m.store.Save(ctx, id, document, activeIndex)
		},
	}
}

// Create создаёт рабочее пространство с пустой базой и одним пустым замером.
func (m *Manager) Create(ctx context.Context, name string) (*Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultWorkspaceName
	}

	now := m.now()
	doc := savefile.Document{
		Baseline:       models.BlankProcessData(now),
		Historical:     []models.ProcessData{models.BlankProcessData(now)},
		ChangeRequests: []models.ChangeRequest{},
	}
	data, err := savefile.Encode(doc)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "Failed to encode workspace", err)
	}

	id := m.newID()
	if err := m.store.Create(ctx, &repository.Workspace{ID: id, Name: name, Document: data}); err != nil {
		return nil, storageError(err)
	}

	w := NewWorkspace(id, name, doc, 0, m.options(id))

	m.mu.Lock()
	m.loaded[id] = w
	metrics.WorkspacesLoaded.Set(float64(len(m.loaded)))
	m.mu.Unlock()

	m.logger.Info("Workspace created", zap.String("workspace_id", id), zap.String("name", name))
	return w, nil
}

// Get возвращает рабочее пространство, при необходимости загружая его из хранилища.
// Загрузка идёт без блокировки менеджера; при гонке побеждает первый загруженный экземпляр.
func (m *Manager) Get(ctx context.Context, id string) (*Workspace, error) {
	m.mu.Lock()
	w, ok := m.loaded[id]
	m.mu.Unlock()
	if ok {
		return w, nil
	}

	loaded, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.loaded[id]; ok {
		return w, nil
	}
	m.loaded[id] = loaded
	metrics.WorkspacesLoaded.Set(float64(len(m.loaded)))
	return loaded, nil
}

func (m *Manager) load(ctx context.Context, id string) (*Workspace, error) {
	rec, err := m.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("workspace", id)
		}
		return nil, storageError(err)
	}

	doc, reconciliation, err := savefile.Decode(rec.Document, m.now())
	if err != nil {
		m.logger.Error("Stored workspace is unreadable", zap.String("workspace_id", id), zap.Error(err))
		return nil, mapError(err)
	}
	for _, c := range reconciliation.Changes {
		m.logger.Warn("Reading reconciled on load",
			zap.String("workspace_id", id),
			zap.String("change", c.String()),
		)
	}
	return NewWorkspace(rec.ID, rec.Name, doc, rec.ActiveIndex, m.options(rec.ID)), nil
}

func (m *Manager) List(ctx context.Context) ([]repository.Workspace, error) {
	list, err := m.store.List(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return list, nil
}

func (m *Manager) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperrors.NewValidationError("name must not be empty")
	}
	if err := m.store.Rename(ctx, id, name); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFoundError("workspace", id)
		}
		return storageError(err)
	}

	m.mu.Lock()
	w, ok := m.loaded[id]
	m.mu.Unlock()
	if ok {
		w.setName(name)
	}
	return nil
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFoundError("workspace", id)
		}
		return storageError(err)
	}

	m.mu.Lock()
	delete(m.loaded, id)
	metrics.WorkspacesLoaded.Set(float64(len(m.loaded)))
	m.mu.Unlock()

	m.logger.Info("Workspace deleted", zap.String("workspace_id", id))
	return nil
}
