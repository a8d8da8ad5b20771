package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "process-monitor/internal/common/errors"
	"process-monitor/internal/common/metrics"
	"process-monitor/internal/monitor/derive"
	"process-monitor/internal/monitor/llm"
	"process-monitor/internal/monitor/models"
	"process-monitor/internal/monitor/mutation"
	"process-monitor/internal/monitor/savefile"
)

// ============================================================
// State
// ============================================================

// State - полное состояние рабочего пространства.
type State struct {
	Baseline         models.ProcessData     `json:"baseline"`
	Historical       []models.ProcessData   `json:"historical"`
	ActiveIndex      int                    `json:"activeIndex"`
	ProblemStatement string                 `json:"problemStatement"`
	ChangeRequests   []models.ChangeRequest `json:"changeRequests"`
	Chat             []models.ChatMessage   `json:"chat"`
	Analysis         *models.AIAnalysis     `json:"analysis,omitempty"`
}

// Clone возвращает глубокую копию.
func (s State) Clone() State {
	cp := s
	cp.Baseline = s.Baseline.Clone()
	cp.Historical = models.CloneAll(s.Historical)
	cp.ChangeRequests = append([]models.ChangeRequest{}, s.ChangeRequests...)
	cp.Chat = append([]models.ChatMessage{}, s.Chat...)
	if s.Analysis != nil {
		a := s.Analysis.Clone()
		cp.Analysis = &a
	}
	return cp
}

func (s State) document() savefile.Document {
	return savefile.Document{
		Baseline:         s.Baseline,
		Historical:       s.Historical,
		ChangeRequests:   s.ChangeRequests,
		ProblemStatement: s.ProblemStatement,
	}
}

// ============================================================
// Workspace
// ============================================================

// SaveFunc сохраняет документ и индекс активного замера.
type SaveFunc func(ctx context.Context, document []byte, activeIndex int) error

type Options struct {
	Diagnostician llm.Diagnostician
	Logger        *zap.Logger
	Save          SaveFunc
	NewID         func() string
	Now           func() time.Time
}

// Workspace - одно рабочее пространство: база, замеры, заявки и диалог.
// Изменяемые срезы состояния никогда не правятся на месте: каждая операция
// собирает новое состояние и подменяет его целиком после сохранения.
type Workspace struct {
	mu sync.RWMutex

	id   string
	name string
	st   State
	// gen растёт при каждом импорте; ответы модели для старого поколения отбрасываются.
	gen uint64

	tracker *derive.Tracker
	applier *mutation.Applier
	diag    llm.Diagnostician
	save    SaveFunc
	newID   func() string
	now     func() time.Time
	logger  *zap.Logger
}

func NewWorkspace(id, name string, doc savefile.Document, activeIndex int, opts Options) *Workspace {
	if opts.Diagnostician == nil {
		opts.Diagnostician = llm.Disabled{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	historical := doc.Historical
	if len(historical) == 0 {
		historical = []models.ProcessData{models.BlankProcessData(opts.Now())}
	}
	if activeIndex < 0 || activeIndex >= len(historical) {
		activeIndex = len(historical) - 1
	}
	crs := doc.ChangeRequests
	if crs == nil {
		crs = []models.ChangeRequest{}
	}

	tracker := derive.NewTracker()
	return &Workspace{
		id:   id,
		name: name,
		st: State{
			Baseline:         doc.Baseline,
			Historical:       historical,
			ActiveIndex:      activeIndex,
			ProblemStatement: doc.ProblemStatement,
			ChangeRequests:   crs,
			Chat:             []models.ChatMessage{},
		},
		tracker: tracker,
		applier: mutation.NewApplier(tracker, opts.NewID),
		diag:    opts.Diagnostician,
		save:    opts.Save,
		newID:   opts.NewID,
		now:     opts.Now,
		logger:  opts.Logger.With(zap.String("workspace_id", id)),
	}
}

func (w *Workspace) ID() string { return w.id }

func (w *Workspace) Name() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.name
}

func (w *Workspace) setName(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.name = name
}

// Snapshot возвращает глубокую копию состояния.
func (w *Workspace) Snapshot() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.st.Clone()
}

// Active возвращает копию активного замера и его индекс.
func (w *Workspace) Active() (models.ProcessData, int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.st.Historical[w.st.ActiveIndex].Clone(), w.st.ActiveIndex
}

// commit сохраняет next и делает его текущим. Вызывается под w.mu.
func (w *Workspace) commit(ctx context.Context, next State) error {
	if w.save != nil {
		data, err := savefile.Encode(next.document())
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "Failed to encode workspace", err)
		}
		if err := w.save(ctx, data, next.ActiveIndex); err != nil {
			w.logger.Error("Failed to persist workspace", zap.Error(err))
			return storageError(err)
		}
	}
	w.st = next
	return nil
}

// ============================================================
// Edits
// ============================================================

// ApplyEdit применяет правку через слой синхронизации и сохраняет результат.
func (w *Workspace) ApplyEdit(ctx context.Context, e mutation.Edit) (mutation.Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	res, err := w.applier.Apply(mutation.State{
		Baseline:   w.st.Baseline,
		Historical: w.st.Historical,
		Active:     w.st.ActiveIndex,
	}, e)
	metrics.ObserveEdit(string(e.Kind), err)
	if err != nil {
		w.logger.Debug("Edit rejected", zap.String("kind", string(e.Kind)), zap.Error(err))
		return mutation.Result{}, mapError(err)
	}

	next := w.st
	next.Baseline = res.State.Baseline
	next.Historical = res.State.Historical
	if err := w.commit(ctx, next); err != nil {
		return mutation.Result{}, err
	}

	w.logger.Debug("Edit applied",
		zap.String("kind", string(e.Kind)),
		zap.String("scope", res.Scope.String()),
		zap.Int("touched", res.Touched),
	)
	return res, nil
}

// ============================================================
// Readings
// ============================================================

// AddReading добавляет замер - копию последнего с текущими датой и временем - и делает его активным.
func (w *Workspace) AddReading(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	var reading models.ProcessData
	if n := len(w.st.Historical); n > 0 {
		reading = w.st.Historical[n-1].Clone()
	} else {
		reading = models.BlankProcessData(now)
	}
	reading.CollectionDate = models.Parameter{Value: now.Format(models.DateLayout)}
	reading.TimeOfDay = models.NewParam(now.Format(models.TimeLayout))

	next := w.st
	next.Historical = make([]models.ProcessData, 0, len(w.st.Historical)+1)
	next.Historical = append(next.Historical, w.st.Historical...)
	next.Historical = append(next.Historical, reading)
	next.ActiveIndex = len(next.Historical) - 1

	if err := w.commit(ctx, next); err != nil {
		return 0, err
	}
	w.tracker.Reset()
	return next.ActiveIndex, nil
}

// DeleteReading удаляет активный замер. Последний замер удалить нельзя.
func (w *Workspace) DeleteReading(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.st.Historical) <= 1 {
		return 0, apperrors.New(apperrors.CodeLastReading, "At least one reading must remain")
	}

	i := w.st.ActiveIndex
	next := w.st
	next.Historical = make([]models.ProcessData, 0, len(w.st.Historical)-1)
	next.Historical = append(next.Historical, w.st.Historical[:i]...)
	next.Historical = append(next.Historical, w.st.Historical[i+1:]...)
	next.ActiveIndex = max(0, i-1)

	if err := w.commit(ctx, next); err != nil {
		return 0, err
	}
	w.tracker.Reset()
	return next.ActiveIndex, nil
}

// SelectReading делает активным замер с индексом i.
func (w *Workspace) SelectReading(ctx context.Context, i int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if i < 0 || i >= len(w.st.Historical) {
		return apperrors.NewValidationError("reading index out of range").
			WithMetadata("index", i).
			WithMetadata("readings", len(w.st.Historical))
	}
	prev := w.st.ActiveIndex
	next := w.st
	next.ActiveIndex = i
	if err := w.commit(ctx, next); err != nil {
		return err
	}
	if i != prev {
		w.tracker.Reset()
	}
	return nil
}

func (w *Workspace) SetProblemStatement(ctx context.Context, statement string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	next := w.st
	next.ProblemStatement = statement
	return w.commit(ctx, next)
}

// ============================================================
// Export / Import
// ============================================================

// Export сериализует рабочее пространство в формат файла сохранения.
func (w *Workspace) Export() ([]byte, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	data, err := savefile.Encode(w.st.document())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "Failed to encode workspace", err)
	}
	return data, nil
}

// Import целиком заменяет состояние содержимым файла сохранения.
// Активным становится последний замер, диалог и анализ сбрасываются.
func (w *Workspace) Import(ctx context.Context, data []byte) (savefile.Reconciliation, error) {
	doc, rec, err := savefile.Decode(data, w.now())
	if err != nil {
		return savefile.Reconciliation{}, mapError(err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	next := State{
		Baseline:         doc.Baseline,
		Historical:       doc.Historical,
		ActiveIndex:      len(doc.Historical) - 1,
		ProblemStatement: doc.ProblemStatement,
		ChangeRequests:   doc.ChangeRequests,
		Chat:             []models.ChatMessage{},
	}
	if err := w.commit(ctx, next); err != nil {
		return savefile.Reconciliation{}, err
	}
	w.gen++
	w.tracker.Reset()

	if !rec.Empty() {
		w.logger.Info("Reconciled readings against baseline", zap.Int("changes", len(rec.Changes)))
	}
	return rec, nil
}
