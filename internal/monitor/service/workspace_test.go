package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "process-monitor/internal/common/errors"
	"process-monitor/internal/common/logger"
	"process-monitor/internal/monitor/derive"
	"process-monitor/internal/monitor/deviation"
	"process-monitor/internal/monitor/llm"
	"process-monitor/internal/monitor/models"
	"process-monitor/internal/monitor/mutation"
	"process-monitor/internal/monitor/savefile"
)

var clock = time.Date(2024, 7, 15, 9, 30, 0, 0, time.UTC)

// fakeDiagnostician возвращает заготовленные ответы и запоминает запросы.
type fakeDiagnostician struct {
	mu         sync.Mutex
	analysis   *models.AIAnalysis
	reply      string
	draft      *models.ChangeRequestDraft
	err        error
	transcript []models.ChatMessage
	analyzed   int
}

func (f *fakeDiagnostician) Analyze(_ context.Context, _ llm.AnalysisRequest) (*models.AIAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyzed++
	if f.err != nil {
		return nil, f.err
	}
	a := *f.analysis
	return &a, nil
}

func (f *fakeDiagnostician) Chat(_ context.Context, req llm.ChatRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcript = req.Transcript
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeDiagnostician) SuggestChangeRequest(_ context.Context, _ llm.SuggestionRequest) (*models.ChangeRequestDraft, error) {
	if f.err != nil {
		return nil, f.err
	}
	d := *f.draft
	return &d, nil
}

type saveRecorder struct {
	mu     sync.Mutex
	doc    []byte
	active int
	calls  int
	err    error
}

func (r *saveRecorder) save(_ context.Context, doc []byte, active int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.doc, r.active = doc, active
	r.calls++
	return nil
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func sampleDocument(t *testing.T) savefile.Document {
	t.Helper()

	base := models.BlankProcessData(clock)
	base.ConveyorSpeed.Value = "10"
	oven := models.NewZone("oven")
	oven.Name = "Oven"
	oven.Data.Temperature.Value = "350"
	oven.Data.ZoneLength.Value = "40"
	oven.Data.Supply.Airflow.Value = "2000"
	oven.Data.Supply.DuctLength.Value = "24"
	oven.Data.Supply.DuctWidth.Value = "12"
	burner, err := models.NewSubSystem("burner", models.TypeHeaterBox, "Burner")
	require.NoError(t, err)
	burner.HeaterBox.BurnerRating.Value = "2"
	oven.SubSystems = []models.SubSystem{burner}

	cool := models.NewZone("cool")
	cool.Name = "Cooldown"
	cool.Data.Design = models.DesignCooled
	chiller, err := models.NewSubSystem("chiller", models.TypeCooler, "Chiller")
	require.NoError(t, err)
	chiller.Cooler.ChilledWaterCoil.TempIn.Value = "45"
	chiller.Cooler.ChilledWaterCoil.TempOut.Value = "55"
	cool.SubSystems = []models.SubSystem{chiller}
	base.Zones = []models.Zone{oven, cool}

	first := base.Clone()
	first.CollectionDate.Value = "2024-07-01"
	first.TimeOfDay = models.NewParam("08:00")

	return savefile.Document{
		Baseline:       base,
		Historical:     []models.ProcessData{first},
		ChangeRequests: []models.ChangeRequest{},
	}
}

func newTestWorkspace(t *testing.T, diag llm.Diagnostician, rec *saveRecorder) *Workspace {
	t.Helper()
	opts := Options{
		Diagnostician: diag,
		Logger:        logger.NewTestLogger(t),
		NewID:         sequentialIDs(),
		Now:           func() time.Time { return clock },
	}
	if rec != nil {
		opts.Save = rec.save
	}
	return NewWorkspace("ws", "Line 1", sampleDocument(t), 0, opts)
}

func TestAddAndDeleteReading(t *testing.T) {
	rec := &saveRecorder{}
	w := newTestWorkspace(t, nil, rec)
	ctx := context.Background()

	idx, err := w.AddReading(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	reading, active := w.Active()
	assert.Equal(t, 1, active)
	assert.Equal(t, "2024-07-15", reading.CollectionDate.Value)
	assert.Equal(t, "09:30", reading.TimeOfDayValue())
	assert.Equal(t, "350", reading.FindZone("oven").Data.Temperature.Value)
	assert.Equal(t, 1, rec.active)

	_, err = w.AddReading(ctx)
	require.NoError(t, err)
	require.NoError(t, w.SelectReading(ctx, 1))

	idx, err = w.DeleteReading(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Len(t, w.Snapshot().Historical, 2)

	idx, err = w.DeleteReading(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	_, err = w.DeleteReading(ctx)
	assert.Equal(t, apperrors.CodeLastReading, apperrors.CodeOf(err))
	assert.Len(t, w.Snapshot().Historical, 1)
}

func TestSelectReadingBounds(t *testing.T) {
	w := newTestWorkspace(t, nil, nil)

	err := w.SelectReading(context.Background(), 3)
	se, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeValidationFailed, se.Code)
	assert.Equal(t, 400, se.HTTPStatus())
}

func TestApplyEditPersists(t *testing.T) {
	rec := &saveRecorder{}
	w := newTestWorkspace(t, nil, rec)

	res, err := w.ApplyEdit(context.Background(), mutation.Edit{Kind: mutation.KindZoneAdd, Mode: deviation.ModeBaseline})
	require.NoError(t, err)
	assert.Equal(t, "id-1", res.CreatedID)

	doc, _, err := savefile.Decode(rec.doc, clock)
	require.NoError(t, err)
	require.Len(t, doc.Baseline.Zones, 3)
	assert.NotNil(t, doc.Historical[0].FindZone("id-1"))

	snap := w.Snapshot()
	assert.Equal(t, models.NewZoneName, snap.Historical[0].FindZone("id-1").Name)
}

func TestApplyEditMapsErrors(t *testing.T) {
	w := newTestWorkspace(t, nil, nil)
	ctx := context.Background()

	_, err := w.ApplyEdit(ctx, mutation.Edit{Kind: mutation.KindZoneField, Mode: deviation.ModeCurrent, ZoneID: "oven", Path: "zoneLength", Value: "1"})
	assert.Equal(t, apperrors.CodeReadOnlyField, apperrors.CodeOf(err))
	assert.ErrorIs(t, err, mutation.ErrReadOnly)

	_, err = w.ApplyEdit(ctx, mutation.Edit{Kind: mutation.KindZoneRemove, Mode: deviation.ModeBaseline, ZoneID: "oven"})
	assert.Equal(t, apperrors.CodeConfirmationRequired, apperrors.CodeOf(err))

	_, err = w.ApplyEdit(ctx, mutation.Edit{Kind: mutation.KindZoneName, Mode: deviation.ModeBaseline, ZoneID: "missing", Value: "x"})
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))

	_, err = w.ApplyEdit(ctx, mutation.Edit{Kind: "explode"})
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))
}

func TestFailedSaveKeepsState(t *testing.T) {
	rec := &saveRecorder{err: errors.New("disk full")}
	w := newTestWorkspace(t, nil, rec)
	before := w.Snapshot()

	_, err := w.ApplyEdit(context.Background(), mutation.Edit{Kind: mutation.KindZoneName, Mode: deviation.ModeBaseline, ZoneID: "oven", Value: "Renamed"})
	se, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeStorageFailed, se.Code)
	assert.True(t, se.Retryable)

	assert.Empty(t, cmp.Diff(before, w.Snapshot()))
}

func TestCurrentModeEditDerivesAirflow(t *testing.T) {
	w := newTestWorkspace(t, nil, nil)

	res, err := w.ApplyEdit(context.Background(), mutation.Edit{
		Kind: mutation.KindZoneField, Mode: deviation.ModeCurrent, ZoneID: "oven", Path: "supply.velocity", Value: "500",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Derived)

	reading, _ := w.Active()
	assert.Equal(t, "1000", reading.FindZone("oven").Data.Supply.Airflow.Value)
	snap := w.Snapshot()
	assert.Equal(t, "2000", snap.Baseline.FindZone("oven").Data.Supply.Airflow.Value)
}

func TestAnalyze(t *testing.T) {
	diag := &fakeDiagnostician{analysis: &models.AIAnalysis{
		OverallStatus:     models.StatusWarning,
		RootCauseAnalysis: []models.RootCause{{Cause: "Dirty filter", Reasoning: "Airflow low", Recommendation: "Replace filter"}},
	}}
	w := newTestWorkspace(t, diag, nil)
	ctx := context.Background()

	a, err := w.Analyze(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWarning, a.OverallStatus)

	diag.err = errors.New("quota exceeded")
	_, err = w.Analyze(ctx)
	assert.Equal(t, apperrors.CodeLLMFailed, apperrors.CodeOf(err))
	require.NotNil(t, w.Analysis())
	assert.Equal(t, "Dirty filter", w.Analysis().RootCauseAnalysis[0].Cause)
}

func TestAnalyzeDisabled(t *testing.T) {
	w := newTestWorkspace(t, nil, nil)

	_, err := w.Analyze(context.Background())
	se, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeLLMUnavailable, se.Code)
	assert.Equal(t, 503, se.HTTPStatus())
}

func TestChat(t *testing.T) {
	diag := &fakeDiagnostician{reply: "Check the burner."}
	w := newTestWorkspace(t, diag, nil)
	ctx := context.Background()

	reply, err := w.Chat(ctx, "Why is the oven cold?")
	require.NoError(t, err)
	assert.Equal(t, models.ChatMessage{Role: models.RoleModel, Content: "Check the burner."}, reply)
	assert.Equal(t, []models.ChatMessage{{Role: models.RoleUser, Content: "Why is the oven cold?"}}, diag.transcript)

	diag.err = errors.New("timeout")
	reply, err = w.Chat(ctx, "And now?")
	require.NoError(t, err)
	assert.Equal(t, "Sorry, I encountered an error: timeout", reply.Content)

	transcript := w.Transcript()
	require.Len(t, transcript, 4)
	assert.Len(t, diag.transcript, 3)
	assert.Equal(t, models.RoleModel, transcript[3].Role)

	_, err = w.Chat(ctx, "   ")
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))
}

func TestChangeRequests(t *testing.T) {
	diag := &fakeDiagnostician{
		analysis: &models.AIAnalysis{
			OverallStatus:     models.StatusCritical,
			RootCauseAnalysis: []models.RootCause{{Cause: "Burner fouled", Reasoning: "Temp low", Recommendation: "Clean burner"}},
		},
		draft: &models.ChangeRequestDraft{Title: "Rebalance", RiskLevel: "Extreme"},
	}
	rec := &saveRecorder{}
	w := newTestWorkspace(t, diag, rec)
	ctx := context.Background()

	manual, err := w.CreateChangeRequest(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.NewChangeRequest("id-1"), manual)

	_, err = w.CreateChangeRequestFromRCA(ctx, 0)
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))
	_, err = w.SuggestChangeRequest(ctx)
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))

	_, err = w.Analyze(ctx)
	require.NoError(t, err)

	fromRCA, err := w.CreateChangeRequestFromRCA(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "Burner fouled", fromRCA.Title)
	assert.Equal(t, "Temp low", fromRCA.Justification)
	assert.Equal(t, "Clean burner", fromRCA.RecommendedAction)
	assert.Equal(t, models.RiskLow, fromRCA.RiskLevel)
	assert.Equal(t, models.ChangeDraft, fromRCA.Status)

	_, err = w.CreateChangeRequestFromRCA(ctx, 4)
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))

	suggested, err := w.SuggestChangeRequest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Rebalance", suggested.Title)
	assert.Equal(t, models.RiskLow, suggested.RiskLevel)

	high := models.RiskHigh
	approved := models.ChangeApproved
	cost := "$4,000"
	updated, err := w.UpdateChangeRequest(ctx, manual.ID, ChangeRequestPatch{RiskLevel: &high, Status: &approved, EstimatedCost: &cost})
	require.NoError(t, err)
	assert.Equal(t, models.RiskHigh, updated.RiskLevel)
	assert.Equal(t, models.ChangeApproved, updated.Status)
	assert.Equal(t, "$4,000", updated.EstimatedCost)
	assert.Equal(t, models.NewChangeRequestTitle, updated.Title)

	bad := models.RiskLevel("Severe")
	_, err = w.UpdateChangeRequest(ctx, manual.ID, ChangeRequestPatch{RiskLevel: &bad})
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))

	require.NoError(t, w.DeleteChangeRequest(ctx, fromRCA.ID))
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(w.DeleteChangeRequest(ctx, fromRCA.ID)))

	doc, _, err := savefile.Decode(rec.doc, clock)
	require.NoError(t, err)
	require.Len(t, doc.ChangeRequests, 2)
	assert.Equal(t, models.ChangeApproved, doc.ChangeRequests[0].Status)
}

func TestExportImport(t *testing.T) {
	diag := &fakeDiagnostician{reply: "ok", analysis: &models.AIAnalysis{OverallStatus: models.StatusInCompliance}}
	src := newTestWorkspace(t, diag, nil)
	ctx := context.Background()

	require.NoError(t, src.SetProblemStatement(ctx, "Orange peel on hoods"))
	_, err := src.AddReading(ctx)
	require.NoError(t, err)
	require.NoError(t, src.SelectReading(ctx, 0))

	data, err := src.Export()
	require.NoError(t, err)

	dst := newTestWorkspace(t, diag, nil)
	_, err = dst.Chat(ctx, "hello")
	require.NoError(t, err)
	_, err = dst.Analyze(ctx)
	require.NoError(t, err)

	rec, err := dst.Import(ctx, data)
	require.NoError(t, err)
	assert.True(t, rec.Empty())

	snap := dst.Snapshot()
	assert.Equal(t, "Orange peel on hoods", snap.ProblemStatement)
	assert.Equal(t, 1, snap.ActiveIndex)
	assert.Empty(t, snap.Chat)
	assert.Nil(t, snap.Analysis)
	assert.Empty(t, cmp.Diff(src.Snapshot().Historical, snap.Historical))

	_, err = dst.Import(ctx, []byte(`{"baseline":{}}`))
	assert.Equal(t, apperrors.CodeFormatInvalid, apperrors.CodeOf(err))
	_, err = dst.Import(ctx, []byte(`{`))
	assert.Equal(t, apperrors.CodeFormatInvalid, apperrors.CodeOf(err))
	assert.Equal(t, "Orange peel on hoods", dst.Snapshot().ProblemStatement)
}

func TestConcurrentAccess(t *testing.T) {
	w := newTestWorkspace(t, &fakeDiagnostician{reply: "ok"}, &saveRecorder{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(3)
		go func(i int) {
			defer wg.Done()
			_, err := w.ApplyEdit(ctx, mutation.Edit{
				Kind: mutation.KindZoneField, Mode: deviation.ModeCurrent, ZoneID: "oven", Path: "temperature", Value: fmt.Sprint(300 + i),
			})
			assert.NoError(t, err)
		}(i)
		go func() {
			defer wg.Done()
			_ = w.Snapshot()
			_ = w.ProcessTimes()
		}()
		go func() {
			defer wg.Done()
			_, err := w.Chat(ctx, "status?")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, w.Transcript(), 16)
}

func TestReadingChangesResetDeriveTracker(t *testing.T) {
	w := newTestWorkspace(t, nil, nil)
	ctx := context.Background()
	key := derive.Key{ZoneID: "oven", Duct: "supply"}

	edit := func() {
		t.Helper()
		_, err := w.ApplyEdit(ctx, mutation.Edit{
			Kind: mutation.KindZoneField, Mode: deviation.ModeCurrent, ZoneID: "oven", Path: "supply.velocity", Value: "500",
		})
		require.NoError(t, err)
		require.Equal(t, derive.Velocity, w.tracker.State(key))
	}

	edit()
	_, err := w.AddReading(ctx)
	require.NoError(t, err)
	assert.Equal(t, derive.None, w.tracker.State(key))

	edit()
	require.NoError(t, w.SelectReading(ctx, 0))
	assert.Equal(t, derive.None, w.tracker.State(key))

	edit()
	require.NoError(t, w.SelectReading(ctx, 0))
	assert.Equal(t, derive.Velocity, w.tracker.State(key))

	_, err = w.DeleteReading(ctx)
	require.NoError(t, err)
	assert.Equal(t, derive.None, w.tracker.State(key))
}

// importingDiagnostician подменяет содержимое пространства, пока идёт запрос к модели.
type importingDiagnostician struct {
	fakeDiagnostician
	w    *Workspace
	data []byte
}

func (d *importingDiagnostician) replace(ctx context.Context) error {
	_, err := d.w.Import(ctx, d.data)
	return err
}

func (d *importingDiagnostician) Analyze(ctx context.Context, req llm.AnalysisRequest) (*models.AIAnalysis, error) {
	if err := d.replace(ctx); err != nil {
		return nil, err
	}
	return d.fakeDiagnostician.Analyze(ctx, req)
}

func (d *importingDiagnostician) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	if err := d.replace(ctx); err != nil {
		return "", err
	}
	return d.fakeDiagnostician.Chat(ctx, req)
}

func TestImportDuringModelCallDropsStaleResult(t *testing.T) {
	ctx := context.Background()
	src := newTestWorkspace(t, nil, nil)
	require.NoError(t, src.SetProblemStatement(ctx, "Imported line"))
	data, err := src.Export()
	require.NoError(t, err)

	diag := &importingDiagnostician{
		fakeDiagnostician: fakeDiagnostician{reply: "stale reply", analysis: &models.AIAnalysis{OverallStatus: models.StatusCritical}},
		data:              data,
	}
	w := newTestWorkspace(t, diag, nil)
	diag.w = w

	a, err := w.Analyze(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCritical, a.OverallStatus)
	assert.Nil(t, w.Analysis())

	reply, err := w.Chat(ctx, "still there?")
	require.NoError(t, err)
	assert.Equal(t, "stale reply", reply.Content)
	assert.Empty(t, w.Transcript())
	assert.Equal(t, "Imported line", w.Snapshot().ProblemStatement)
}
