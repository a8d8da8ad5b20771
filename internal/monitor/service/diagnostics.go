package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	apperrors "process-monitor/internal/common/errors"
	"process-monitor/internal/monitor/llm"
	"process-monitor/internal/monitor/models"
)

const chatErrorPrefix = "Sorry, I encountered an error: "

// ============================================================
// Analysis
// ============================================================

// Analyze отправляет базу и замеры на анализ. При ошибке прежний анализ сохраняется.
func (w *Workspace) Analyze(ctx context.Context) (*models.AIAnalysis, error) {
	w.mu.RLock()
	req := llm.AnalysisRequest{
		Baseline:         w.st.Baseline.Clone(),
		Historical:       models.CloneAll(w.st.Historical),
		ProblemStatement: w.st.ProblemStatement,
	}
	gen := w.gen
	w.mu.RUnlock()

	if len(req.Historical) == 0 {
		return nil, mapError(llm.ErrNoReadings)
	}

	a, err := w.diag.Analyze(ctx, req)
	if err != nil {
		w.logger.Warn("Analysis failed", zap.Error(err))
		return nil, llmError(err)
	}

	w.mu.Lock()
	if w.gen == gen {
		stored := a.Clone()
		w.st.Analysis = &stored
	} else {
		w.logger.Info("Workspace replaced during analysis, result not stored")
	}
	w.mu.Unlock()

	out := a.Clone()
	return &out, nil
}

// Analysis возвращает последний анализ или nil.
func (w *Workspace) Analysis() *models.AIAnalysis {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.st.Analysis == nil {
		return nil
	}
	a := w.st.Analysis.Clone()
	return &a
}

// ============================================================
// Chat
// ============================================================

// Chat добавляет сообщение пользователя и ответ модели. Ошибка модели
// превращается в ответ с текстом ошибки.
func (w *Workspace) Chat(ctx context.Context, message string) (models.ChatMessage, error) {
	if strings.TrimSpace(message) == "" {
		return models.ChatMessage{}, apperrors.NewValidationError("message must not be empty")
	}

	w.mu.Lock()
	w.st.Chat = append(w.st.Chat, models.ChatMessage{Role: models.RoleUser, Content: message})
	req := llm.ChatRequest{
		Baseline:         w.st.Baseline.Clone(),
		Historical:       models.CloneAll(w.st.Historical),
		ProblemStatement: w.st.ProblemStatement,
		Transcript:       append([]models.ChatMessage{}, w.st.Chat...),
	}
	gen := w.gen
	w.mu.Unlock()

	reply := models.ChatMessage{Role: models.RoleModel}
	text, err := w.diag.Chat(ctx, req)
	if err != nil {
		w.logger.Warn("Chat request failed", zap.Error(err))
		reply.Content = chatErrorPrefix + err.Error()
	} else {
		reply.Content = text
	}

	w.mu.Lock()
	if w.gen == gen {
		w.st.Chat = append(w.st.Chat, reply)
	}
	w.mu.Unlock()
	return reply, nil
}

// Transcript возвращает копию диалога.
func (w *Workspace) Transcript() []models.ChatMessage {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]models.ChatMessage{}, w.st.Chat...)
}

// ============================================================
// Change requests
// ============================================================

// ChangeRequestPatch - частичное обновление заявки; nil-поля не меняются.
type ChangeRequestPatch struct {
	Title             *string              `json:"title,omitempty"`
	Justification     *string              `json:"justification,omitempty"`
	RecommendedAction *string              `json:"recommendedAction,omitempty"`
	ExpectedResults   *string              `json:"expectedResults,omitempty"`
	RiskLevel         *models.RiskLevel    `json:"riskLevel,omitempty"`
	RiskDetails       *string              `json:"riskDetails,omitempty"`
	EstimatedCost     *string              `json:"estimatedCost,omitempty"`
	Status            *models.ChangeStatus `json:"status,omitempty"`
}

func (p ChangeRequestPatch) validate() error {
	if p.RiskLevel != nil && !p.RiskLevel.Valid() {
		return apperrors.NewValidationError("riskLevel must be Low, Medium or High").
			WithMetadata("riskLevel", string(*p.RiskLevel))
	}
	if p.Status != nil && !p.Status.Valid() {
		return apperrors.NewValidationError("status must be Draft, Pending Approval or Approved").
			WithMetadata("status", string(*p.Status))
	}
	return nil
}

func (p ChangeRequestPatch) apply(cr *models.ChangeRequest) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&cr.Title, p.Title)
	set(&cr.Justification, p.Justification)
	set(&cr.RecommendedAction, p.RecommendedAction)
	set(&cr.ExpectedResults, p.ExpectedResults)
	set(&cr.RiskDetails, p.RiskDetails)
	set(&cr.EstimatedCost, p.EstimatedCost)
	if p.RiskLevel != nil {
		cr.RiskLevel = *p.RiskLevel
	}
	if p.Status != nil {
		cr.Status = *p.Status
	}
}

// ChangeRequests возвращает копию списка заявок.
func (w *Workspace) ChangeRequests() []models.ChangeRequest {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]models.ChangeRequest{}, w.st.ChangeRequests...)
}

func (w *Workspace) appendChangeRequest(ctx context.Context, cr models.ChangeRequest) (models.ChangeRequest, error) {
	next := w.st
	next.ChangeRequests = make([]models.ChangeRequest, 0, len(w.st.ChangeRequests)+1)
	next.ChangeRequests = append(next.ChangeRequests, w.st.ChangeRequests...)
	next.ChangeRequests = append(next.ChangeRequests, cr)
	if err := w.commit(ctx, next); err != nil {
		return models.ChangeRequest{}, err
	}
	return cr, nil
}

// CreateChangeRequest добавляет пустую заявку.
func (w *Workspace) CreateChangeRequest(ctx context.Context) (models.ChangeRequest, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.appendChangeRequest(ctx, models.NewChangeRequest(w.newID()))
}

// CreateChangeRequestFromRCA заполняет заявку из пункта анализа первопричин.
func (w *Workspace) CreateChangeRequestFromRCA(ctx context.Context, index int) (models.ChangeRequest, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.st.Analysis == nil {
		return models.ChangeRequest{}, apperrors.NewValidationError("no analysis available")
	}
	rca := w.st.Analysis.RootCauseAnalysis
	if index < 0 || index >= len(rca) {
		return models.ChangeRequest{}, apperrors.NewValidationError("root cause index out of range").
			WithMetadata("index", index)
	}
	return w.appendChangeRequest(ctx, models.ChangeRequestFromRCA(w.newID(), rca[index]))
}

// SuggestChangeRequest просит модель предложить заявку по последнему анализу.
func (w *Workspace) SuggestChangeRequest(ctx context.Context) (models.ChangeRequest, error) {
	w.mu.RLock()
	if w.st.Analysis == nil {
		w.mu.RUnlock()
		return models.ChangeRequest{}, apperrors.NewValidationError("run an analysis before requesting a suggestion")
	}
	req := llm.SuggestionRequest{
		Analysis:         w.st.Analysis.Clone(),
		Baseline:         w.st.Baseline.Clone(),
		Historical:       models.CloneAll(w.st.Historical),
		ProblemStatement: w.st.ProblemStatement,
	}
	w.mu.RUnlock()

	draft, err := w.diag.SuggestChangeRequest(ctx, req)
	if err != nil {
		w.logger.Warn("Change request suggestion failed", zap.Error(err))
		return models.ChangeRequest{}, llmError(err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.appendChangeRequest(ctx, draft.ToRequest(w.newID()))
}

// UpdateChangeRequest применяет частичное обновление к заявке.
func (w *Workspace) UpdateChangeRequest(ctx context.Context, id string, patch ChangeRequestPatch) (models.ChangeRequest, error) {
	if err := patch.validate(); err != nil {
		return models.ChangeRequest{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	i := w.changeRequestIndex(id)
	if i < 0 {
		return models.ChangeRequest{}, apperrors.NewNotFoundError("change request", id)
	}
	next := w.st
	next.ChangeRequests = append([]models.ChangeRequest{}, w.st.ChangeRequests...)
	patch.apply(&next.ChangeRequests[i])
	if err := w.commit(ctx, next); err != nil {
		return models.ChangeRequest{}, err
	}
	return next.ChangeRequests[i], nil
}

func (w *Workspace) DeleteChangeRequest(ctx context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	i := w.changeRequestIndex(id)
	if i < 0 {
		return apperrors.NewNotFoundError("change request", id)
	}
	next := w.st
	next.ChangeRequests = make([]models.ChangeRequest, 0, len(w.st.ChangeRequests)-1)
	next.ChangeRequests = append(next.ChangeRequests, w.st.ChangeRequests[:i]...)
	next.ChangeRequests = append(next.ChangeRequests, w.st.ChangeRequests[i+1:]...)
	return w.commit(ctx, next)
}

func (w *Workspace) changeRequestIndex(id string) int {
	for i := range w.st.ChangeRequests {
		if w.st.ChangeRequests[i].ID == id {
			return i
		}
	}
	return -1
}
