package llm

import (
	"context"
	"errors"

	"process-monitor/internal/monitor/models"
)

var (
	ErrInvalidJSON     = errors.New("llm: invalid JSON response")
	ErrNoReadings      = errors.New("No historical data available to analyze.")
	ErrUnavailable     = errors.New("llm: analysis service is not configured")
	ErrEmptyTranscript = errors.New("llm: chat transcript must end with a user message")
)

// AnalysisRequest - данные для анализа отклонений и трендов.
type AnalysisRequest struct {
	Baseline         models.ProcessData   `json:"baseline"`
	Historical       []models.ProcessData `json:"historical"`
	ProblemStatement string               `json:"problemStatement"`
}

// ChatRequest - диалог над данными; Transcript заканчивается сообщением пользователя.
type ChatRequest struct {
	Baseline         models.ProcessData   `json:"baseline"`
	Historical       []models.ProcessData `json:"historical"`
	ProblemStatement string               `json:"problemStatement"`
	Transcript       []models.ChatMessage `json:"transcript"`
}

// SuggestionRequest - основа для предложения заявки на изменение.
type SuggestionRequest struct {
	Analysis         models.AIAnalysis    `json:"analysis"`
	Baseline         models.ProcessData   `json:"baseline"`
	Historical       []models.ProcessData `json:"historical"`
	ProblemStatement string               `json:"problemStatement"`
}

// Diagnostician - внешний аналитик. Ядро не интерпретирует его ответы.
type Diagnostician interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*models.AIAnalysis, error)
	Chat(ctx context.Context, req ChatRequest) (string, error)
	SuggestChangeRequest(ctx context.Context, req SuggestionRequest) (*models.ChangeRequestDraft, error)
}

// Disabled используется без API-ключа: каждый вызов возвращает ErrUnavailable.
type Disabled struct{}

func (Disabled) Analyze(context.Context, AnalysisRequest) (*models.AIAnalysis, error) {
	return nil, ErrUnavailable
}

func (Disabled) Chat(context.Context, ChatRequest) (string, error) {
	return "", ErrUnavailable
}

func (Disabled) SuggestChangeRequest(context.Context, SuggestionRequest) (*models.ChangeRequestDraft, error) {
	return nil, ErrUnavailable
}
