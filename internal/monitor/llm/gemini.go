package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	genai "google.golang.org/genai"

	"process-monitor/internal/common/metrics"
	"process-monitor/internal/monitor/models"
)

const DefaultModel = "gemini-2.5-flash"

// generator - часть genai.Models, которая нужна клиенту.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient - тонкая обёртка над официальным genai клиентом.
type GeminiClient struct {
	gen     generator
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewGeminiClient создаёт клиента Gemini API.
func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration, logger *zap.Logger) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGeminiClient(cli.Models, model, timeout, logger), nil
}

func newGeminiClient(gen generator, model string, timeout time.Duration, logger *zap.Logger) *GeminiClient {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiClient{gen: gen, model: model, timeout: timeout, logger: logger.Named("gemini")}
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }

func (g *GeminiClient) generate(ctx context.Context, op string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (text string, err error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	started := time.Now()
	defer func() {
		metrics.ObserveLLM(op, started, err)
		if err != nil {
			g.logger.Warn("model call failed", zap.String("operation", op), zap.Error(err))
			return
		}
		g.logger.Debug("model call completed",
			zap.String("operation", op),
			zap.Duration("duration", time.Since(started)),
			zap.Int("response_bytes", len(text)),
		)
	}()

	resp, err := g.gen.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidJSON)
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

// Analyze запрашивает анализ отклонений, трендов и первопричин.
func (g *GeminiClient) Analyze(ctx context.Context, req AnalysisRequest) (*models.AIAnalysis, error) {
	if len(req.Historical) == 0 {
		return nil, ErrNoReadings
	}

	text, err := g.generate(ctx, "analyze",
		[]*genai.Content{genai.NewContentFromText(AnalysisPrompt(req), genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   analysisSchema,
		},
	)
	if err != nil {
		return nil, err
	}
	return ParseAnalysis(text)
}

// Chat отправляет весь диалог с системной инструкцией, содержащей данные линии.
func (g *GeminiClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	n := len(req.Transcript)
	if n == 0 || req.Transcript[n-1].Role != models.RoleUser {
		return "", ErrEmptyTranscript
	}

	return g.generate(ctx, "chat", chatContents(req.Transcript), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(ChatInstruction(req), genai.RoleUser),
	})
}

// chatContents переводит диалог в сообщения Gemini с ролями user и model.
func chatContents(transcript []models.ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(transcript))
	for _, m := range transcript {
		var role genai.Role = genai.RoleUser
		if m.Role == models.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return contents
}

// SuggestChangeRequest предлагает заявку на изменение по результатам анализа.
func (g *GeminiClient) SuggestChangeRequest(ctx context.Context, req SuggestionRequest) (*models.ChangeRequestDraft, error) {
	text, err := g.generate(ctx, "suggest",
		[]*genai.Content{genai.NewContentFromText(SuggestionPrompt(req), genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   changeRequestSchema,
		},
	)
	if err != nil {
		return nil, err
	}
	return ParseChangeRequest(text)
}

// Settings - параметры подключения к модели.
type Settings struct {
	APIKey    string
	Model     string
	Timeout   time.Duration
	CacheSize int
}

// Open возвращает клиента Gemini с кэшем анализов. Без ключа возвращается Disabled.
func Open(ctx context.Context, s Settings, logger *zap.Logger) (Diagnostician, error) {
	if strings.TrimSpace(s.APIKey) == "" {
		return Disabled{}, nil
	}
	client, err := NewGeminiClient(ctx, s.APIKey, s.Model, s.Timeout, logger)
	if err != nil {
		return nil, err
	}
	cached, err := NewCachedDiagnostician(client, s.CacheSize)
	if err != nil {
		return nil, err
	}
	return cached, nil
}
