package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"
)

// ErrInvalidAnalysis - терминальная ошибка, указывающая, что LLM так и не
// вернул ответ ожидаемой формы после всех повторных попыток.
var ErrInvalidAnalysis = errors.New("analysis response did not match expected shape")

// systemPrompt задает роль LLM. Содержимое и схема ответа принадлежат
// внешнему коллаборатору; здесь проверяется только форма JSON.
const systemPrompt = `You are a chat personality analyst. Given a transcript of a group chat, ` +
	`respond with a single JSON object with keys "group_vibe" (string), ` +
	`"members" (object keyed by member name with integer "red_flag_score", ` +
	`"humor_score", "cringe_score" 0-100 and string "summary"), ` +
	`"awards" (array of {"title","recipient","reason"}) and ` +
	`"memorable_moments" (array of strings). Respond with JSON only.`

// AnalysisConfig хранит конфигурацию для AnalysisService.
type AnalysisConfig struct {
	// MaxRetries — количество попыток получить корректный ответ от LLM.
	MaxRetries int
	// OperationTimeout — таймаут одного вызова LLM API.
	OperationTimeout time.Duration
	// RetryPause — базовая пауза перед повторной попыткой; растет линейно
	// с номером попытки.
	RetryPause time.Duration
}

// AnalysisOption — функциональная опция для настройки AnalysisService.
type AnalysisOption func(*AnalysisServiceImpl)

// WithMaxRetries устанавливает количество попыток.
func WithMaxRetries(n int) AnalysisOption {
	return func(s *AnalysisServiceImpl) {
		if n > 0 {
			s.config.MaxRetries = n
		}
	}
}

// WithOperationTimeout устанавливает таймаут одного вызова API.
func WithOperationTimeout(d time.Duration) AnalysisOption {
	return func(s *AnalysisServiceImpl) {
		s.config.OperationTimeout = d
	}
}

// WithRetryPause устанавливает базовую паузу между попытками.
func WithRetryPause(d time.Duration) AnalysisOption {
	return func(s *AnalysisServiceImpl) {
		s.config.RetryPause = d
	}
}

// WithLogger устанавливает логгер для сервиса.
func WithLogger(l *slog.Logger) AnalysisOption {
	return func(s *AnalysisServiceImpl) {
		if l != nil {
			s.log = l
		}
	}
}

// AnalysisServiceImpl получает "анализ личности" переписки через LLM.
// Сервис не хранит состояние и безопасен для одновременного использования.
type AnalysisServiceImpl struct {
	client ports.LLMClient
	config AnalysisConfig
	log    *slog.Logger
}

// NewAnalysisService создает новый AnalysisService с использованием
// функциональных опций поверх конфигурации по умолчанию.
func NewAnalysisService(client ports.LLMClient, opts ...AnalysisOption) *AnalysisServiceImpl {
	s := &AnalysisServiceImpl{
		client: client,
		config: AnalysisConfig{
			MaxRetries:       3,
			OperationTimeout: 60 * time.Second,
			RetryPause:       1 * time.Second,
		},
		log: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Analyze отправляет транскрипт в LLM и возвращает структурированный анализ.
// Некорректный JSON или ответ неожиданной формы приводят к повторной
// попытке; после исчерпания попыток возвращается последняя ошибка.
func (s *AnalysisServiceImpl) Analyze(ctx context.Context, transcript string, members []string) (*domain.ChatAnalysis, error) {
	userPrompt := fmt.Sprintf("Participants: %s\n\n%s", strings.Join(members, ", "), transcript)

	var lastErr error
	for attempt := 0; attempt < s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// Линейная пауза перед повторной попыткой.
			pause := time.Duration(attempt) * s.config.RetryPause
			s.log.WarnContext(ctx, "Retrying analysis", "attempt", attempt+1, "pause", pause, "error", lastErr)
			select {
			case <-time.After(pause):
			case <-ctx.Done():
				return nil, fmt.Errorf("анализ прерван отменой контекста: %w", ctx.Err())
			}
		}

		opCtx, opCancel := context.WithTimeout(ctx, s.config.OperationTimeout)
		raw, err := s.client.Complete(opCtx, systemPrompt, userPrompt)
		opCancel()
		if err != nil {
			lastErr = fmt.Errorf("операция LLM API завершилась с ошибкой: %w", err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}

		analysis, err := decodeAnalysis(raw)
		if err != nil {
			lastErr = err
			continue
		}

		s.log.InfoContext(ctx, "Analysis completed", "members", len(analysis.Members), "awards", len(analysis.Awards))
		return analysis, nil
	}

	return nil, fmt.Errorf("не удалось получить корректный анализ за %d попыток: %w", s.config.MaxRetries, lastErr)
}

// decodeAnalysis разбирает ответ LLM и проверяет его форму.
func decodeAnalysis(raw string) (*domain.ChatAnalysis, error) {
	cleaned := stripJSONFence(raw)

	var analysis domain.ChatAnalysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnalysis, err)
	}

	if analysis.GroupVibe == "" || len(analysis.Members) == 0 {
		return nil, fmt.Errorf("%w: missing group vibe or member scores", ErrInvalidAnalysis)
	}

	return &analysis, nil
}

// stripJSONFence убирает обрамление ```json ... ```, которым модель
// иногда оборачивает ответ.
func stripJSONFence(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = content[len("```json"):]
	}
	if strings.HasSuffix(content, "```") {
		content = content[:len(content)-len("```")]
	}
	return strings.TrimSpace(content)
}
