package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"whatsapp-chat-analyzer/internal/adapters/source"
	"whatsapp-chat-analyzer/internal/cache"
	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/pkg/config"
	"whatsapp-chat-analyzer/internal/ports"
)

// ErrUnsupportedPlatform возвращается для платформ, разбор которых
// не реализован (Messenger, Discord и т.д.).
var ErrUnsupportedPlatform = errors.New("платформа не поддерживается")

// ErrInvalidFormat возвращается, когда текст не похож на экспорт WhatsApp.
// Проверка формата носит рекомендательный характер, но именно эта ошибка
// поднимается до конечного пользователя.
var ErrInvalidFormat = errors.New("файл не похож на экспорт чата WhatsApp")

// ErrNoMessages возвращается, когда ни один фрагмент не совпал с шаблоном
// заголовка: диапазон дат такого разбора не определен.
var ErrNoMessages = errors.New("в файле не найдено ни одного сообщения")

// ProcessChatUseCase инкапсулирует бизнес-логику обработки файла экспорта:
// разбор, агрегация статистики, отрисовка транскрипта и анализ через LLM.
type ProcessChatUseCase struct {
	cfg        *config.Config
	parser     ports.ChatParser
	analytics  ports.AnalyticsService
	renderer   ports.TranscriptRenderer
	analyzer   ports.AnalysisService
	cacheStore *cache.CacheStore
}

// NewProcessChatUseCase создает новый экземпляр ProcessChatUseCase.
func NewProcessChatUseCase(
	cfg *config.Config,
	parser ports.ChatParser,
	analytics ports.AnalyticsService,
	renderer ports.TranscriptRenderer,
	analyzer ports.AnalysisService,
	cacheStore *cache.CacheStore,
) *ProcessChatUseCase {
	return &ProcessChatUseCase{
		cfg:        cfg,
		parser:     parser,
		analytics:  analytics,
		renderer:   renderer,
		analyzer:   analyzer,
		cacheStore: cacheStore,
	}
}

// ProcessChat обрабатывает один файл экспорта чата.
// Результат кэшируется по хешу содержимого файла и параметров запроса.
func (uc *ProcessChatUseCase) ProcessChat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResult, error) {
	if req.Platform != "" && req.Platform != "whatsapp" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, req.Platform)
	}

	fileHash, err := cache.CalculateFileHash(req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("не удалось вычислить хеш файла %s: %w", req.FilePath, err)
	}

	// Ключ кэша учитывает и содержимое файла, и параметры выборки.
	cacheKey := cache.CalculateHash([]byte(fmt.Sprintf("%s|%v|%d|%d|%s",
		fileHash, req.Members, req.RangeStart, req.RangeEnd, req.Context)))

	if cachedItem, found := uc.cacheStore.Get(cacheKey); found {
		slog.Info("Попадание в кеш для файла", "hash", fileHash)
		return cachedItem.Data, nil
	}

	ds := source.NewFileSource(req.FilePath)
	data, err := ds.Fetch()
	if err != nil {
		return nil, fmt.Errorf("не удалось извлечь данные из %s: %w", req.FilePath, err)
	}
	text := string(data)

	if !uc.parser.ValidateFormat(text) {
		return nil, ErrInvalidFormat
	}

	chat := uc.parser.Parse(text)
	slog.Info("Разобран чат", "path", req.FilePath, "message_count", chat.Metadata.TotalMessages)

	if chat.Metadata.TotalMessages == 0 {
		return nil, ErrNoMessages
	}

	members := req.Members
	if len(members) == 0 {
		members = chat.Senders()
		sort.Strings(members)
	}

	start, end := req.RangeStart, req.RangeEnd
	if end == 0 || end > len(chat.Messages) {
		end = len(chat.Messages)
	}

	filtered := filterMessages(chat.Messages, members, start, end)
	analytics := uc.analytics.Analyze(filtered)
	slog.Info("Статистика агрегирована", "selected_count", len(filtered), "member_count", len(analytics.MemberStats))

	transcript, err := uc.renderer.Render(chat, members, start, end, req.Context)
	if err != nil {
		return nil, fmt.Errorf("не удалось отрисовать транскрипт: %w", err)
	}

	slog.Info("Запрос анализа через LLM...", "transcript_length", len(transcript))
	analysis, err := uc.analyzer.Analyze(ctx, transcript, members)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить анализ: %w", err)
	}

	result := &domain.ChatResult{
		Platform:  "whatsapp",
		Members:   members,
		Metadata:  chat.Metadata,
		Analytics: *analytics,
		Analysis:  analysis,
	}

	// Кеширование окончательного результата
	ttl := uc.cfg.CacheTTL()
	uc.cacheStore.Put(cacheKey, result, ttl)
	slog.Info("Обработка успешно завершена", "hash", fileHash, "ttl", ttl.String())

	return result, nil
}

// Preview синхронно проверяет формат и разбирает экспорт, возвращая
// метаданные и список участников для выбора в интерфейсе.
func (uc *ProcessChatUseCase) Preview(text string) (*domain.ChatPreview, error) {
	if !uc.parser.ValidateFormat(text) {
		return nil, ErrInvalidFormat
	}

	reporter, ok := uc.parser.(interface {
		ParseWithReport(text string) (*domain.ParsedChat, domain.ParseReport)
	})

	var chat *domain.ParsedChat
	var report domain.ParseReport
	if ok {
		chat, report = reporter.ParseWithReport(text)
	} else {
		chat = uc.parser.Parse(text)
	}

	if chat.Metadata.TotalMessages == 0 {
		return nil, ErrNoMessages
	}

	senders := chat.Senders()
	sort.Strings(senders)

	return &domain.ChatPreview{
		Senders:  senders,
		Metadata: chat.Metadata,
		Report:   report,
	}, nil
}

// filterMessages вырезает диапазон [start, end) и отбирает сообщения
// участников из списка; порядок сообщений сохраняется.
func filterMessages(messages []domain.Message, members []string, start, end int) []domain.Message {
	if start < 0 {
		start = 0
	}
	if end > len(messages) {
		end = len(messages)
	}
	if start >= end {
		return nil
	}

	allowed := make(map[string]bool, len(members))
	for _, m := range members {
		allowed[strings.TrimSpace(m)] = true
	}

	var filtered []domain.Message
	for _, msg := range messages[start:end] {
		if allowed[msg.Sender] {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}
