package ports

import (
	"context"
	"whatsapp-chat-analyzer/internal/domain"
)

// DataSource определяет интерфейс для получения исходного текста экспорта.
type DataSource interface {
	// Fetch загружает данные из источника и возвращает их в виде байтового среза.
	Fetch() ([]byte, error)
}

// ChatParser определяет интерфейс для разбора текста экспорта чата.
type ChatParser interface {
	// ValidateFormat проверяет, похож ли текст на поддерживаемый формат экспорта.
	ValidateFormat(text string) bool
	// Parse преобразует сырой текст в структурированную модель чата.
	Parse(text string) *domain.ParsedChat
}

// AnalyticsService определяет интерфейс для агрегации статистики
// по уже отфильтрованному списку сообщений.
type AnalyticsService interface {
	Analyze(messages []domain.Message) *domain.ChatAnalytics
}

// TranscriptRenderer определяет интерфейс для повторной сериализации
// выборки сообщений в текстовый транскрипт для LLM.
type TranscriptRenderer interface {
	Render(chat *domain.ParsedChat, members []string, start, end int, context string) (string, error)
}

// AnalysisService определяет интерфейс для получения "анализа личности"
// по транскрипту через LLM.
type AnalysisService interface {
	Analyze(ctx context.Context, transcript string, members []string) (*domain.ChatAnalysis, error)
}

// LLMClient определяет интерфейс низкоуровневого клиента LLM API.
type LLMClient interface {
	// Complete отправляет запрос и возвращает текст первого блока ответа.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Exporter определяет интерфейс для вывода агрегированной статистики.
type Exporter interface {
	// Export принимает результат агрегации и выводит его.
	Export(analytics *domain.ChatAnalytics) error
}
