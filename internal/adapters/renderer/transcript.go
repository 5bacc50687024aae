package renderer

import (
	"errors"
	"fmt"
	"strings"

	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"
)

// ErrEmptySelection возвращается, когда после фильтрации по участникам
// и диапазону не осталось ни одного сообщения: диапазон дат пустой
// выборки не определен.
var ErrEmptySelection = errors.New("в выбранном диапазоне нет сообщений выбранных участников")

// deletedPlaceholder подставляется вместо содержимого удаленных сообщений
// независимо от того, что хранится в Content.
const deletedPlaceholder = "<message was deleted>"

// TranscriptRendererImpl реализует интерфейс TranscriptRenderer.
// Рендерер повторно сериализует выборку сообщений в текстовый транскрипт
// для передачи внешнему LLM-коллаборатору.
type TranscriptRendererImpl struct{}

// NewTranscriptRenderer создает новый экземпляр TranscriptRendererImpl.
func NewTranscriptRenderer() ports.TranscriptRenderer {
	return &TranscriptRendererImpl{}
}

// Render отрисовывает сообщения из полуоткрытого диапазона [start, end),
// оставляя только сообщения участников из списка members (порядок
// сохраняется). Формат даты на выходе — MM/DD/YYYY, намеренно отличный
// от входного DD/MM/YYYY; это несоответствие закреплено контрактом.
func (r *TranscriptRendererImpl) Render(chat *domain.ParsedChat, members []string, start, end int, context string) (string, error) {
	selected := selectMessages(chat.Messages, members, start, end)
	if len(selected) == 0 {
		return "", ErrEmptySelection
	}

	lines := make([]string, 0, len(selected))
	for _, msg := range selected {
		lines = append(lines, formatMessage(msg))
	}

	header := []string{
		"=== Chat Analysis Metadata ===",
		fmt.Sprintf("Total Messages Selected: %d", len(selected)),
		fmt.Sprintf("Date Range: %s to %s",
			selected[0].Timestamp.Format("1/2/2006"),
			selected[len(selected)-1].Timestamp.Format("1/2/2006")),
		fmt.Sprintf("Selected Members: %s", strings.Join(members, ", ")),
		"\n=== Chat Context ===",
		context,
		"===========================\n\n",
	}

	return strings.Join(header, "\n") + strings.Join(lines, "\n"), nil
}

// selectMessages вырезает диапазон [start, end) с защитой от выхода
// за границы и отбирает сообщения разрешенных участников.
func selectMessages(messages []domain.Message, members []string, start, end int) []domain.Message {
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
		allowed[m] = true
	}

	var selected []domain.Message
	for _, msg := range messages[start:end] {
		if allowed[msg.Sender] {
			selected = append(selected, msg)
		}
	}
	return selected
}

// formatMessage отрисовывает одно сообщение. Порядок подстановок закреплен:
// пометка правки добавляется первой, удаление перекрывает содержимое
// целиком, медиа перекрывает и то и другое.
func formatMessage(msg domain.Message) string {
	content := msg.Content
	if msg.IsEdited {
		content += " (edited)"
	}
	if msg.IsDeleted {
		content = deletedPlaceholder
	}
	if msg.MessageType == domain.MessageTypeMedia && msg.MediaInfo != nil {
		content = fmt.Sprintf("<shared %s>", msg.MediaInfo.Kind)
		if msg.MediaInfo.Caption != "" {
			content += fmt.Sprintf(" with caption: %s", msg.MediaInfo.Caption)
		}
	}

	return fmt.Sprintf("[%s] %s: %s", msg.Timestamp.Format("01/02/2006, 15:04:05"), msg.Sender, content)
}
