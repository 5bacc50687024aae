package exporter

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"
)

// Ширины колонок таблицы участников.
const (
	memberColWidth = 20
	numberColWidth = 10
	emojiColWidth  = 16
	wordsColWidth  = 28
)

// ConsoleExporter выводит агрегированную статистику в виде текстовой таблицы.
type ConsoleExporter struct {
	out io.Writer
}

// NewConsoleExporter создает новый экземпляр ConsoleExporter.
func NewConsoleExporter(out io.Writer) ports.Exporter {
	return &ConsoleExporter{out: out}
}

// Export форматирует и печатает групповую статистику и таблицу участников.
func (e *ConsoleExporter) Export(analytics *domain.ChatAnalytics) error {
	if analytics == nil {
		return fmt.Errorf("статистика не задана")
	}

	var sb strings.Builder

	group := analytics.GroupStats
	sb.WriteString(fmt.Sprintf("Всего сообщений: %d\n", group.TotalMessages))
	sb.WriteString(fmt.Sprintf("Количество смеха: %d\n", group.LaughCount))
	sb.WriteString(fmt.Sprintf("Топ эмодзи: %s\n", formatEmojis(group.TopEmojis)))
	sb.WriteString(fmt.Sprintf("Топ слов: %s\n\n", formatWords(group.TopWords)))

	// Заголовок таблицы участников
	headers := []string{"Участник", "Сообщений", "Топ эмодзи", "Топ слов"}
	widths := []int{memberColWidth, numberColWidth, emojiColWidth, wordsColWidth}

	headerLine := "|"
	separatorLine := "|"
	for i, h := range headers {
		headerLine += fmt.Sprintf(" %s%s |", h, generatePadding(h, widths[i]))
		separatorLine += strings.Repeat("-", widths[i]+2) + "|"
	}
	sb.WriteString(headerLine + "\n")
	sb.WriteString(separatorLine + "\n")

	// Стабильный порядок строк
	names := make([]string, 0, len(analytics.MemberStats))
	for name := range analytics.MemberStats {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		stats := analytics.MemberStats[name]
		cells := []string{
			name,
			fmt.Sprintf("%d", stats.MessageCount),
			formatEmojis(stats.TopEmojis),
			formatWords(stats.TopWords),
		}

		row := "|"
		for i, cell := range cells {
			cell = runewidth.Truncate(cell, widths[i], "…")
			row += fmt.Sprintf(" %s%s |", cell, generatePadding(cell, widths[i]))
		}
		sb.WriteString(row + "\n")
	}

	if _, err := io.WriteString(e.out, sb.String()); err != nil {
		return fmt.Errorf("не удалось записать таблицу: %w", err)
	}
	return nil
}

// generatePadding вычисляет пробельное дополнение с учетом ширины рун,
// чтобы эмодзи и кириллица не ломали выравнивание колонок.
func generatePadding(s string, colWidth int) string {
	paddingNeeded := colWidth - runewidth.StringWidth(s)
	if paddingNeeded < 0 {
		paddingNeeded = 0
	}
	return strings.Repeat(" ", paddingNeeded)
}

func formatEmojis(emojis []domain.EmojiCount) string {
	parts := make([]string, 0, len(emojis))
	for _, ec := range emojis {
		parts = append(parts, fmt.Sprintf("%s %d", ec.Emoji, ec.Count))
	}
	return strings.Join(parts, ", ")
}

func formatWords(words []domain.WordCount) string {
	parts := make([]string, 0, len(words))
	for _, wc := range words {
		parts = append(parts, fmt.Sprintf("%s (%d)", wc.Word, wc.Count))
	}
	return strings.Join(parts, ", ")
}
