package exporter

import (
	"bytes"
	"strings"
	"testing"

	"whatsapp-chat-analyzer/internal/domain"
)

func sampleAnalytics() *domain.ChatAnalytics {
	return &domain.ChatAnalytics{
		GroupStats: domain.GroupStats{
			TotalMessages: 42,
			LaughCount:    7,
			TopEmojis:     []domain.EmojiCount{{Emoji: "😂", Count: 5}},
			TopWords:      []domain.WordCount{{Word: "hilarious", Count: 3}},
		},
		MemberStats: map[string]domain.MemberStats{
			"Alice": {
				MessageCount:         30,
				TopEmojis:            []domain.EmojiCount{{Emoji: "🎉", Count: 2}},
				TopWords:             []domain.WordCount{{Word: "party", Count: 4}},
				AverageMessageLength: 12,
				EstimatedTimeSpent:   3,
			},
			"Bob": {
				MessageCount: 12,
			},
		},
	}
}

func TestConsoleExporter(t *testing.T) {
	t.Run("NewConsoleExporter создает корректный экземпляр", func(t *testing.T) {
		var buf bytes.Buffer
		exporter := NewConsoleExporter(&buf)
		if exporter == nil {
			t.Error("Ожидался экземпляр ConsoleExporter, получен nil")
		}
	})

	t.Run("Export выводит групповую сводку и таблицу участников", func(t *testing.T) {
		var buf bytes.Buffer
		exporter := NewConsoleExporter(&buf)

		if err := exporter.Export(sampleAnalytics()); err != nil {
			t.Fatalf("Неожиданная ошибка: %v", err)
		}
		output := buf.String()

		if !strings.Contains(output, "Всего сообщений: 42") {
			t.Error("Ожидался итог сообщений в выводе")
		}
		if !strings.Contains(output, "Количество смеха: 7") {
			t.Error("Ожидался счетчик смеха в выводе")
		}
		if !strings.Contains(output, "Alice") || !strings.Contains(output, "Bob") {
			t.Error("Ожидались оба участника в таблице")
		}
		if !strings.Contains(output, "hilarious (3)") {
			t.Error("Ожидался топ слов группы в выводе")
		}

		// Alice идет раньше Bob: строки таблицы отсортированы по имени
		if strings.Index(output, "Alice") > strings.Index(output, "Bob") {
			t.Error("Участники должны выводиться в алфавитном порядке")
		}
	})

	t.Run("Export с nil статистикой возвращает ошибку", func(t *testing.T) {
		var buf bytes.Buffer
		exporter := NewConsoleExporter(&buf)

		if err := exporter.Export(nil); err == nil {
			t.Error("Ожидалась ошибка для nil статистики, получено nil")
		}
	})
}
