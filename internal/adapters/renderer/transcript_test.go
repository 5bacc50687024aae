package renderer

import (
	"errors"
	"strings"
	"testing"
	"time"

	"whatsapp-chat-analyzer/internal/domain"
)

func makeChat(messages ...domain.Message) *domain.ParsedChat {
	senders := make(map[string]bool)
	for _, msg := range messages {
		senders[msg.Sender] = true
	}
	return &domain.ParsedChat{
		Messages:      messages,
		UniqueSenders: senders,
		Metadata:      domain.ChatMetadata{TotalMessages: len(messages)},
	}
}

func TestTranscriptRenderer(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 14, 23, 45, 0, time.Local)

	t.Run("NewTranscriptRenderer создает корректный экземпляр", func(t *testing.T) {
		r := NewTranscriptRenderer()
		if r == nil {
			t.Error("Ожидался экземпляр TranscriptRenderer, получен nil")
		}
	})

	t.Run("Дата выводится в формате MM/DD/YYYY", func(t *testing.T) {
		r := NewTranscriptRenderer()
		chat := makeChat(domain.Message{
			Timestamp: ts, Sender: "Alice", Content: "hello", MessageType: domain.MessageTypeText,
		})

		out, err := r.Render(chat, []string{"Alice"}, 0, 1, "")
		if err != nil {
			t.Fatalf("Неожиданная ошибка: %v", err)
		}
		if !strings.Contains(out, "[03/05/2024, 14:23:45] Alice: hello") {
			t.Errorf("Ожидалась строка с датой 03/05/2024, получено:\n%s", out)
		}
	})

	t.Run("Заголовок содержит метаданные выборки и контекст", func(t *testing.T) {
		r := NewTranscriptRenderer()
		chat := makeChat(
			domain.Message{Timestamp: ts, Sender: "Alice", Content: "one", MessageType: domain.MessageTypeText},
			domain.Message{Timestamp: ts.Add(24 * time.Hour), Sender: "Bob", Content: "two", MessageType: domain.MessageTypeText},
		)

		out, err := r.Render(chat, []string{"Alice", "Bob"}, 0, 2, "college friends")
		if err != nil {
			t.Fatalf("Неожиданная ошибка: %v", err)
		}

		for _, want := range []string{
			"=== Chat Analysis Metadata ===",
			"Total Messages Selected: 2",
			"Date Range: 3/5/2024 to 3/6/2024",
			"Selected Members: Alice, Bob",
			"=== Chat Context ===",
			"college friends",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("Ожидалась подстрока %q, получено:\n%s", want, out)
			}
		}
	})

	t.Run("Удаленное сообщение заменяется заглушкой", func(t *testing.T) {
		r := NewTranscriptRenderer()
		chat := makeChat(domain.Message{
			Timestamp: ts, Sender: "Bob", Content: "This message was deleted",
			IsDeleted: true, MessageType: domain.MessageTypeText,
		})

		out, err := r.Render(chat, []string{"Bob"}, 0, 1, "")
		if err != nil {
			t.Fatalf("Неожиданная ошибка: %v", err)
		}
		if !strings.Contains(out, "Bob: <message was deleted>") {
			t.Errorf("Ожидалась заглушка удаленного сообщения, получено:\n%s", out)
		}
	})

	t.Run("Отредактированное сообщение получает пометку", func(t *testing.T) {
		r := NewTranscriptRenderer()
		chat := makeChat(domain.Message{
			Timestamp: ts, Sender: "Alice", Content: "fixed typo",
			IsEdited: true, MessageType: domain.MessageTypeText,
		})

		out, err := r.Render(chat, []string{"Alice"}, 0, 1, "")
		if err != nil {
			t.Fatalf("Неожиданная ошибка: %v", err)
		}
		if !strings.Contains(out, "Alice: fixed typo (edited)") {
			t.Errorf("Ожидалась пометка (edited), получено:\n%s", out)
		}
	})

	t.Run("Медиа-сообщение с подписью и без", func(t *testing.T) {
		r := NewTranscriptRenderer()
		chat := makeChat(
			domain.Message{
				Timestamp: ts, Sender: "Alice", MessageType: domain.MessageTypeMedia,
				MediaInfo: &domain.MediaInfo{Kind: domain.MediaKindImage, Caption: "holiday pics"},
			},
			domain.Message{
				Timestamp: ts, Sender: "Alice", MessageType: domain.MessageTypeMedia,
				MediaInfo: &domain.MediaInfo{Kind: domain.MediaKindVideo},
			},
		)

		out, err := r.Render(chat, []string{"Alice"}, 0, 2, "")
		if err != nil {
			t.Fatalf("Неожиданная ошибка: %v", err)
		}
		if !strings.Contains(out, "Alice: <shared image> with caption: holiday pics") {
			t.Errorf("Ожидалось медиа с подписью, получено:\n%s", out)
		}
		if !strings.Contains(out, "Alice: <shared video>") {
			t.Errorf("Ожидалось медиа без подписи, получено:\n%s", out)
		}
	})

	t.Run("Фильтрация по участникам и диапазону", func(t *testing.T) {
		r := NewTranscriptRenderer()
		chat := makeChat(
			domain.Message{Timestamp: ts, Sender: "Alice", Content: "one", MessageType: domain.MessageTypeText},
			domain.Message{Timestamp: ts, Sender: "Bob", Content: "two", MessageType: domain.MessageTypeText},
			domain.Message{Timestamp: ts, Sender: "Alice", Content: "three", MessageType: domain.MessageTypeText},
		)

		out, err := r.Render(chat, []string{"Alice"}, 0, 2, "")
		if err != nil {
			t.Fatalf("Неожиданная ошибка: %v", err)
		}
		if !strings.Contains(out, "Alice: one") {
			t.Error("Сообщение 'one' должно попасть в выборку")
		}
		if strings.Contains(out, "Bob: two") {
			t.Error("Сообщения Bob не должны попадать в выборку")
		}
		if strings.Contains(out, "Alice: three") {
			t.Error("Сообщение за пределами диапазона не должно попадать в выборку")
		}
	})

	t.Run("Пустая выборка возвращает ErrEmptySelection", func(t *testing.T) {
		r := NewTranscriptRenderer()
		chat := makeChat(domain.Message{
			Timestamp: ts, Sender: "Alice", Content: "hello", MessageType: domain.MessageTypeText,
		})

		_, err := r.Render(chat, []string{"Carol"}, 0, 1, "")
		if !errors.Is(err, ErrEmptySelection) {
			t.Errorf("Ожидалась ошибка ErrEmptySelection, получено %v", err)
		}
	})

	t.Run("Диапазон за границами не вызывает панику", func(t *testing.T) {
		r := NewTranscriptRenderer()
		chat := makeChat(domain.Message{
			Timestamp: ts, Sender: "Alice", Content: "hello", MessageType: domain.MessageTypeText,
		})

		out, err := r.Render(chat, []string{"Alice"}, -5, 100, "")
		if err != nil {
			t.Fatalf("Неожиданная ошибка: %v", err)
		}
		if !strings.Contains(out, "Alice: hello") {
			t.Errorf("Ожидалось сообщение в выборке, получено:\n%s", out)
		}
	})
}
