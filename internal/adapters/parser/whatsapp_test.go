package parser

import (
	"strings"
	"testing"
	"time"

	"whatsapp-chat-analyzer/internal/domain"
)

const sampleExport = `[05/03/2024, 14:23:45] Alice: Hello there
[05/03/2024, 14:24:10] Bob: Hi Alice!
[05/03/2024, 14:25:00] Alice: ` + "\u200eimage omitted" + `
[06/03/2024, 09:00:00] Bob: This message was deleted
[06/03/2024, 10:30:00] Alice: Fixed the typo ` + "\u200e<This message was edited>"

func TestWhatsAppParser(t *testing.T) {
	t.Run("NewWhatsAppParser создает корректный экземпляр", func(t *testing.T) {
		p := NewWhatsAppParser()
		if p == nil {
			t.Error("Ожидался экземпляр WhatsAppParser, получен nil")
		}
	})

	t.Run("Разбор корректного экспорта", func(t *testing.T) {
		p := &WhatsAppParser{}
		chat := p.Parse(sampleExport)

		if chat.Metadata.TotalMessages != 5 {
			t.Errorf("Ожидалось 5 сообщений, получено %d", chat.Metadata.TotalMessages)
		}
		if chat.Metadata.MediaCount != 1 {
			t.Errorf("Ожидалось 1 медиа-сообщение, получено %d", chat.Metadata.MediaCount)
		}
		if chat.Metadata.DeletedMessages != 1 {
			t.Errorf("Ожидалось 1 удаленное сообщение, получено %d", chat.Metadata.DeletedMessages)
		}
		if chat.Metadata.EditedMessages != 1 {
			t.Errorf("Ожидалось 1 отредактированное сообщение, получено %d", chat.Metadata.EditedMessages)
		}

		wantStart := time.Date(2024, time.March, 5, 14, 23, 45, 0, time.Local)
		if !chat.Metadata.StartDate.Equal(wantStart) {
			t.Errorf("Ожидалась начальная дата %v, получено %v", wantStart, chat.Metadata.StartDate)
		}
		wantEnd := time.Date(2024, time.March, 6, 10, 30, 0, 0, time.Local)
		if !chat.Metadata.EndDate.Equal(wantEnd) {
			t.Errorf("Ожидалась конечная дата %v, получено %v", wantEnd, chat.Metadata.EndDate)
		}

		if len(chat.UniqueSenders) != 2 {
			t.Errorf("Ожидалось 2 уникальных отправителя, получено %d", len(chat.UniqueSenders))
		}
		if !chat.UniqueSenders["Alice"] || !chat.UniqueSenders["Bob"] {
			t.Errorf("Ожидались отправители Alice и Bob, получено %v", chat.UniqueSenders)
		}
	})

	t.Run("Многострочное сообщение принадлежит предыдущему заголовку", func(t *testing.T) {
		p := &WhatsAppParser{}
		text := "[05/03/2024, 14:23:45] Alice: first line\nsecond line\nthird line\n[05/03/2024, 14:24:00] Bob: ok"

		chat := p.Parse(text)
		if chat.Metadata.TotalMessages != 2 {
			t.Fatalf("Ожидалось 2 сообщения, получено %d", chat.Metadata.TotalMessages)
		}

		want := "first line\nsecond line\nthird line"
		if chat.Messages[0].Content != want {
			t.Errorf("Ожидалось содержимое %q, получено %q", want, chat.Messages[0].Content)
		}
	})

	t.Run("Удаленное сообщение: флаг установлен, содержимое не изменено", func(t *testing.T) {
		p := &WhatsAppParser{}
		chat := p.Parse("[05/03/2024, 14:23:45] Bob: This message was deleted")

		msg := chat.Messages[0]
		if !msg.IsDeleted {
			t.Error("Ожидался установленный флаг IsDeleted")
		}
		if msg.Content != "This message was deleted" {
			t.Errorf("Содержимое удаленного сообщения не должно изменяться, получено %q", msg.Content)
		}
	})

	t.Run("Маркер правки вырезается из содержимого", func(t *testing.T) {
		p := &WhatsAppParser{}
		chat := p.Parse("[05/03/2024, 14:23:45] Alice: Fixed the typo \u200e<This message was edited>")

		msg := chat.Messages[0]
		if !msg.IsEdited {
			t.Error("Ожидался установленный флаг IsEdited")
		}
		if msg.Content != "Fixed the typo" {
			t.Errorf("Ожидалось содержимое 'Fixed the typo', получено %q", msg.Content)
		}
	})

	t.Run("Системная фраза имеет приоритет над медиа-маркером", func(t *testing.T) {
		p := &WhatsAppParser{}
		chat := p.Parse("[05/03/2024, 14:23:45] Alice: Carol changed the group icon \u200eimage omitted")

		msg := chat.Messages[0]
		if msg.MessageType != domain.MessageTypeSystem {
			t.Errorf("Ожидался тип system, получено %s", msg.MessageType)
		}
		if msg.MediaInfo != nil {
			t.Error("Для системного сообщения MediaInfo должен быть nil")
		}
	})

	t.Run("Классификация видов вложений", func(t *testing.T) {
		cases := []struct {
			content string
			kind    domain.MediaKind
		}{
			{"\u200eimage omitted", domain.MediaKindImage},
			{"IMG-20240305-WA0001.jpg", domain.MediaKindImage},
			{"\u200evideo omitted", domain.MediaKindVideo},
			{"PTT-20240305-WA0002.opus", domain.MediaKindAudio},
			{"report.pdf", domain.MediaKindDocument},
			{"\u200esticker omitted", domain.MediaKindSticker},
			{"\u200eGIF omitted", domain.MediaKindGIF},
		}

		p := &WhatsAppParser{}
		for _, tc := range cases {
			chat := p.Parse("[05/03/2024, 14:23:45] Alice: " + tc.content)
			msg := chat.Messages[0]
			if msg.MessageType != domain.MessageTypeMedia {
				t.Errorf("Содержимое %q: ожидался тип media, получено %s", tc.content, msg.MessageType)
				continue
			}
			if msg.MediaInfo == nil || msg.MediaInfo.Kind != tc.kind {
				t.Errorf("Содержимое %q: ожидался вид %s, получено %+v", tc.content, tc.kind, msg.MediaInfo)
			}
		}
	})

	t.Run("Подпись вложения: маркер вырезается, остаток сохраняется", func(t *testing.T) {
		p := &WhatsAppParser{}
		chat := p.Parse("[05/03/2024, 14:23:45] Alice: \u200eimage omitted holiday pics")

		msg := chat.Messages[0]
		if msg.MediaInfo == nil {
			t.Fatal("Ожидался MediaInfo, получен nil")
		}
		if msg.MediaInfo.Caption != "holiday pics" {
			t.Errorf("Ожидалась подпись 'holiday pics', получено %q", msg.MediaInfo.Caption)
		}
	})

	t.Run("ParseWithReport считает отброшенные фрагменты", func(t *testing.T) {
		p := &WhatsAppParser{}
		text := "Chat export preamble\n[05/03/2024, 14:23:45] Alice: hello"

		chat, report := p.ParseWithReport(text)
		if report.MatchedChunks != 1 {
			t.Errorf("Ожидался 1 совпавший фрагмент, получено %d", report.MatchedChunks)
		}
		if report.DroppedChunks != 1 {
			t.Errorf("Ожидался 1 отброшенный фрагмент, получено %d", report.DroppedChunks)
		}
		if chat.Metadata.TotalMessages != 1 {
			t.Errorf("Ожидалось 1 сообщение, получено %d", chat.Metadata.TotalMessages)
		}
	})

	t.Run("Пустой вход дает пустой результат с нулевыми датами", func(t *testing.T) {
		p := &WhatsAppParser{}
		chat := p.Parse("")

		if chat == nil {
			t.Fatal("Результат разбора не должен быть nil")
		}
		if chat.Metadata.TotalMessages != 0 {
			t.Errorf("Ожидалось 0 сообщений, получено %d", chat.Metadata.TotalMessages)
		}
		if !chat.Metadata.StartDate.IsZero() || !chat.Metadata.EndDate.IsZero() {
			t.Error("Для пустого входа даты должны оставаться нулевыми")
		}
	})
}

func TestValidateFormat(t *testing.T) {
	p := &WhatsAppParser{}

	t.Run("Достаточная доля корректных строк", func(t *testing.T) {
		lines := []string{
			"[05/03/2024, 14:23:45] Alice: one",
			"continuation line",
			"[05/03/2024, 14:24:00] Bob: two",
			"another continuation",
			"[05/03/2024, 14:25:00] Alice: three",
			"noise",
			"[05/03/2024, 14:26:00] Bob: four",
			"noise",
			"noise",
			"noise",
		}
		if !p.ValidateFormat(strings.Join(lines, "\n")) {
			t.Error("Ожидалось true для 4 корректных строк из 10")
		}
	})

	t.Run("Недостаточная доля корректных строк", func(t *testing.T) {
		lines := []string{
			"[05/03/2024, 14:23:45] Alice: one",
			"noise",
			"[05/03/2024, 14:24:00] Bob: two",
			"noise",
			"[05/03/2024, 14:25:00] Alice: three",
			"noise",
			"noise",
			"noise",
			"noise",
			"noise",
		}
		if p.ValidateFormat(strings.Join(lines, "\n")) {
			t.Error("Ожидалось false для 3 корректных строк из 10")
		}
	})

	t.Run("Проверяются только первые 10 строк", func(t *testing.T) {
		var lines []string
		for i := 0; i < 10; i++ {
			lines = append(lines, "noise")
		}
		for i := 0; i < 90; i++ {
			lines = append(lines, "[05/03/2024, 14:23:45] Alice: hello")
		}
		if p.ValidateFormat(strings.Join(lines, "\n")) {
			t.Error("Ожидалось false: первые 10 строк не содержат заголовков")
		}
	})

	t.Run("Пустой текст", func(t *testing.T) {
		if p.ValidateFormat("") {
			t.Error("Ожидалось false для пустого текста")
		}
	})
}
