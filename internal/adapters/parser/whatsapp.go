package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"
)

// messageRegexp описывает заголовок сообщения экспорта WhatsApp:
// [DD/MM/YYYY, HH:MM:SS] Отправитель: Текст.
// Флаг (?s) позволяет телу сообщения содержать переносы строк:
// экспорт переносит длинные сообщения, и продолжения принадлежат
// предыдущему сообщению, а не новому.
var messageRegexp = regexp.MustCompile(`(?s)\[(\d{2}/\d{2}/\d{4}),\s(\d{2}:\d{2}:\d{2})\]\s([^:]+):\s(.+)`)

// headerRegexp находит начала сообщений для разбиения текста на фрагменты.
var headerRegexp = regexp.MustCompile(`\[\d{2}/\d{2}/\d{4},\s\d{2}:\d{2}:\d{2}\]`)

// omittedRegexp находит маркер пропущенного вложения: невидимый префикс
// U+200E и слово "omitted". Точка не захватывает перенос строки, поэтому
// маркер ищется только в пределах одной строки.
var omittedRegexp = regexp.MustCompile("\u200e.*omitted")

// editedMarker — литеральный маркер отредактированного сообщения
// с невидимым префиксом U+200E.
const editedMarker = "\u200e<This message was edited>"

// deletedMarker — литеральная фраза удаленного сообщения. Содержимое
// при этом не изменяется: подстановку текста выполняет рендерер.
const deletedMarker = "This message was deleted"

// systemPhrases — фразы групповых событий. Проверяются раньше медиа-маркеров
// и в этом порядке; совпадение по подстроке, с учетом регистра.
var systemPhrases = []string{
	"changed the group",
	"added",
	"removed",
	"left",
	"created group",
}

// mediaIdentifier связывает вид вложения с его маркерами в тексте.
type mediaIdentifier struct {
	kind    domain.MediaKind
	markers []string
}

// mediaIdentifiers перечисляет маркеры в порядке приоритета проверки.
var mediaIdentifiers = []mediaIdentifier{
	{domain.MediaKindImage, []string{"\u200eimage omitted", "IMG-"}},
	{domain.MediaKindVideo, []string{"\u200evideo omitted", "VID-"}},
	{domain.MediaKindAudio, []string{"\u200eaudio omitted", "PTT-"}},
	{domain.MediaKindDocument, []string{"document omitted", ".pdf", ".doc", ".txt"}},
	{domain.MediaKindSticker, []string{"\u200esticker omitted"}},
	{domain.MediaKindGIF, []string{"\u200eGIF omitted"}},
}

// WhatsAppParser реализует интерфейс ChatParser для текстовых экспортов WhatsApp.
// Парсер не хранит состояние и безопасен для одновременного использования.
type WhatsAppParser struct{}

// NewWhatsAppParser создает новый экземпляр WhatsAppParser.
func NewWhatsAppParser() ports.ChatParser {
	return &WhatsAppParser{}
}

// ValidateFormat проверяет до 10 первых строк текста и возвращает true,
// если не менее 40% из них соответствуют шаблону заголовка сообщения.
// Порог занижен намеренно: реальные экспорты содержат строки-продолжения
// многострочных сообщений, которые сами по себе заголовку не соответствуют.
func (p *WhatsAppParser) ValidateFormat(text string) bool {
	lines := strings.Split(text, "\n")
	sampleSize := len(lines)
	if sampleSize > 10 {
		sampleSize = 10
	}
	if sampleSize == 0 {
		return false
	}

	validLines := 0
	for i := 0; i < sampleSize; i++ {
		if messageRegexp.MatchString(strings.TrimSpace(lines[i])) {
			validLines++
		}
	}

	return float64(validLines)/float64(sampleSize) >= 0.4
}

// Parse преобразует сырой текст экспорта в ParsedChat.
// Разбор выполняется по принципу "лучшее из возможного": фрагменты,
// не соответствующие шаблону заголовка, молча отбрасываются, ошибки
// не возвращаются. Результат всегда не nil.
func (p *WhatsAppParser) Parse(text string) *domain.ParsedChat {
	chat, _ := p.ParseWithReport(text)
	return chat
}

// ParseWithReport выполняет тот же разбор, что и Parse, но дополнительно
// возвращает диагностику: сколько фрагментов совпало и сколько отброшено.
// Поведение по умолчанию (молчаливое отбрасывание) не меняется.
func (p *WhatsAppParser) ParseWithReport(text string) (*domain.ParsedChat, domain.ParseReport) {
	var (
		messages        []domain.Message
		report          domain.ParseReport
		mediaCount      int
		deletedMessages int
		editedMessages  int
		startDate       time.Time
		endDate         time.Time
	)
	uniqueSenders := make(map[string]bool)

	// Разбиение по началам заголовков, а не по переносам строк:
	// все до следующего заголовка принадлежит предыдущему сообщению.
	for _, chunk := range splitChunks(text) {
		trimmedChunk := strings.TrimSpace(chunk)
		if trimmedChunk == "" {
			continue
		}

		match := messageRegexp.FindStringSubmatch(trimmedChunk)
		if match == nil {
			report.DroppedChunks++
			continue
		}
		report.MatchedChunks++

		date, clock, sender, content := match[1], match[2], match[3], match[4]
		timestamp := parseTimestamp(date, clock)

		if startDate.IsZero() || timestamp.Before(startDate) {
			startDate = timestamp
		}
		if endDate.IsZero() || timestamp.After(endDate) {
			endDate = timestamp
		}

		isEdited := strings.Contains(content, editedMarker)
		isDeleted := strings.Contains(content, deletedMarker)
		messageType, mediaInfo := determineMessageType(content)

		if isEdited {
			editedMessages++
		}
		if isDeleted {
			deletedMessages++
		}
		if messageType == domain.MessageTypeMedia {
			mediaCount++
		}

		// Маркер правки вырезается из содержимого; остальное хранится дословно.
		cleanContent := strings.TrimSpace(strings.Replace(content, editedMarker, "", 1))

		messages = append(messages, domain.Message{
			Timestamp:   timestamp,
			Sender:      strings.TrimSpace(sender),
			Content:     cleanContent,
			IsEdited:    isEdited,
			IsDeleted:   isDeleted,
			MessageType: messageType,
			MediaInfo:   mediaInfo,
		})

		uniqueSenders[strings.TrimSpace(sender)] = true
	}

	return &domain.ParsedChat{
		Messages:      messages,
		UniqueSenders: uniqueSenders,
		Metadata: domain.ChatMetadata{
			StartDate:       startDate,
			EndDate:         endDate,
			TotalMessages:   len(messages),
			MediaCount:      mediaCount,
			DeletedMessages: deletedMessages,
			EditedMessages:  editedMessages,
		},
	}, report
}

// splitChunks режет текст на фрагменты по началам заголовков сообщений.
// Текст до первого заголовка образует отдельный фрагмент, который затем
// не пройдет проверку шаблоном и будет отброшен.
func splitChunks(text string) []string {
	starts := headerRegexp.FindAllStringIndex(text, -1)
	if len(starts) == 0 {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	var chunks []string
	if starts[0][0] > 0 {
		chunks = append(chunks, text[:starts[0][0]])
	}
	for i, start := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		chunks = append(chunks, text[start[0]:end])
	}
	return chunks
}

// parseTimestamp собирает время из полей даты DD/MM/YYYY и времени HH:MM:SS.
// Часовой пояс экспортом не задан, время трактуется как локальное.
func parseTimestamp(date, clock string) time.Time {
	dateParts := strings.Split(date, "/")
	clockParts := strings.Split(clock, ":")

	day, _ := strconv.Atoi(dateParts[0])
	month, _ := strconv.Atoi(dateParts[1])
	year, _ := strconv.Atoi(dateParts[2])
	hour, _ := strconv.Atoi(clockParts[0])
	minute, _ := strconv.Atoi(clockParts[1])
	second, _ := strconv.Atoi(clockParts[2])

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local)
}

// determineMessageType классифицирует содержимое сообщения.
// Системные фразы имеют приоритет над медиа-маркерами: сообщение,
// содержащее и то и другое, считается системным.
func determineMessageType(content string) (domain.MessageType, *domain.MediaInfo) {
	for _, phrase := range systemPhrases {
		if strings.Contains(content, phrase) {
			return domain.MessageTypeSystem, nil
		}
	}

	for _, ident := range mediaIdentifiers {
		for _, marker := range ident.markers {
			if strings.Contains(content, marker) {
				return domain.MessageTypeMedia, &domain.MediaInfo{
					Kind:    ident.kind,
					Caption: stripOmittedMarker(content),
				}
			}
		}
	}

	return domain.MessageTypeText, nil
}

// stripOmittedMarker вырезает первое вхождение маркера "... omitted"
// и возвращает остаток как подпись; пустая строка, если ничего не осталось.
func stripOmittedMarker(content string) string {
	loc := omittedRegexp.FindStringIndex(content)
	if loc == nil {
		return strings.TrimSpace(content)
	}
	return strings.TrimSpace(content[:loc[0]] + content[loc[1]:])
}
