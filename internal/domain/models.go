package domain

import "time"

// MessageType определяет тип сообщения в чате.
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeMedia  MessageType = "media"
	MessageTypeSystem MessageType = "system" // Изменения группы, служебные уведомления и т.д.
)

// MediaKind определяет вид вложения в медиа-сообщении.
type MediaKind string

const (
	MediaKindImage    MediaKind = "image"
	MediaKindVideo    MediaKind = "video"
	MediaKindAudio    MediaKind = "audio"
	MediaKindDocument MediaKind = "document"
	MediaKindSticker  MediaKind = "sticker"
	MediaKindGIF      MediaKind = "GIF"
)

// MediaInfo описывает вложение медиа-сообщения.
type MediaInfo struct {
	Kind    MediaKind `json:"type"`
	Caption string    `json:"caption,omitempty"`
}

// Message представляет одно разобранное сообщение из файла экспорта.
// Сообщение неизменяемо после создания; Content может содержать
// переносы строк для многострочных сообщений.
type Message struct {
	Timestamp   time.Time   `json:"timestamp"`
	Sender      string      `json:"sender"`
	Content     string      `json:"content"`
	IsEdited    bool        `json:"is_edited"`
	IsDeleted   bool        `json:"is_deleted"`
	MessageType MessageType `json:"message_type"`
	MediaInfo   *MediaInfo  `json:"media_info,omitempty"`
}

// ChatMetadata содержит сводные данные одного прохода парсера.
// StartDate и EndDate остаются нулевыми, если не разобрано ни одного
// сообщения; вызывающая сторона обязана проверять TotalMessages > 0
// перед обращением к датам.
type ChatMetadata struct {
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	TotalMessages   int       `json:"total_messages"`
	MediaCount      int       `json:"media_count"`
	DeletedMessages int       `json:"deleted_messages"`
	EditedMessages  int       `json:"edited_messages"`
}

// ParsedChat — результат разбора файла экспорта.
// Принадлежит вызывающей стороне; общих изменяемых данных между
// вызовами парсера нет.
type ParsedChat struct {
	Messages      []Message       `json:"messages"`
	UniqueSenders map[string]bool `json:"unique_senders"`
	Metadata      ChatMetadata    `json:"metadata"`
}

// Senders возвращает список уникальных отправителей.
func (pc *ParsedChat) Senders() []string {
	senders := make([]string, 0, len(pc.UniqueSenders))
	for s := range pc.UniqueSenders {
		senders = append(senders, s)
	}
	return senders
}

// ParseReport — опциональная диагностика разбора: сколько фрагментов
// совпало с шаблоном заголовка и сколько было молча отброшено.
type ParseReport struct {
	MatchedChunks int `json:"matched_chunks"`
	DroppedChunks int `json:"dropped_chunks"`
}

// EmojiCount — пара "эмодзи + количество" для топ-списков.
type EmojiCount struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// WordCount — пара "слово + количество" для топ-списков.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// MessageTimeline — распределение активности по часам суток и дням недели.
// Все 24 часовые и 7 дневных корзин присутствуют всегда, даже нулевые.
type MessageTimeline struct {
	Hourly map[int]int    `json:"hourly"`
	Daily  map[string]int `json:"daily"`
}

// MemberStats — статистика одного участника.
type MemberStats struct {
	MessageCount         int          `json:"message_count"`
	TopEmojis            []EmojiCount `json:"top_emojis"`
	TopWords             []WordCount  `json:"top_words"`
	AverageMessageLength int          `json:"average_message_length"`
	EstimatedTimeSpent   int          `json:"estimated_time_spent"`
}

// GroupStats — групповая статистика по всем сообщениям выборки.
type GroupStats struct {
	TotalMessages int             `json:"total_messages"`
	TopEmojis     []EmojiCount    `json:"top_emojis"`
	LaughCount    int             `json:"laugh_count"`
	TopWords      []WordCount     `json:"top_words"`
	Timeline      MessageTimeline `json:"timeline"`
}

// ChatAnalytics — полный результат агрегации статистики.
type ChatAnalytics struct {
	GroupStats  GroupStats             `json:"group_stats"`
	MemberStats map[string]MemberStats `json:"member_stats"`
}

// MemberAnalysis — оценки одного участника, полученные от LLM.
// Схема определяется внешним коллаборатором; здесь проверяется только форма.
type MemberAnalysis struct {
	RedFlagScore int    `json:"red_flag_score"`
	HumorScore   int    `json:"humor_score"`
	CringeScore  int    `json:"cringe_score"`
	Summary      string `json:"summary"`
}

// Award — шуточная "номинация" участника.
type Award struct {
	Title     string `json:"title"`
	Recipient string `json:"recipient"`
	Reason    string `json:"reason"`
}

// ChatAnalysis — структурированный ответ LLM по отрисованному транскрипту.
type ChatAnalysis struct {
	GroupVibe        string                    `json:"group_vibe"`
	Members          map[string]MemberAnalysis `json:"members"`
	Awards           []Award                   `json:"awards"`
	MemorableMoments []string                  `json:"memorable_moments"`
}

// ChatRequest — параметры одной задачи обработки загруженного экспорта.
// RangeStart и RangeEnd задают полуоткрытый диапазон [start, end);
// нулевой RangeEnd означает "до конца переписки". Пустой список Members
// означает "все участники".
type ChatRequest struct {
	FilePath         string   `json:"file_path"`
	Platform         string   `json:"platform"`
	ConversationType string   `json:"conversation_type"`
	Members          []string `json:"members"`
	Context          string   `json:"context"`
	RangeStart       int      `json:"range_start"`
	RangeEnd         int      `json:"range_end"`
}

// ChatPreview — синхронный предпросмотр экспорта: метаданные разбора и
// список участников для выбора в интерфейсе, плюс диагностика разбора.
type ChatPreview struct {
	Senders  []string     `json:"senders"`
	Metadata ChatMetadata `json:"metadata"`
	Report   ParseReport  `json:"report"`
}

// ChatResult — итог обработки одной загрузки: метаданные разбора,
// агрегированная статистика и анализ LLM.
type ChatResult struct {
	Platform  string        `json:"platform"`
	Members   []string      `json:"members"`
	Metadata  ChatMetadata  `json:"metadata"`
	Analytics ChatAnalytics `json:"analytics"`
	Analysis  *ChatAnalysis `json:"analysis,omitempty"`
}
