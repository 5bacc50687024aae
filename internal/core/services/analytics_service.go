package services

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"
)

// Скорости чтения и набора текста (слов в минуту) для эвристической
// оценки времени, потраченного на переписку.
const (
	readingSpeedWPM = 200
	typingSpeedWPM  = 40
)

// stopWords — служебные английские слова, исключаемые из топа слов.
var stopWords = map[string]bool{
	"the": true, "be": true, "to": true, "of": true, "and": true,
	"a": true, "in": true, "that": true, "have": true, "i": true,
	"it": true, "for": true, "not": true, "on": true, "with": true,
	"he": true, "as": true, "you": true, "do": true, "at": true,
}

// laughIndicators — индикаторы смеха. Текстовые токены входят в набор,
// но сверка выполняется только среди извлеченных эмодзи, поэтому
// счетчик смеха растет по вхождениям смеющихся эмодзи.
var laughIndicators = map[string]bool{
	"😂": true, "🤣": true, "😅": true, "😆": true,
	"😄": true, "😃": true, "😀": true,
	"haha": true, "hehe": true, "lol": true, "lmao": true,
}

var (
	nonWordRegexp    = regexp.MustCompile(`[^\w\s]`)
	whitespaceRegexp = regexp.MustCompile(`\s+`)
	numericRegexp    = regexp.MustCompile(`^\d+$`)
)

// weekdays перечисляет английские названия дней недели для корзин таймлайна.
var weekdays = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// counter считает вхождения строк, запоминая порядок первого появления.
// Порядок нужен для устойчивой разбивки топ-списков при равных счетчиках.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string) {
	if _, seen := c.counts[key]; !seen {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// top возвращает не более limit элементов с наибольшими счетчиками.
// Сортировка устойчивая: при равенстве счетчиков сохраняется порядок
// первого появления.
func (c *counter) top(limit int) []domain.WordCount {
	items := make([]domain.WordCount, 0, len(c.order))
	for _, key := range c.order {
		items = append(items, domain.WordCount{Word: key, Count: c.counts[key]})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Count > items[j].Count
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

// topEmojis — то же, что top, но в виде пар "эмодзи + количество".
func (c *counter) topEmojis(limit int) []domain.EmojiCount {
	words := c.top(limit)
	emojis := make([]domain.EmojiCount, 0, len(words))
	for _, w := range words {
		emojis = append(emojis, domain.EmojiCount{Emoji: w.Word, Count: w.Count})
	}
	return emojis
}

// AnalyticsServiceImpl реализует интерфейс AnalyticsService.
// Сервис не хранит состояние между вызовами: повторный прогон по тем же
// сообщениям дает идентичный результат.
type AnalyticsServiceImpl struct{}

// NewAnalyticsService создает новый экземпляр AnalyticsServiceImpl.
func NewAnalyticsService() ports.AnalyticsService {
	return &AnalyticsServiceImpl{}
}

// Analyze агрегирует статистику по списку сообщений за один линейный проход.
// Фильтрацию по участникам и диапазону выполняет вызывающая сторона;
// записи статистики создаются только для отправителей, присутствующих
// в переданном срезе. Метод никогда не завершается с ошибкой: пустой
// вход дает нулевые таймлайны и пустую карту участников.
func (s *AnalyticsServiceImpl) Analyze(messages []domain.Message) *domain.ChatAnalytics {
	memberStats := make(map[string]domain.MemberStats)
	memberEmojiCounts := make(map[string]*counter)
	memberWordCounts := make(map[string]*counter)
	memberContentLength := make(map[string]int)
	memberTimeSpent := make(map[string]float64)
	groupEmojiCounts := newCounter()
	groupWordCounts := newCounter()

	timeline := domain.MessageTimeline{
		Hourly: make(map[int]int, 24),
		Daily:  make(map[string]int, len(weekdays)),
	}
	for hour := 0; hour < 24; hour++ {
		timeline.Hourly[hour] = 0
	}
	for _, day := range weekdays {
		timeline.Daily[day] = 0
	}

	for _, msg := range messages {
		if _, ok := memberStats[msg.Sender]; !ok {
			memberStats[msg.Sender] = domain.MemberStats{}
			memberEmojiCounts[msg.Sender] = newCounter()
			memberWordCounts[msg.Sender] = newCounter()
		}
	}

	totalLaughs := 0

	for _, msg := range messages {
		timeline.Hourly[msg.Timestamp.Hour()]++
		timeline.Daily[msg.Timestamp.Weekday().String()]++

		stats := memberStats[msg.Sender]
		stats.MessageCount++
		memberStats[msg.Sender] = stats

		if msg.Content == "" {
			continue
		}

		for _, emoji := range extractEmojis(msg.Content) {
			groupEmojiCounts.add(emoji)
			memberEmojiCounts[msg.Sender].add(emoji)
			if laughIndicators[emoji] {
				totalLaughs++
			}
		}

		for _, word := range extractWords(msg.Content) {
			groupWordCounts.add(word)
			memberWordCounts[msg.Sender].add(word)
		}

		memberTimeSpent[msg.Sender] += estimateTimeSpent(msg.Content)
		memberContentLength[msg.Sender] += len([]rune(msg.Content))
	}

	for member, stats := range memberStats {
		if stats.MessageCount == 0 {
			continue
		}
		stats.AverageMessageLength = int(math.Round(float64(memberContentLength[member]) / float64(stats.MessageCount)))
		stats.EstimatedTimeSpent = int(math.Round(memberTimeSpent[member]))
		stats.TopEmojis = memberEmojiCounts[member].topEmojis(5)
		stats.TopWords = memberWordCounts[member].top(5)
		memberStats[member] = stats
	}

	return &domain.ChatAnalytics{
		GroupStats: domain.GroupStats{
			TotalMessages: len(messages),
			TopEmojis:     groupEmojiCounts.topEmojis(10),
			LaughCount:    totalLaughs,
			TopWords:      groupWordCounts.top(10),
			Timeline:      timeline,
		},
		MemberStats: memberStats,
	}
}

// extractWords выделяет значимые слова: нижний регистр, пунктуация
// заменяется пробелами, отбрасываются токены короче трех символов,
// чисто числовые токены и стоп-слова.
func extractWords(text string) []string {
	cleaned := nonWordRegexp.ReplaceAllString(strings.ToLower(text), " ")
	var words []string
	for _, word := range whitespaceRegexp.Split(cleaned, -1) {
		if len(word) <= 2 {
			continue
		}
		if numericRegexp.MatchString(word) {
			continue
		}
		if stopWords[word] {
			continue
		}
		words = append(words, word)
	}
	return words
}

// estimateTimeSpent оценивает минуты, потраченные на сообщение:
// время прочтения плюс время набора.
func estimateTimeSpent(message string) float64 {
	wordCount := float64(len(whitespaceRegexp.Split(message, -1)))
	return wordCount/readingSpeedWPM + wordCount/typingSpeedWPM
}
