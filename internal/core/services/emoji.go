package services

// Таблицы диапазонов приближают юникодные свойства Emoji_Presentation и
// Emoji: стандартная библиотека этих свойств не экспортирует. Эмодзи
// извлекаются по кодовым точкам: точка с эмодзи-представлением считается
// эмодзи сама по себе, прочие эмодзи-точки — только в паре с селектором
// вариации U+FE0F.

type runeRange struct {
	lo, hi rune
}

// emojiPresentationRanges — кодовые точки, отображаемые как эмодзи
// по умолчанию.
var emojiPresentationRanges = []runeRange{
	{0x231A, 0x231B}, // часы
	{0x23E9, 0x23EC},
	{0x23F0, 0x23F0},
	{0x23F3, 0x23F3},
	{0x25FD, 0x25FE},
	{0x2614, 0x2615},
	{0x2648, 0x2653}, // знаки зодиака
	{0x267F, 0x267F},
	{0x2693, 0x2693},
	{0x26A1, 0x26A1},
	{0x26AA, 0x26AB},
	{0x26BD, 0x26BE},
	{0x26C4, 0x26C5},
	{0x26CE, 0x26CE},
	{0x26D4, 0x26D4},
	{0x26EA, 0x26EA},
	{0x26F2, 0x26F3},
	{0x26F5, 0x26F5},
	{0x26FA, 0x26FA},
	{0x26FD, 0x26FD},
	{0x2705, 0x2705},
	{0x270A, 0x270B},
	{0x2728, 0x2728},
	{0x274C, 0x274C},
	{0x274E, 0x274E},
	{0x2753, 0x2755},
	{0x2757, 0x2757},
	{0x2795, 0x2797},
	{0x27B0, 0x27B0},
	{0x27BF, 0x27BF},
	{0x2B1B, 0x2B1C},
	{0x2B50, 0x2B50},
	{0x2B55, 0x2B55},
	{0x1F1E6, 0x1F1FF}, // региональные индикаторы
	{0x1F300, 0x1F5FF},
	{0x1F600, 0x1F64F}, // смайлики
	{0x1F680, 0x1F6FF},
	{0x1F7E0, 0x1F7EB},
	{0x1F90C, 0x1F9FF},
	{0x1FA70, 0x1FAFF},
}

// emojiRanges — кодовые точки со свойством Emoji, которым для
// эмодзи-представления нужен селектор вариации.
var emojiRanges = []runeRange{
	{0x00A9, 0x00A9}, // ©
	{0x00AE, 0x00AE}, // ®
	{0x203C, 0x203C},
	{0x2049, 0x2049},
	{0x2122, 0x2122},
	{0x2139, 0x2139},
	{0x2194, 0x2199},
	{0x21A9, 0x21AA},
	{0x2300, 0x23FF},
	{0x24C2, 0x24C2},
	{0x25AA, 0x25FE},
	{0x2600, 0x27BF},
	{0x2934, 0x2935},
	{0x2B05, 0x2B07},
	{0x3030, 0x3030},
	{0x303D, 0x303D},
	{0x3297, 0x3297},
	{0x3299, 0x3299},
}

const variationSelector = '\uFE0F'

func inRanges(r rune, ranges []runeRange) bool {
	for _, rr := range ranges {
		if r >= rr.lo && r <= rr.hi {
			return true
		}
	}
	return false
}

func isEmojiPresentation(r rune) bool {
	return inRanges(r, emojiPresentationRanges)
}

func isEmoji(r rune) bool {
	return isEmojiPresentation(r) || inRanges(r, emojiRanges)
}

// extractEmojis возвращает вхождения эмодзи в порядке появления.
// Каждая кодовая точка с эмодзи-представлением считается отдельным
// вхождением (модификаторы тона кожи и флаговые пары тоже), точки
// с текстовым представлением по умолчанию — только вместе с U+FE0F.
func extractEmojis(text string) []string {
	runes := []rune(text)
	var emojis []string
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if isEmojiPresentation(r) {
			emojis = append(emojis, string(r))
			continue
		}
		if isEmoji(r) && i+1 < len(runes) && runes[i+1] == variationSelector {
			emojis = append(emojis, string([]rune{r, variationSelector}))
			i++
		}
	}
	return emojis
}
