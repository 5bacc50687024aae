package services

import (
	"reflect"
	"testing"
)

func TestExtractEmojis(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []string
	}{
		{"Текст без эмодзи", "just plain text", nil},
		{"Одиночный смайлик", "hello 😂", []string{"😂"}},
		{"Повторы считаются по вхождениям", "😂😂 lol", []string{"😂", "😂"}},
		{"Порядок появления сохраняется", "🎉 party 🍕", []string{"🎉", "🍕"}},
		{"Сердце с селектором вариации", "love ❤️", []string{"❤️"}},
		{"Символ без селектора не извлекается", "temp ❤ only", nil},
		{"Флаговая пара дает два вхождения", "\U0001F1EB\U0001F1F7", []string{"🇫", "🇷"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := extractEmojis(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Ожидалось %v, получено %v", tc.want, got)
			}
		})
	}
}
