package exporter

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"
)

// ExcelExporter сохраняет агрегированную статистику в книгу Excel:
// лист с групповой сводкой и лист с построчной статистикой участников.
type ExcelExporter struct {
	filePath string
}

// NewExcelExporter создает новый экземпляр ExcelExporter.
// Если filePath пустой, имя файла генерируется по текущему времени.
func NewExcelExporter(filePath string) ports.Exporter {
	if filePath == "" {
		filePath = fmt.Sprintf("chat_analytics_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	}
	return &ExcelExporter{filePath: filePath}
}

// Export записывает статистику в файл Excel.
func (e *ExcelExporter) Export(analytics *domain.ChatAnalytics) error {
	if analytics == nil {
		return fmt.Errorf("статистика не задана")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := e.writeGroupSheet(f, &analytics.GroupStats); err != nil {
		return err
	}
	if err := e.writeMembersSheet(f, analytics.MemberStats); err != nil {
		return err
	}

	// Удаление листа по умолчанию
	f.DeleteSheet("Sheet1")

	if err := f.SaveAs(e.filePath); err != nil {
		return fmt.Errorf("не удалось сохранить файл %s: %w", e.filePath, err)
	}
	return nil
}

func (e *ExcelExporter) writeGroupSheet(f *excelize.File, group *domain.GroupStats) error {
	sheetName := "Группа"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("не удалось создать лист %s: %w", sheetName, err)
	}
	f.SetActiveSheet(index)

	rows := [][]interface{}{
		{"Всего сообщений", group.TotalMessages},
		{"Количество смеха", group.LaughCount},
		{"Топ эмодзи", formatEmojis(group.TopEmojis)},
		{"Топ слов", formatWords(group.TopWords)},
	}
	for i, row := range rows {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", i+1), row[0])
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", i+1), row[1])
	}

	// Распределение по часам суток
	f.SetCellValue(sheetName, "A6", "Час")
	f.SetCellValue(sheetName, "B6", "Сообщений")
	for hour := 0; hour < 24; hour++ {
		row := 7 + hour
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), hour)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), group.Timeline.Hourly[hour])
	}

	// Распределение по дням недели
	f.SetCellValue(sheetName, "D6", "День недели")
	f.SetCellValue(sheetName, "E6", "Сообщений")
	days := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	for i, day := range days {
		row := 7 + i
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), day)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), group.Timeline.Daily[day])
	}

	return nil
}

func (e *ExcelExporter) writeMembersSheet(f *excelize.File, members map[string]domain.MemberStats) error {
	sheetName := "Участники"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("не удалось создать лист %s: %w", sheetName, err)
	}

	headers := []string{"Участник", "Сообщений", "Топ эмодзи", "Топ слов", "Средняя длина", "Время в чате (мин)"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, h)
	}

	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		stats := members[name]
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), name)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), stats.MessageCount)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), formatEmojis(stats.TopEmojis))
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), formatWords(stats.TopWords))
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), stats.AverageMessageLength)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), stats.EstimatedTimeSpent)
	}

	return nil
}
