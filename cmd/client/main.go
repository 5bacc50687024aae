package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"whatsapp-chat-analyzer/internal/adapters/exporter"
	"whatsapp-chat-analyzer/internal/domain"
)

type TaskStatusResponse struct {
	TaskID       string `json:"task_id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

func main() {
	var (
		serverAddr  string
		members     string
		chatContext string
		rangeStart  int
		rangeEnd    int
		excelPath   string
	)
	flag.StringVar(&serverAddr, "server", "http://localhost:8080", "Server address")
	flag.StringVar(&members, "members", "", "Comma-separated list of members to include (default: all)")
	flag.StringVar(&chatContext, "context", "", "Free-form context passed to the analysis")
	flag.IntVar(&rangeStart, "start", 0, "First message index of the selection")
	flag.IntVar(&rangeEnd, "end", 0, "Message index past the end of the selection (0 = till the end)")
	flag.StringVar(&excelPath, "excel", "", "Also write analytics to the given .xlsx file")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("Exactly one export file is required. Usage: client [flags] <chat.txt|chat.zip>")
	}
	filePath := flag.Arg(0)

	// Создание многочастной формы для загрузки файла
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	file, err := os.Open(filePath)
	if err != nil {
		log.Fatalf("Не удалось открыть файл %s: %v", filePath, err)
	}

	part, err := writer.CreateFormFile("chatFile", filepath.Base(filePath))
	if err != nil {
		_ = file.Close()
		log.Fatalf("Не удалось создать файл формы для %s: %v", filePath, err)
	}
	if _, err = io.Copy(part, file); err != nil {
		_ = file.Close()
		log.Fatalf("Не удалось записать данные файла %s: %v", filePath, err)
	}
	if err := file.Close(); err != nil {
		log.Printf("Warning: failed to close file %s: %v", filePath, err)
	}

	_ = writer.WriteField("platform", "whatsapp")
	_ = writer.WriteField("context", chatContext)
	if members != "" {
		memberList := splitMembers(members)
		encoded, _ := json.Marshal(memberList)
		_ = writer.WriteField("members", string(encoded))
	}
	if rangeStart > 0 {
		_ = writer.WriteField("range_start", fmt.Sprintf("%d", rangeStart))
	}
	if rangeEnd > 0 {
		_ = writer.WriteField("range_end", fmt.Sprintf("%d", rangeEnd))
	}

	// Важно закрыть writer, чтобы записать завершающую границу
	if err := writer.Close(); err != nil {
		log.Fatalf("Не удалось закрыть multipart writer: %v", err)
	}

	// Отправка файла на сервер
	resp, err := http.Post(serverAddr+"/api/v1/chats", writer.FormDataContentType(), &body)
	if err != nil {
		log.Fatalf("Не удалось отправить запрос: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		log.Fatalf("Сервер вернул статус: %d", resp.StatusCode)
	}

	// Разбор идентификатора задачи из ответа
	var taskResp map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&taskResp); err != nil {
		log.Fatalf("Не удалось декодировать ответ: %v", err)
	}
	taskID := taskResp["task_id"]
	if taskID == "" {
		log.Fatal("Идентификатор задачи не найден в ответе")
	}

	fmt.Printf("Задача создана с идентификатором: %s\n", taskID)

	// Опрос о статусе задачи
	for {
		time.Sleep(5 * time.Second) // Ожидание 5 секунд перед следующим опросом

		resp, err := http.Get(fmt.Sprintf("%s/api/v1/tasks/%s", serverAddr, taskID))
		if err != nil {
			log.Fatalf("Не удалось опросить статус задачи: %v", err)
		}

		if resp.StatusCode != http.StatusOK {
			log.Fatalf("Сервер вернул статус: %d", resp.StatusCode)
		}

		var statusResp TaskStatusResponse
		if err := json.NewDecoder(resp.Body).Decode(&statusResp); err != nil {
			log.Fatalf("Не удалось декодировать ответ статуса: %v", err)
		}
		resp.Body.Close()

		fmt.Printf("Статус задачи: %s\n", statusResp.Status)

		switch statusResp.Status {
		case "completed":
			fmt.Println("Задача выполнена успешно.")
			result := fetchResult(serverAddr, taskID)
			printResult(result, excelPath)
			return
		case "failed":
			fmt.Printf("Задача не выполнена: %s\n", statusResp.ErrorMessage)
			os.Exit(1)
		case "pending", "processing":
			// Продолжение опроса
			continue
		default:
			log.Fatalf("Неизвестный статус задачи: %s", statusResp.Status)
		}
	}
}

// fetchResult получает и декодирует результат завершенной задачи.
func fetchResult(serverAddr, taskID string) *domain.ChatResult {
	resp, err := http.Get(fmt.Sprintf("%s/api/v1/tasks/%s/result", serverAddr, taskID))
	if err != nil {
		log.Fatalf("Не удалось получить результат: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Сервер вернул статус для результата: %d", resp.StatusCode)
	}

	var result domain.ChatResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Fatalf("Не удалось декодировать результат: %v", err)
	}
	return &result
}

// printResult выводит статистику в консоль и, при необходимости, в Excel.
func printResult(result *domain.ChatResult, excelPath string) {
	console := exporter.NewConsoleExporter(os.Stdout)
	if err := console.Export(&result.Analytics); err != nil {
		log.Fatalf("Не удалось вывести статистику: %v", err)
	}

	if result.Analysis != nil {
		fmt.Printf("\nАтмосфера группы: %s\n", result.Analysis.GroupVibe)
		for _, award := range result.Analysis.Awards {
			fmt.Printf("Номинация %q: %s (%s)\n", award.Title, award.Recipient, award.Reason)
		}
	}

	if excelPath != "" {
		excel := exporter.NewExcelExporter(excelPath)
		if err := excel.Export(&result.Analytics); err != nil {
			log.Fatalf("Не удалось сохранить Excel-файл: %v", err)
		}
		fmt.Printf("Статистика сохранена в %s\n", excelPath)
	}
}

// splitMembers разбирает список участников, разделенных запятыми.
func splitMembers(raw string) []string {
	var members []string
	for _, m := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(m)
		if trimmed != "" {
			members = append(members, trimmed)
		}
	}
	return members
}
