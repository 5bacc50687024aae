package source

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"whatsapp-chat-analyzer/internal/ports"
)

// FileSource реализует интерфейс DataSource для чтения экспорта из файла.
// WhatsApp отдает экспорт либо как .txt, либо как .zip с единственным
// текстовым файлом внутри; zip-контейнер разворачивается прозрачно.
type FileSource struct {
	filePath string
}

// NewFileSource создает новый экземпляр FileSource.
func NewFileSource(filePath string) ports.DataSource {
	return &FileSource{filePath: filePath}
}

// Fetch читает файл по указанному пути и возвращает его содержимое.
// Для .zip возвращается содержимое первого .txt файла внутри архива.
func (s *FileSource) Fetch() ([]byte, error) {
	if s.filePath == "" {
		return nil, fmt.Errorf("не указан путь к файлу")
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", s.filePath, err)
	}

	if strings.EqualFold(filepath.Ext(s.filePath), ".zip") {
		return extractChatFromZip(data)
	}

	return data, nil
}

// extractChatFromZip достает первый .txt файл из zip-архива.
func extractChatFromZip(data []byte) ([]byte, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть zip-архив: %w", err)
	}

	for _, file := range reader.File {
		if !strings.EqualFold(filepath.Ext(file.Name), ".txt") {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("не удалось открыть %s внутри архива: %w", file.Name, err)
		}
		content, err := io.ReadAll(rc)
		closeErr := rc.Close()
		if err != nil {
			return nil, fmt.Errorf("не удалось прочитать %s внутри архива: %w", file.Name, err)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("не удалось закрыть %s внутри архива: %w", file.Name, closeErr)
		}
		return content, nil
	}

	return nil, fmt.Errorf("в zip-архиве не найден .txt файл с экспортом")
}
