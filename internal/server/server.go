package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"whatsapp-chat-analyzer/internal/cache"
	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/pkg/config"
	"whatsapp-chat-analyzer/internal/server/usecase"
)

// ChatProcessor определяет интерфейс для варианта использования, который обрабатывает чаты.
type ChatProcessor interface {
	ProcessChat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResult, error)
	Preview(text string) (*domain.ChatPreview, error)
}

// Server представляет HTTP-сервер
type Server struct {
	HTTPServer *http.Server
	cfg        *config.Config
	taskStore  *TaskStore
	cacheStore *cache.CacheStore
	processor  ChatProcessor
}

// New создает новый экземпляр Server
func New(cfg *config.Config, processor ChatProcessor, taskStore *TaskStore, cacheStore *cache.CacheStore) (*Server, error) {
	chiRouter := chi.NewRouter()

	// Промежуточное ПО
	chiRouter.Use(middleware.Logger)
	chiRouter.Use(middleware.Recoverer)

	s := &Server{
		cfg:        cfg,
		taskStore:  taskStore,
		cacheStore: cacheStore,
		processor:  processor,
	}

	// Конечная точка для проверки работоспособности
	chiRouter.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
		})
	})

	// Маршруты API
	chiRouter.Route("/api/v1", func(r chi.Router) {
		// Конечная точка для запуска новой задачи анализа переписки
		r.Post("/chats", s.handleCreateChat)

		// Конечная точка для синхронного предпросмотра экспорта
		r.Post("/chats/preview", s.handlePreviewChat)

		// Конечная точка для проверки статуса задачи
		r.Get("/tasks/{taskID}", s.handleTaskStatus)

		// Конечная точка для получения результата задачи
		r.Get("/tasks/{taskID}/result", s.handleTaskResult)
	})

	s.HTTPServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      chiRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// StartCleanup запускает тикеры очистки просроченных задач и элементов кеша.
// Тикеры останавливаются отменой переданного контекста.
func (s *Server) StartCleanup(ctx context.Context) {
	s.taskStore.StartCleanupTicker(ctx, config.DefaultCleanupInterval)
	s.cacheStore.StartCleanupTicker(ctx, config.DefaultCleanupInterval)
}

// handleCreateChat принимает мультипарт-форму с файлом экспорта и параметрами
// выборки, создает задачу и запускает обработку в горутине.
func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	// Разбор мультипарт-формы
	maxUpload := int64(s.cfg.Server.MaxUploadSizeMB) << 20
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		http.Error(w, "Не удалось разобрать форму", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("chatFile")
	if err != nil {
		http.Error(w, "Не удалось получить файл из формы", http.StatusBadRequest)
		return
	}
	defer file.Close()

	req, err := parseChatRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Генерация уникального идентификатора задачи
	taskID := uuid.NewString()

	// Создание временного файла для хранения загруженных данных
	tempFilePath := filepath.Join(os.TempDir(), fmt.Sprintf("chat_%s.txt", taskID))

	out, err := os.Create(tempFilePath)
	if err != nil {
		http.Error(w, "Не удалось создать временный файл", http.StatusInternalServerError)
		return
	}
	defer out.Close()

	if _, err = io.Copy(out, file); err != nil {
		http.Error(w, "Не удалось сохранить загруженный файл", http.StatusInternalServerError)
		return
	}
	req.FilePath = tempFilePath

	// Создание задачи в хранилище
	s.taskStore.CreateTask(taskID, config.DefaultTaskTTL)

	// Запуск обработки в горутине
	go func() {
		// Обновление статуса до "в обработке"
		s.taskStore.UpdateTaskStatus(taskID, TaskStatusProcessing)

		// Создание контекста для задачи с таймаутом из конфигурации.
		taskCtx := context.Background()
		if s.cfg.Processing.TaskTimeoutSeconds > 0 {
			var cancel context.CancelFunc
			taskCtx, cancel = context.WithTimeout(context.Background(), s.cfg.TaskTimeout())
			defer cancel()
		}

		result, err := s.processor.ProcessChat(taskCtx, req)
		// Очистка временного файла независимо от исхода
		os.Remove(tempFilePath)
		if err != nil {
			slog.Error("Обработка задачи завершилась с ошибкой", "task_id", taskID, "error", err)
			s.taskStore.UpdateTaskError(taskID, err.Error())
			return
		}

		// Обновление задачи с результатом
		s.taskStore.UpdateTaskResult(taskID, result)
	}()

	// Возврат идентификатора задачи
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"task_id": taskID})
}

// handlePreviewChat синхронно проверяет формат и возвращает метаданные
// разбора вместе со списком участников.
func (s *Server) handlePreviewChat(w http.ResponseWriter, r *http.Request) {
	maxUpload := int64(s.cfg.Server.MaxUploadSizeMB) << 20
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		http.Error(w, "Не удалось разобрать форму", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("chatFile")
	if err != nil {
		http.Error(w, "Не удалось получить файл из формы", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUpload))
	if err != nil {
		http.Error(w, "Не удалось прочитать загруженный файл", http.StatusInternalServerError)
		return
	}

	preview, err := s.processor.Preview(string(data))
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidFormat) || errors.Is(err, usecase.ErrNoMessages) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "Не удалось разобрать файл", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(preview)
}

// handleTaskStatus возвращает статус задачи.
func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	task, err := s.taskStore.GetTask(taskID)
	if err != nil {
		http.Error(w, "Задача не найдена", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"task_id":       task.ID,
		"status":        task.Status,
		"error_message": task.ErrorMessage,
	})
}

// handleTaskResult возвращает результат завершенной задачи.
func (s *Server) handleTaskResult(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	task, err := s.taskStore.GetTask(taskID)
	if err != nil {
		http.Error(w, "Задача не найдена", http.StatusNotFound)
		return
	}

	if task.Status != TaskStatusCompleted {
		http.Error(w, "Задача не завершена", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(task.Result)
}

// parseChatRequest извлекает параметры выборки из полей мультипарт-формы.
func parseChatRequest(r *http.Request) (domain.ChatRequest, error) {
	req := domain.ChatRequest{
		Platform:         r.FormValue("platform"),
		ConversationType: r.FormValue("conversationType"),
		Context:          r.FormValue("context"),
	}

	if membersRaw := r.FormValue("members"); membersRaw != "" {
		if err := json.Unmarshal([]byte(membersRaw), &req.Members); err != nil {
			return req, fmt.Errorf("недопустимое поле members: ожидается JSON-массив строк")
		}
	}

	var err error
	if startRaw := r.FormValue("range_start"); startRaw != "" {
		if req.RangeStart, err = strconv.Atoi(startRaw); err != nil {
			return req, fmt.Errorf("недопустимое поле range_start")
		}
	}
	if endRaw := r.FormValue("range_end"); endRaw != "" {
		if req.RangeEnd, err = strconv.Atoi(endRaw); err != nil {
			return req, fmt.Errorf("недопустимое поле range_end")
		}
	}

	return req, nil
}

// ListenAndServe запускает HTTP-сервер
func (s *Server) ListenAndServe() error {
	return s.HTTPServer.ListenAndServe()
}

// Shutdown корректно завершает работу HTTP-сервера
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Завершение работы HTTP-сервера")
	return s.HTTPServer.Shutdown(ctx)
}
