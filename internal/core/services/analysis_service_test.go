package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLLMClient struct {
	mock.Mock
}

func (m *mockLLMClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	return args.String(0), args.Error(1)
}

const validAnalysisJSON = `{
	"group_vibe": "chaotic good",
	"members": {
		"Alice": {"red_flag_score": 10, "humor_score": 80, "cringe_score": 5, "summary": "the funny one"}
	},
	"awards": [{"title": "Meme Lord", "recipient": "Alice", "reason": "relentless memes"}],
	"memorable_moments": ["the pizza incident"]
}`

func TestAnalysisService(t *testing.T) {
	t.Run("Корректный JSON разбирается с первой попытки", func(t *testing.T) {
		client := new(mockLLMClient)
		client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
			Return(validAnalysisJSON, nil).Once()

		svc := NewAnalysisService(client)
		analysis, err := svc.Analyze(context.Background(), "transcript", []string{"Alice"})
		require.NoError(t, err)

		assert.Equal(t, "chaotic good", analysis.GroupVibe)
		assert.Equal(t, 80, analysis.Members["Alice"].HumorScore)
		assert.Len(t, analysis.Awards, 1)
		assert.Equal(t, []string{"the pizza incident"}, analysis.MemorableMoments)
		client.AssertExpectations(t)
	})

	t.Run("Обрамление ```json срезается перед разбором", func(t *testing.T) {
		client := new(mockLLMClient)
		client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
			Return("```json\n"+validAnalysisJSON+"\n```", nil).Once()

		svc := NewAnalysisService(client)
		analysis, err := svc.Analyze(context.Background(), "transcript", []string{"Alice"})
		require.NoError(t, err)
		assert.Equal(t, "chaotic good", analysis.GroupVibe)
	})

	t.Run("Некорректный JSON вызывает повторную попытку", func(t *testing.T) {
		client := new(mockLLMClient)
		client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
			Return("not json at all", nil).Once()
		client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
			Return(validAnalysisJSON, nil).Once()

		svc := NewAnalysisService(client, WithRetryPause(time.Millisecond))
		analysis, err := svc.Analyze(context.Background(), "transcript", []string{"Alice"})
		require.NoError(t, err)
		assert.Equal(t, "chaotic good", analysis.GroupVibe)
		client.AssertExpectations(t)
	})

	t.Run("Ответ без оценок участников считается некорректным", func(t *testing.T) {
		client := new(mockLLMClient)
		client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
			Return(`{"group_vibe": "calm", "members": {}}`, nil)

		svc := NewAnalysisService(client, WithMaxRetries(2), WithRetryPause(time.Millisecond))
		_, err := svc.Analyze(context.Background(), "transcript", []string{"Alice"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidAnalysis)
	})

	t.Run("Попытки исчерпаны: возвращается последняя ошибка", func(t *testing.T) {
		client := new(mockLLMClient)
		client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("api unavailable")).Times(2)

		svc := NewAnalysisService(client, WithMaxRetries(2), WithRetryPause(time.Millisecond))
		_, err := svc.Analyze(context.Background(), "transcript", []string{"Alice"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "api unavailable")
		client.AssertExpectations(t)
	})

	t.Run("Отмена контекста прерывает повторные попытки", func(t *testing.T) {
		client := new(mockLLMClient)
		client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("api unavailable"))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		svc := NewAnalysisService(client, WithMaxRetries(3), WithRetryPause(time.Hour))
		_, err := svc.Analyze(ctx, "transcript", []string{"Alice"})
		require.Error(t, err)
	})

	t.Run("Участники попадают в пользовательский промпт", func(t *testing.T) {
		client := new(mockLLMClient)
		client.On("Complete", mock.Anything, mock.Anything,
			mock.MatchedBy(func(prompt string) bool {
				return strings.HasPrefix(prompt, "Participants: Alice, Bob")
			})).Return(validAnalysisJSON, nil).Once()

		svc := NewAnalysisService(client)
		_, err := svc.Analyze(context.Background(), "transcript", []string{"Alice", "Bob"})
		require.NoError(t, err)
		client.AssertExpectations(t)
	})
}

func TestStripJSONFence(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"Без обрамления", `{"a": 1}`, `{"a": 1}`},
		{"С обрамлением json", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"С пробелами вокруг", "  {\"a\": 1}  ", `{"a": 1}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stripJSONFence(tc.in))
		})
	}
}
