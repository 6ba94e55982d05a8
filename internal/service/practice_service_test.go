package service

import (
	"context"
	"errors"
	"testing"

	"chengyu-bot-go/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantText   string
		correct    bool
		determined bool
	}{
		{"correct marker", "✅ Верно! [correct]", "✅ Верно!", true, true},
		{"incorrect marker", "❌ Не совсем верно. Пояснение.\n[incorrect]\n", "❌ Не совсем верно. Пояснение.", false, true},
		{"trailing spaces", "✅ Верно!   [correct]  \n\t", "✅ Верно!", true, true},
		{"no marker", "Хороший ответ", "Хороший ответ\n" + undeterminedNotice, false, false},
		{"marker in the middle", "[correct] но нет", "[correct] но нет\n" + undeterminedNotice, false, false},
		{"marker only", "[correct]", emptyVerdictText, true, true},
		{"empty reply", "", emptyVerdictText + "\n" + undeterminedNotice, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseVerdict(tt.raw)
			assert.Equal(t, tt.wantText, got.Text)
			assert.Equal(t, tt.correct, got.IsCorrect)
			assert.Equal(t, tt.determined, got.Determined)
		})
	}
}

func TestPracticeService_GradeAnswer(t *testing.T) {
	f := newFixture(t, testIdioms...)
	ctx := context.Background()
	f.createUser(t, "u1", "09:00")

	task, err := f.practice.NewTask(ctx, PracticeTranslate)
	require.NoError(t, err)

	f.provider.AddResponse(llm.MockResponse{Content: "✅ Верно! [correct]"})
	result, err := f.practice.GradeAnswer(ctx, "u1", task, "перевод")
	require.NoError(t, err)
	assert.True(t, result.IsCorrect)
	assert.Equal(t, "✅ Верно!", result.Text)

	f.provider.AddResponse(llm.MockResponse{Content: "Не понял"})
	result, err = f.practice.GradeAnswer(ctx, "u1", task, "???")
	require.NoError(t, err)
	assert.False(t, result.IsCorrect)
	assert.Contains(t, result.Text, undeterminedNotice)

	user, err := f.userRepo.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.PracticeCorrect)
	assert.Equal(t, int64(2), user.PracticeTotal)

	last, ok := f.provider.LastCall()
	require.True(t, ok)
	assert.Contains(t, last.Messages[0].Content, task.Idiom.Text)
	assert.Contains(t, last.Messages[0].Content, task.Idiom.Pinyin)
	assert.Contains(t, last.Messages[0].Content, "'???'")
	assert.Contains(t, last.Messages[0].Content, "перевод")
}

func TestPracticeService_ModelFailureLeavesCounters(t *testing.T) {
	f := newFixture(t, testIdioms...)
	ctx := context.Background()
	f.createUser(t, "u1", "09:00")

	task, err := f.practice.NewTask(ctx, PracticeExample)
	require.NoError(t, err)

	f.provider.AddResponse(llm.MockResponse{Err: errors.New("timeout")})
	_, err = f.practice.GradeAnswer(ctx, "u1", task, "пример")
	assert.ErrorIs(t, err, ErrServiceUnavailable)

	user, err := f.userRepo.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, user.PracticeTotal)
	assert.Zero(t, user.PracticeCorrect)
}

func TestPracticeService_NewTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.practice.NewTask(ctx, PracticeTranslate)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.practice.NewTask(ctx, PracticeKind("dictation"))
	assert.ErrorIs(t, err, ErrValidation)
}
