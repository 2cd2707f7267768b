package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "jobportal/internal/errors"
	"jobportal/internal/model"
)

func sampleQuestions() []model.Question {
	return []model.Question{
		{Prompt: "Capital of Maharashtra?", Options: []string{"Pune", "Mumbai", "Nagpur"}, Answer: ptr(1)},
		{Prompt: "2 + 2?", Options: []string{"3", "4"}, Answer: ptr(1)},
		{Prompt: "Largest planet?", Options: []string{"Jupiter", "Mars"}, Answer: ptr(0)},
	}
}

func TestMockTestService_CreateAndTake(t *testing.T) {
	p := newPortal()
	svc := NewMockTestService(p.store)
	ctx := context.Background()

	_, err := svc.Create(ctx, p.employer, MockTestInput{Title: ptr("GK"), DurationMinutes: ptr(10), Questions: sampleQuestions()})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	test, err := svc.Create(ctx, p.admin, MockTestInput{
		Title:           ptr("General Knowledge"),
		Category:        ptr("gk"),
		DurationMinutes: ptr(15),
		Questions:       sampleQuestions(),
	})
	require.NoError(t, err)
	assert.True(t, test.IsActive)

	listed, err := svc.List(ctx, p.student, "gk")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	for _, q := range listed[0].Questions {
		assert.Nil(t, q.Answer)
	}

	adminView, err := svc.Get(ctx, p.admin, test.ID)
	require.NoError(t, err)
	assert.NotNil(t, adminView.Questions[0].Answer)

	_, err = svc.Submit(ctx, p.student, test.ID, []int{1})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	result, err := svc.Submit(ctx, p.student, test.ID, []int{1, 0, -1})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Score)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, "General Knowledge", result.Title)

	_, err = svc.Submit(ctx, p.employer, test.ID, []int{1, 1, 0})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	results, err := svc.Results(ctx, p.student)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestMockTestService_FreeTierLimit(t *testing.T) {
	p := newPortal()
	svc := NewMockTestService(p.store)
	ctx := context.Background()

	test, err := svc.Create(ctx, p.admin, MockTestInput{Title: ptr("GK"), DurationMinutes: ptr(10), Questions: sampleQuestions()})
	require.NoError(t, err)

	for i := 0; i < FreeMockTestLimit; i++ {
		_, err := svc.Submit(ctx, p.student, test.ID, []int{1, 1, 0})
		require.NoError(t, err)
	}
	_, err = svc.Submit(ctx, p.student, test.ID, []int{1, 1, 0})
	assert.ErrorIs(t, err, apperrors.ErrLimitReached)
}

func TestMockTestService_DeleteHidesFromStudents(t *testing.T) {
	p := newPortal()
	svc := NewMockTestService(p.store)
	ctx := context.Background()

	test, err := svc.Create(ctx, p.admin, MockTestInput{Title: ptr("GK"), DurationMinutes: ptr(10), Questions: sampleQuestions()})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, p.admin, test.ID))

	_, err = svc.Get(ctx, p.student, test.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = svc.Submit(ctx, p.student, test.ID, []int{1, 1, 0})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	all, err := svc.List(ctx, p.admin, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestValidateMockTest(t *testing.T) {
	tests := []struct {
		name      string
		questions []model.Question
		duration  int
		valid     bool
	}{
		{name: "valid", questions: sampleQuestions(), duration: 10, valid: true},
		{name: "no questions", duration: 10},
		{name: "zero duration", questions: sampleQuestions()},
		{name: "single option", duration: 10, questions: []model.Question{{Prompt: "?", Options: []string{"a"}, Answer: ptr(0)}}},
		{name: "answer out of range", duration: 10, questions: []model.Question{{Prompt: "?", Options: []string{"a", "b"}, Answer: ptr(2)}}},
		{name: "missing answer", duration: 10, questions: []model.Question{{Prompt: "?", Options: []string{"a", "b"}}}},
		{name: "blank prompt", duration: 10, questions: []model.Question{{Prompt: " ", Options: []string{"a", "b"}, Answer: ptr(0)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test := &model.MockTest{Title: "T", DurationMinutes: tt.duration, Questions: tt.questions}
			err := validateMockTest(test)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
			}
		})
	}
}
