package triage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validResponse = `{
	"issue_type": "reservation",
	"priority": "normal",
	"sentiment": "neutral",
	"requires_human": false,
	"summary": "Customer asks about their reservation status."
}`

func TestClassifyValid(t *testing.T) {
	mock := &MockProvider{Responses: []string{validResponse}}
	c := NewClassifier(mock)

	got, err := c.Classify(context.Background(), "Where is my reservation?", nil)
	require.NoError(t, err)

	assert.Equal(t, IssueReservation, got.IssueType)
	assert.Equal(t, PriorityNormal, got.Priority)
	assert.Equal(t, SentimentNeutral, got.Sentiment)
	assert.False(t, got.RequiresHuman)
	assert.NotEmpty(t, got.Summary)
}

func TestClassifyStripsCodeFence(t *testing.T) {
	mock := &MockProvider{Responses: []string{"```json\n" + validResponse + "\n```"}}
	c := NewClassifier(mock)

	got, err := c.Classify(context.Background(), "Where is my reservation?", nil)
	require.NoError(t, err)
	assert.Equal(t, IssueReservation, got.IssueType)
}

func TestClassifyHistoryInPrompt(t *testing.T) {
	mock := &MockProvider{Responses: []string{validResponse}}
	c := NewClassifier(mock)

	history := []string{"I booked the jazz night", "It was for Friday"}
	_, err := c.Classify(context.Background(), "Can you check it?", history)
	require.NoError(t, err)

	require.Len(t, mock.Calls, 1)
	assert.True(t, strings.Contains(mock.Calls[0], "jazz night"))
	assert.True(t, strings.Contains(mock.Calls[0], "Can you check it?"))
}

func TestClassifyFailures(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{name: "provider error", err: errors.New("inference backend down")},
		{name: "not json", response: "I think this is a reservation issue."},
		{name: "missing summary", response: `{"issue_type":"general","priority":"low","sentiment":"neutral","requires_human":false,"summary":""}`},
		{name: "unknown issue type", response: `{"issue_type":"weather","priority":"low","sentiment":"neutral","requires_human":false,"summary":"x"}`},
		{name: "unknown priority", response: `{"issue_type":"general","priority":"medium","sentiment":"neutral","requires_human":false,"summary":"x"}`},
		{name: "unknown sentiment", response: `{"issue_type":"general","priority":"low","sentiment":"angry","requires_human":false,"summary":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockProvider{
				Responses: []string{tt.response},
				Errors:    []error{tt.err},
			}
			c := NewClassifier(mock)

			got, err := c.Classify(context.Background(), "hello", nil)
			assert.Nil(t, got, "failed classification must not return a record")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrClassification)

			var cerr *ClassificationError
			assert.ErrorAs(t, err, &cerr)
		})
	}
}

func TestClassifyEmptyMessage(t *testing.T) {
	c := NewClassifier(&MockProvider{Responses: []string{validResponse}})
	_, err := c.Classify(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, ErrClassification)
}
