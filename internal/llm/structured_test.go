package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *mockClient) GenerateWithImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	args := m.Called(ctx, prompt, image, mimeType)
	return args.String(0), args.Error(1)
}

type quiz struct {
	Questions []struct {
		Text          string `json:"text"`
		CorrectAnswer string `json:"correct_answer"`
	} `json:"questions"`
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain object", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n[1,2]\n```", `[1,2]`},
		{"single line fence", "```json{\"a\":1}```", `{"a":1}`},
		{"surrounding prose", "Here is the quiz:\n{\"a\":{\"b\":2}}\nGood luck!", `{"a":{"b":2}}`},
		{"prose and fence", "Sure!\n```json\n{\"a\":1}\n```", `{"a":1}`},
		{"array in prose", "Result: [{\"a\":1}] done", `[{"a":1}]`},
		{"bracketed aside before object", "Here is your quiz [5 questions]:\n{\"questions\":[{\"text\":\"Q1\"}]}", `{"questions":[{"text":"Q1"}]}`},
		{"braced aside before fence", "Note: {see below}\n```json\n{\"questions\":[]}\n```", `{"questions":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, got)
		})
	}
}

func TestExtractJSON_Failures(t *testing.T) {
	for _, in := range []string{
		"",
		"I could not create a quiz for this condition.",
		"{ this is not json }",
		"} backwards {",
	} {
		_, err := ExtractJSON(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestGenerateStructured(t *testing.T) {
	client := new(mockClient)
	client.On("GenerateText", mock.Anything, "make a quiz").
		Return("```json\n{\"questions\":[{\"text\":\"Q1\",\"correct_answer\":\"B\"}]}\n```", nil)

	var out quiz
	raw, err := GenerateStructured(context.Background(), client, "make a quiz", &out)
	require.NoError(t, err)
	assert.Contains(t, raw, "```json")
	require.Len(t, out.Questions, 1)
	assert.Equal(t, "B", out.Questions[0].CorrectAnswer)
	client.AssertExpectations(t)
}

func TestGenerateStructured_Prose(t *testing.T) {
	raw := "I'm sorry, I can't help with that."
	client := new(mockClient)
	client.On("GenerateText", mock.Anything, mock.Anything).Return(raw, nil)

	var out quiz
	_, err := GenerateStructured(context.Background(), client, "make a quiz", &out)

	var malformed *MalformedResponseError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, raw, malformed.Raw)
}

func TestGenerateStructured_WrongShape(t *testing.T) {
	client := new(mockClient)
	client.On("GenerateText", mock.Anything, mock.Anything).Return(`{"questions": "none"}`, nil)

	var out quiz
	_, err := GenerateStructured(context.Background(), client, "p", &out)

	var malformed *MalformedResponseError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, `{"questions": "none"}`, malformed.Raw)
}

func TestGenerateStructured_GenerationError(t *testing.T) {
	genErr := &GenerationError{Provider: "test", Reason: ReasonQuota}
	client := new(mockClient)
	client.On("GenerateText", mock.Anything, mock.Anything).Return("", genErr)

	var out quiz
	_, err := GenerateStructured(context.Background(), client, "p", &out)
	assert.ErrorIs(t, err, genErr)

	var malformed *MalformedResponseError
	assert.False(t, errors.As(err, &malformed))
}
