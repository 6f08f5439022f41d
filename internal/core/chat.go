package core

import (
	"context"
	"strings"

	"github.com/RishavRaj625/Personalized-Patient-Education-System/internal/llm"
	"github.com/RishavRaj625/Personalized-Patient-Education-System/internal/store"
	"github.com/RishavRaj625/Personalized-Patient-Education-System/pkg"
)

// ChatService answers patient questions using the patient's profile as
// context.  Each call blocks on the generation service.
type ChatService struct {
	LLM   llm.Client
	Store *store.Store
}

// NewChatService constructs a new ChatService.
func NewChatService(client llm.Client, st *store.Store) *ChatService {
	return &ChatService{LLM: client, Store: st}
}

// Ask generates a reply to question for the patient.  The question and the
// reply are appended to the chat history only once the reply exists; a
// failed generation leaves the history untouched.
func (s *ChatService) Ask(ctx context.Context, patientID, question string) ([]pkg.ChatMessage, error) {
	if strings.TrimSpace(question) == "" {
		return nil, &store.ValidationError{Fields: []string{"question"}}
	}
	patient, err := s.Store.Patient(patientID)
	if err != nil {
		return nil, err
	}

	reply, err := s.LLM.GenerateText(ctx, ChatPrompt(patient, question))
	if err != nil {
		return nil, err
	}
	return s.Store.AppendChatExchange(ctx, patientID, question, reply)
}

// History returns the patient's chat history.
func (s *ChatService) History(patientID string) ([]pkg.ChatMessage, error) {
	if _, err := s.Store.Patient(patientID); err != nil {
		return nil, err
	}
	return s.Store.ChatHistory(patientID), nil
}

// Clear empties the patient's chat history.
func (s *ChatService) Clear(ctx context.Context, patientID string) error {
	if _, err := s.Store.Patient(patientID); err != nil {
		return err
	}
	return s.Store.ClearChat(ctx, patientID)
}
