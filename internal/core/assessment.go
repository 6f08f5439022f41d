package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RishavRaj625/Personalized-Patient-Education-System/internal/llm"
	"github.com/RishavRaj625/Personalized-Patient-Education-System/internal/store"
	"github.com/RishavRaj625/Personalized-Patient-Education-System/pkg"
)

// AssessmentService generates knowledge quizzes and grades submissions.
type AssessmentService struct {
	LLM   llm.Client
	Store *store.Store
}

// NewAssessmentService constructs a new AssessmentService.
func NewAssessmentService(client llm.Client, st *store.Store) *AssessmentService {
	return &AssessmentService{LLM: client, Store: st}
}

type generatedQuiz struct {
	Questions []pkg.Question `json:"questions"`
}

// Generate asks for a fresh quiz and stores it, replacing the patient's
// previous quiz together with its responses and result.
func (s *AssessmentService) Generate(ctx context.Context, patientID string) (*pkg.KnowledgeAssessment, error) {
	patient, err := s.Store.Patient(patientID)
	if err != nil {
		return nil, err
	}

	var quiz generatedQuiz
	raw, err := llm.GenerateStructured(ctx, s.LLM, AssessmentPrompt(patient), &quiz)
	if err != nil {
		return nil, err
	}
	if err := checkQuiz(quiz.Questions); err != nil {
		return nil, &llm.MalformedResponseError{Raw: raw, Cause: err}
	}
	return s.Store.PutAssessment(ctx, patientID, quiz.Questions)
}

// Get returns the patient's current assessment.
func (s *AssessmentService) Get(patientID string) (pkg.KnowledgeAssessment, error) {
	return s.Store.Assessment(patientID)
}

// Submit grades answers against the patient's current quiz and stores the
// responses and the result.
func (s *AssessmentService) Submit(ctx context.Context, patientID string, answers map[int]string) (*pkg.AssessmentResult, error) {
	a, err := s.Store.Assessment(patientID)
	if err != nil {
		return nil, err
	}

	result := Score(a.Questions, answers)
	if err := s.Store.RecordAssessmentResult(ctx, patientID, answers, result); err != nil {
		return nil, err
	}
	return &result, nil
}

func checkQuiz(questions []pkg.Question) error {
	if len(questions) == 0 {
		return errors.New("quiz has no questions")
	}
	for i, q := range questions {
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("question %d has no text", i)
		}
		if len(q.Options) == 0 {
			return fmt.Errorf("question %d has no options", i)
		}
		if q.CorrectAnswer == "" {
			return fmt.Errorf("question %d has no correct answer", i)
		}
	}
	return nil
}
