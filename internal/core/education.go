package core

import (
	"context"

	"github.com/RishavRaj625/Personalized-Patient-Education-System/internal/llm"
	"github.com/RishavRaj625/Personalized-Patient-Education-System/internal/store"
	"github.com/RishavRaj625/Personalized-Patient-Education-System/pkg"
)

// EducationService produces personalised education material.
type EducationService struct {
	LLM   llm.Client
	Store *store.Store
}

// NewEducationService constructs a new EducationService.
func NewEducationService(client llm.Client, st *store.Store) *EducationService {
	return &EducationService{LLM: client, Store: st}
}

// Generate creates and stores education material for the patient.  Nothing
// is stored when generation fails.
func (s *EducationService) Generate(ctx context.Context, patientID string) (*pkg.GeneratedMaterial, error) {
	patient, err := s.Store.Patient(patientID)
	if err != nil {
		return nil, err
	}

	content, err := s.LLM.GenerateText(ctx, EducationPrompt(patient))
	if err != nil {
		return nil, err
	}
	return s.Store.AddMaterial(ctx, patient, content)
}
