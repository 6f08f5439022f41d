package core

import (
	"context"
	"net/http"
	"strings"

	"github.com/RishavRaj625/Personalized-Patient-Education-System/internal/llm"
	"github.com/RishavRaj625/Personalized-Patient-Education-System/internal/store"
	"github.com/RishavRaj625/Personalized-Patient-Education-System/pkg"
)

// InjuryRequest is an injury photo with the patient's description of it.
// ImageMIME is sniffed from the image when empty.
type InjuryRequest struct {
	Description string
	PatientName string
	PatientAge  int
	Image       []byte
	ImageMIME   string
}

// InjuryService analyses injury photos.
type InjuryService struct {
	LLM   llm.Client
	Store *store.Store
}

// NewInjuryService constructs a new InjuryService.
func NewInjuryService(client llm.Client, st *store.Store) *InjuryService {
	return &InjuryService{LLM: client, Store: st}
}

// Analyze sends the photo and description to the generation service and
// stores the resulting assessment.
func (s *InjuryService) Analyze(ctx context.Context, req InjuryRequest) (*pkg.InjuryAssessment, error) {
	var missing []string
	if strings.TrimSpace(req.Description) == "" {
		missing = append(missing, "description")
	}
	mime := req.ImageMIME
	if len(req.Image) == 0 {
		missing = append(missing, "image")
	} else {
		if mime == "" || mime == "application/octet-stream" {
			mime = http.DetectContentType(req.Image)
		}
		if !strings.HasPrefix(mime, "image/") {
			missing = append(missing, "image")
		}
	}
	if len(missing) > 0 {
		return nil, &store.ValidationError{Fields: missing}
	}

	analysis, err := s.LLM.GenerateWithImage(ctx, InjuryPrompt(req.Description), req.Image, mime)
	if err != nil {
		return nil, err
	}

	return s.Store.AddInjuryAssessment(ctx, pkg.InjuryAssessment{
		PatientName: req.PatientName,
		PatientAge:  req.PatientAge,
		Description: req.Description,
		ImageMIME:   mime,
		Analysis:    analysis,
	})
}

// List returns stored injury assessments.
func (s *InjuryService) List() []pkg.InjuryAssessment {
	return s.Store.ListInjuryAssessments()
}
