package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RishavRaj625/Personalized-Patient-Education-System/internal/logger"
	"github.com/RishavRaj625/Personalized-Patient-Education-System/pkg"
)

type failingBackend struct {
	readErr  error
	writeErr error
	data     []byte
}

func (b *failingBackend) Read(ctx context.Context) ([]byte, error) {
	if b.readErr != nil {
		return nil, b.readErr
	}
	return b.data, nil
}

func (b *failingBackend) Write(ctx context.Context, data []byte) error {
	if b.writeErr != nil {
		return b.writeErr
	}
	b.data = data
	return nil
}

func fixedClock() func() time.Time {
	t := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func setupTestStore(t *testing.T) (*Store, string) {
	path := filepath.Join(t.TempDir(), "patient_education_data.json")
	return New(NewFileBackend(path), WithClock(fixedClock())), path
}

func samplePatient(name, condition string) pkg.PatientInput {
	return pkg.PatientInput{
		Name:           name,
		Age:            54,
		Gender:         pkg.GenderFemale,
		EducationLevel: pkg.EducationCollege,
		Language:       pkg.LanguageEnglish,
		Condition:      condition,
		Treatment:      "Metformin and diet changes",
		Medications:    "Metformin 500mg twice daily",
		LearningStyle:  pkg.LearningVisual,
	}
}

func TestStore_CreatePatient(t *testing.T) {
	s, path := setupTestStore(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		p, err := s.CreatePatient(ctx, samplePatient(fmt.Sprintf("Patient %d", i), "Type 2 diabetes"))
		require.NoError(t, err)
		assert.NotEmpty(t, p.ID)
		assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true

		assert.Empty(t, s.ChatHistory(p.ID))
	}

	patients := s.ListPatients()
	require.Len(t, patients, 5)
	assert.Equal(t, "Patient 0", patients[0].Name)
	assert.Equal(t, "Patient 4", patients[4].Name)

	_, err := os.Stat(path)
	assert.NoError(t, err, "create should flush the document")
}

func TestStore_CreatePatient_Validation(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		input   pkg.PatientInput
		missing []string
	}{
		{"empty name", samplePatient("", "Asthma"), []string{"name"}},
		{"blank condition", samplePatient("Ana", "   "), []string{"condition"}},
		{"both", samplePatient("", ""), []string{"name", "condition"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := s.CreatePatient(ctx, tt.input)
			assert.Nil(t, p)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.missing, verr.Fields)
			assert.Empty(t, s.ListPatients())
		})
	}
}

func TestStore_Patient(t *testing.T) {
	s, _ := setupTestStore(t)
	p, err := s.CreatePatient(context.Background(), samplePatient("Ana", "Asthma"))
	require.NoError(t, err)

	got, err := s.Patient(p.ID)
	require.NoError(t, err)
	assert.Equal(t, *p, got)

	_, err = s.Patient("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Materials(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	ana, err := s.CreatePatient(ctx, samplePatient("Ana", "Asthma"))
	require.NoError(t, err)
	ben, err := s.CreatePatient(ctx, samplePatient("Ben", "Hypertension"))
	require.NoError(t, err)

	m1, err := s.AddMaterial(ctx, *ana, "Asthma basics")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, m1.PatientID)
	assert.Equal(t, "Ana", m1.PatientName)
	assert.Equal(t, "Asthma", m1.Condition)

	_, err = s.AddMaterial(ctx, *ben, "Blood pressure basics")
	require.NoError(t, err)

	assert.Len(t, s.ListMaterials(pkg.MaterialFilter{}), 2)
	byName := s.ListMaterials(pkg.MaterialFilter{PatientName: "Ben"})
	require.Len(t, byName, 1)
	assert.Equal(t, "Blood pressure basics", byName[0].Content)
	assert.Empty(t, s.ListMaterials(pkg.MaterialFilter{PatientName: "Ben", Condition: "Asthma"}))

	require.NoError(t, s.RemoveMaterial(ctx, m1.ID))
	remaining := s.ListMaterials(pkg.MaterialFilter{})
	require.Len(t, remaining, 1)
	assert.Equal(t, "Ben", remaining[0].PatientName)
}

func TestStore_RemoveMaterial_UnknownID(t *testing.T) {
	backend := &failingBackend{}
	s := New(backend, WithClock(fixedClock()))
	ctx := context.Background()

	p, err := s.CreatePatient(ctx, samplePatient("Ana", "Asthma"))
	require.NoError(t, err)
	_, err = s.AddMaterial(ctx, *p, "content")
	require.NoError(t, err)

	before := s.ListMaterials(pkg.MaterialFilter{})
	backend.writeErr = errors.New("should not be written")

	assert.NoError(t, s.RemoveMaterial(ctx, "nonexistent-id"))
	assert.Equal(t, before, s.ListMaterials(pkg.MaterialFilter{}))
}

func TestStore_Chat(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	_, err := s.AppendChatMessage(ctx, "p1", pkg.RoleUser, "hello")
	require.NoError(t, err)
	_, err = s.AppendChatMessage(ctx, "p1", pkg.RoleAssistant, "hi")
	require.NoError(t, err)

	history := s.ChatHistory("p1")
	require.Len(t, history, 2)
	assert.Equal(t, pkg.RoleUser, history[0].Role)
	assert.Equal(t, "hello", history[0].Content)
	assert.Equal(t, pkg.RoleAssistant, history[1].Role)
	assert.Equal(t, "hi", history[1].Content)
	assert.True(t, history[0].Timestamp.Before(history[1].Timestamp))

	pair, err := s.AppendChatExchange(ctx, "p1", "what now?", "rest")
	require.NoError(t, err)
	require.Len(t, pair, 2)
	assert.Len(t, s.ChatHistory("p1"), 4)

	require.NoError(t, s.ClearChat(ctx, "p1"))
	assert.Empty(t, s.ChatHistory("p1"))
	assert.NotNil(t, s.ChatHistory("p1"))
}

func TestStore_ChatHistory_LazyEntry(t *testing.T) {
	s, _ := setupTestStore(t)

	assert.Empty(t, s.ChatHistory("unknown"))
	_, ok := s.Snapshot().ChatHistory["unknown"]
	assert.True(t, ok)
}

func TestStore_Assessments(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Assessment("p1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.RecordAssessmentResult(ctx, "p1", nil, pkg.AssessmentResult{}), ErrNotFound)

	questions := []pkg.Question{{
		Text:          "What is asthma?",
		Options:       []string{"A", "B", "C", "D"},
		CorrectAnswer: "B",
		Explanation:   "Because.",
		Category:      "Basic condition information",
	}}
	a, err := s.PutAssessment(ctx, "p1", questions)
	require.NoError(t, err)
	assert.Nil(t, a.Results)
	assert.Empty(t, a.Responses)

	result := pkg.AssessmentResult{TotalQuestions: 1, CorrectAnswers: 1}
	require.NoError(t, s.RecordAssessmentResult(ctx, "p1", map[int]string{0: "B"}, result))

	stored, err := s.Assessment("p1")
	require.NoError(t, err)
	require.NotNil(t, stored.Results)
	assert.Equal(t, 1, stored.Results.CorrectAnswers)
	assert.Equal(t, "B", stored.Responses[0])

	// regenerating discards responses and result
	_, err = s.PutAssessment(ctx, "p1", questions)
	require.NoError(t, err)
	stored, err = s.Assessment("p1")
	require.NoError(t, err)
	assert.Nil(t, stored.Results)
	assert.Empty(t, stored.Responses)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s, path := setupTestStore(t)
	ctx := context.Background()

	ana, err := s.CreatePatient(ctx, samplePatient("Ana", "Asthma"))
	require.NoError(t, err)
	ben, err := s.CreatePatient(ctx, samplePatient("Ben", "Hypertension"))
	require.NoError(t, err)
	_, err = s.AddMaterial(ctx, *ana, "first")
	require.NoError(t, err)
	_, err = s.AddMaterial(ctx, *ben, "second")
	require.NoError(t, err)
	_, err = s.AppendChatExchange(ctx, ana.ID, "q", "a")
	require.NoError(t, err)
	_, err = s.PutAssessment(ctx, ben.ID, []pkg.Question{{Text: "q", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "a"}})
	require.NoError(t, err)
	_, err = s.AddInjuryAssessment(ctx, pkg.InjuryAssessment{Description: "scraped knee", ImageMIME: "image/jpeg", Analysis: "clean it"})
	require.NoError(t, err)

	loaded := New(NewFileBackend(path))
	require.NoError(t, loaded.Load(ctx))

	assert.Equal(t, s.Snapshot(), loaded.Snapshot())
}

func TestStore_Load_MissingDocument(t *testing.T) {
	s := New(NewFileBackend(filepath.Join(t.TempDir(), "absent.json")))
	require.NoError(t, s.Load(context.Background()))

	doc := s.Snapshot()
	assert.Empty(t, doc.Patients)
	assert.Empty(t, doc.Materials)
	assert.Empty(t, doc.ChatHistory)
}

func TestStore_Load_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := New(NewFileBackend(path))
	err := s.Load(context.Background())

	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "load", perr.Op)
}

func TestStore_Load_PartialDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	doc := `{"patients":[{"id":"p1","name":"Ana","condition":"Asthma"}],"materials":[],"chat_history":{"p1":[]}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	s := New(NewFileBackend(path))
	require.NoError(t, s.Load(context.Background()))

	assert.Len(t, s.ListPatients(), 1)
	_, err := s.Assessment("p1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, s.ListInjuryAssessments())
}

func TestStore_Save_Failure(t *testing.T) {
	backend := &failingBackend{writeErr: errors.New("disk full")}
	s := New(backend)

	_, err := s.CreatePatient(context.Background(), samplePatient("Ana", "Asthma"))

	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "save", perr.Op)
	assert.ErrorContains(t, err, "disk full")
	assert.Empty(t, s.ListPatients())
	assert.Empty(t, s.Snapshot().ChatHistory)
}

func TestStore_FlushFailure_RollsBack(t *testing.T) {
	backend := &failingBackend{}
	s := New(backend, WithClock(fixedClock()))
	ctx := context.Background()

	p, err := s.CreatePatient(ctx, samplePatient("Ana", "Asthma"))
	require.NoError(t, err)
	_, err = s.AppendChatMessage(ctx, p.ID, pkg.RoleUser, "first")
	require.NoError(t, err)
	before := s.Snapshot()

	backend.writeErr = errors.New("disk full")

	_, err = s.CreatePatient(ctx, samplePatient("Ben", "Gout"))
	assert.Error(t, err)
	_, err = s.AddMaterial(ctx, *p, "content")
	assert.Error(t, err)
	_, err = s.AppendChatMessage(ctx, p.ID, pkg.RoleAssistant, "reply")
	assert.Error(t, err)
	_, err = s.AppendChatExchange(ctx, p.ID, "q", "a")
	assert.Error(t, err)
	_, err = s.AppendChatExchange(ctx, "no-history-yet", "q", "a")
	assert.Error(t, err)
	_, err = s.AddInjuryAssessment(ctx, pkg.InjuryAssessment{Description: "cut"})
	assert.Error(t, err)

	assert.Equal(t, before, s.Snapshot())

	// a retry after recovery creates exactly one record
	backend.writeErr = nil
	_, err = s.CreatePatient(ctx, samplePatient("Ben", "Gout"))
	require.NoError(t, err)
	assert.Len(t, s.ListPatients(), 2)
}

func TestStore_LogsPatientID(t *testing.T) {
	var buf bytes.Buffer
	s := New(&failingBackend{}, WithLogger(logger.NewWithOutput("debug", &buf)))

	p, err := s.CreatePatient(context.Background(), samplePatient("Ana", "Asthma"))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"patient_id":"`+p.ID+`"`)
	assert.Contains(t, buf.String(), `"message":"patient created"`)
}

func TestStore_Load_ReadFailure(t *testing.T) {
	s := New(&failingBackend{readErr: errors.New("permission denied")})

	var perr *PersistenceError
	require.True(t, errors.As(s.Load(context.Background()), &perr))
}
