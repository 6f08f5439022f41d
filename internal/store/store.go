package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/RishavRaj625/Personalized-Patient-Education-System/internal/logger"
	"github.com/RishavRaj625/Personalized-Patient-Education-System/pkg"
)

// Store is the single source of truth for patient-derived records.  Every
// mutation rewrites the whole document through the Backend, so two processes
// sharing one document lose data to whichever saves last.  Within a process
// mutations are serialised by a mutex.
type Store struct {
	mu      sync.Mutex
	backend Backend
	logger  *logger.Logger
	log     *logrus.Entry
	now     func() time.Time
	newID   func() string

	patients    []pkg.PatientProfile
	materials   []pkg.GeneratedMaterial
	chats       map[string][]pkg.ChatMessage
	assessments map[string]pkg.KnowledgeAssessment
	injuries    []pkg.InjuryAssessment
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the id source.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithLogger sets the logger used for persistence events.
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) {
		s.logger = l
		s.log = l.WithComponent("store")
	}
}

// New constructs an empty Store persisted through backend.  Call Load to
// populate it from an existing document.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  logger.Discard(),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = s.logger.WithComponent("store")
	}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.patients = []pkg.PatientProfile{}
	s.materials = []pkg.GeneratedMaterial{}
	s.chats = map[string][]pkg.ChatMessage{}
	s.assessments = map[string]pkg.KnowledgeAssessment{}
	s.injuries = []pkg.InjuryAssessment{}
}

// Load replaces the in-memory state with the persisted document.  A missing
// document yields an empty store; an unreadable or malformed one returns a
// PersistenceError and leaves the current state untouched.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.backend.Read(ctx)
	if errors.Is(err, ErrDocumentNotFound) {
		s.reset()
		s.log.Info("no store document found, starting empty")
		return nil
	}
	if err != nil {
		return &PersistenceError{Op: "load", Cause: err}
	}

	var doc pkg.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return &PersistenceError{Op: "load", Cause: err}
	}

	s.reset()
	if doc.Patients != nil {
		s.patients = doc.Patients
	}
	if doc.Materials != nil {
		s.materials = doc.Materials
	}
	if doc.ChatHistory != nil {
		s.chats = doc.ChatHistory
	}
	if doc.Assessments != nil {
		s.assessments = doc.Assessments
	}
	if doc.InjuryAssessments != nil {
		s.injuries = doc.InjuryAssessments
	}
	s.log.WithFields(logrus.Fields{
		"patients":  len(s.patients),
		"materials": len(s.materials),
	}).Info("store document loaded")
	return nil
}

// Save writes the full document.  There is no retry.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

func (s *Store) saveLocked(ctx context.Context) error {
	data, err := json.Marshal(s.documentLocked())
	if err != nil {
		return &PersistenceError{Op: "save", Cause: err}
	}
	if err := s.backend.Write(ctx, data); err != nil {
		s.log.WithError(err).Error("failed to write store document")
		return &PersistenceError{Op: "save", Cause: err}
	}
	s.log.WithField("bytes", len(data)).Debug("store document written")
	return nil
}

func (s *Store) documentLocked() pkg.Document {
	return pkg.Document{
		Patients:          s.patients,
		Materials:         s.materials,
		ChatHistory:       s.chats,
		Assessments:       s.assessments,
		InjuryAssessments: s.injuries,
	}
}

func (s *Store) patientLog(patientID string) *logrus.Entry {
	return s.logger.WithPatientID(patientID).WithField("component", "store")
}

// CreatePatient validates the intake fields, assigns an id, initialises an
// empty chat history and flushes.  If the flush fails the profile is rolled
// back and no record exists.
func (s *Store) CreatePatient(ctx context.Context, in pkg.PatientInput) (*pkg.PatientProfile, error) {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(in.Condition) == "" {
		missing = append(missing, "condition")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := pkg.PatientProfile{
		ID:             s.newID(),
		Name:           in.Name,
		Age:            in.Age,
		Gender:         in.Gender,
		EducationLevel: in.EducationLevel,
		Language:       in.Language,
		Condition:      in.Condition,
		Treatment:      in.Treatment,
		Medications:    in.Medications,
		LearningStyle:  in.LearningStyle,
		SpecialNeeds:   in.SpecialNeeds,
		DateAdded:      s.now(),
	}
	s.patients = append(s.patients, p)
	s.chats[p.ID] = []pkg.ChatMessage{}

	if err := s.saveLocked(ctx); err != nil {
		s.patients = s.patients[:len(s.patients)-1]
		delete(s.chats, p.ID)
		return nil, err
	}
	s.patientLog(p.ID).Info("patient created")
	return &p, nil
}

// Patient returns the profile with the given id.
func (s *Store) Patient(id string) (pkg.PatientProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.patients {
		if p.ID == id {
			return p, nil
		}
	}
	return pkg.PatientProfile{}, ErrNotFound
}

// ListPatients returns all profiles in insertion order.
func (s *Store) ListPatients() []pkg.PatientProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]pkg.PatientProfile(nil), s.patients...)
}

// AddMaterial records generated content for patient, snapshotting the
// patient's name and condition.  Nothing is kept when the flush fails.
func (s *Store) AddMaterial(ctx context.Context, patient pkg.PatientProfile, content string) (*pkg.GeneratedMaterial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := pkg.GeneratedMaterial{
		ID:          s.newID(),
		PatientID:   patient.ID,
		PatientName: patient.Name,
		Condition:   patient.Condition,
		Content:     content,
		Timestamp:   s.now(),
	}
	s.materials = append(s.materials, m)
	if err := s.saveLocked(ctx); err != nil {
		s.materials = s.materials[:len(s.materials)-1]
		return nil, err
	}
	s.patientLog(patient.ID).WithField("material_id", m.ID).Info("material stored")
	return &m, nil
}

// ListMaterials returns materials in creation order, narrowed by filter.
func (s *Store) ListMaterials(filter pkg.MaterialFilter) []pkg.GeneratedMaterial {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]pkg.GeneratedMaterial, 0, len(s.materials))
	for _, m := range s.materials {
		if filter.PatientName != "" && m.PatientName != filter.PatientName {
			continue
		}
		if filter.Condition != "" && m.Condition != filter.Condition {
			continue
		}
		out = append(out, m)
	}
	return out
}

// RemoveMaterial deletes a material by id.  Unknown ids are ignored and do
// not trigger a flush.
func (s *Store) RemoveMaterial(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, m := range s.materials {
		if m.ID == id {
			s.materials = append(s.materials[:i:i], s.materials[i+1:]...)
			return s.saveLocked(ctx)
		}
	}
	return nil
}

// AppendChatMessage appends one message to the patient's history.
func (s *Store) AppendChatMessage(ctx context.Context, patientID string, role pkg.MessageRole, content string) (pkg.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := pkg.ChatMessage{Role: role, Content: content, Timestamp: s.now()}
	restore := s.chatRestorer(patientID)
	s.chats[patientID] = append(s.chats[patientID], msg)
	if err := s.saveLocked(ctx); err != nil {
		restore()
		return pkg.ChatMessage{}, err
	}
	return msg, nil
}

// AppendChatExchange appends a user question and the assistant reply with a
// single flush.
func (s *Store) AppendChatExchange(ctx context.Context, patientID, question, reply string) ([]pkg.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	pair := []pkg.ChatMessage{
		{Role: pkg.RoleUser, Content: question, Timestamp: now},
		{Role: pkg.RoleAssistant, Content: reply, Timestamp: now},
	}
	restore := s.chatRestorer(patientID)
	s.chats[patientID] = append(s.chats[patientID], pair...)
	if err := s.saveLocked(ctx); err != nil {
		restore()
		return nil, err
	}
	s.patientLog(patientID).WithField("messages", len(s.chats[patientID])).Debug("chat exchange stored")
	return pair, nil
}

// chatRestorer returns a func that puts the patient's history back the way
// it is now.
func (s *Store) chatRestorer(patientID string) func() {
	prev, ok := s.chats[patientID]
	n := len(prev)
	return func() {
		if !ok {
			delete(s.chats, patientID)
			return
		}
		s.chats[patientID] = prev[:n]
	}
}

// ChatHistory returns the patient's messages in chronological order.  An
// empty history is created on first access.
func (s *Store) ChatHistory(patientID string) []pkg.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.chats[patientID]
	if !ok {
		history = []pkg.ChatMessage{}
		s.chats[patientID] = history
	}
	return append([]pkg.ChatMessage{}, history...)
}

// ClearChat resets the patient's history to empty.
func (s *Store) ClearChat(ctx context.Context, patientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chats[patientID] = []pkg.ChatMessage{}
	return s.saveLocked(ctx)
}

// PutAssessment stores a freshly generated quiz for the patient, discarding
// any previous responses and result.
func (s *Store) PutAssessment(ctx context.Context, patientID string, questions []pkg.Question) (*pkg.KnowledgeAssessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := pkg.KnowledgeAssessment{
		PatientID:   patientID,
		Questions:   questions,
		Responses:   map[int]string{},
		GeneratedAt: s.now(),
	}
	s.assessments[patientID] = a
	if err := s.saveLocked(ctx); err != nil {
		return nil, err
	}
	out := cloneAssessment(a)
	return &out, nil
}

// Assessment returns the patient's current assessment.
func (s *Store) Assessment(patientID string) (pkg.KnowledgeAssessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assessments[patientID]
	if !ok {
		return pkg.KnowledgeAssessment{}, ErrNotFound
	}
	return cloneAssessment(a), nil
}

// RecordAssessmentResult stores the submitted responses and their grading.
func (s *Store) RecordAssessmentResult(ctx context.Context, patientID string, responses map[int]string, result pkg.AssessmentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assessments[patientID]
	if !ok {
		return ErrNotFound
	}
	a.Responses = make(map[int]string, len(responses))
	for k, v := range responses {
		a.Responses[k] = v
	}
	a.Results = &result
	s.assessments[patientID] = a
	return s.saveLocked(ctx)
}

// AddInjuryAssessment assigns an id and timestamp to a and stores it.
func (s *Store) AddInjuryAssessment(ctx context.Context, a pkg.InjuryAssessment) (*pkg.InjuryAssessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = s.newID()
	a.Timestamp = s.now()
	s.injuries = append(s.injuries, a)
	if err := s.saveLocked(ctx); err != nil {
		s.injuries = s.injuries[:len(s.injuries)-1]
		return nil, err
	}
	return &a, nil
}

// ListInjuryAssessments returns injury assessments in creation order.
func (s *Store) ListInjuryAssessments() []pkg.InjuryAssessment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]pkg.InjuryAssessment{}, s.injuries...)
}

// Snapshot returns a copy of the whole document.
func (s *Store) Snapshot() pkg.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := pkg.Document{
		Patients:          append([]pkg.PatientProfile{}, s.patients...),
		Materials:         append([]pkg.GeneratedMaterial{}, s.materials...),
		ChatHistory:       make(map[string][]pkg.ChatMessage, len(s.chats)),
		Assessments:       make(map[string]pkg.KnowledgeAssessment, len(s.assessments)),
		InjuryAssessments: append([]pkg.InjuryAssessment{}, s.injuries...),
	}
	for id, msgs := range s.chats {
		doc.ChatHistory[id] = append([]pkg.ChatMessage{}, msgs...)
	}
	for id, a := range s.assessments {
		doc.Assessments[id] = cloneAssessment(a)
	}
	return doc
}

func cloneAssessment(a pkg.KnowledgeAssessment) pkg.KnowledgeAssessment {
	out := a
	out.Questions = make([]pkg.Question, len(a.Questions))
	for i, q := range a.Questions {
		q.Options = append([]string(nil), q.Options...)
		out.Questions[i] = q
	}
	if a.Responses != nil {
		out.Responses = make(map[int]string, len(a.Responses))
		for k, v := range a.Responses {
			out.Responses[k] = v
		}
	}
	if a.Results != nil {
		r := *a.Results
		r.Feedback = append([]pkg.QuestionFeedback(nil), a.Results.Feedback...)
		out.Results = &r
	}
	return out
}
