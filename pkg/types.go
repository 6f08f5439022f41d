package pkg

import "time"

// PatientProfile holds the intake data for one patient.  Profiles are
// immutable once created; the ID is a UUID assigned by the store.
type PatientProfile struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	Gender         string    `json:"gender"`
	EducationLevel string    `json:"education_level"`
	Language       string    `json:"language"`
	Condition      string    `json:"condition"`
	Treatment      string    `json:"treatment"`
	Medications    string    `json:"medications"`
	LearningStyle  string    `json:"learning_style"`
	SpecialNeeds   string    `json:"special_needs"`
	DateAdded      time.Time `json:"date_added"`
}

// PatientInput carries the intake form fields used to create a profile.
type PatientInput struct {
	Name           string `json:"name"`
	Age            int    `json:"age"`
	Gender         string `json:"gender"`
	EducationLevel string `json:"education_level"`
	Language       string `json:"language"`
	Condition      string `json:"condition"`
	Treatment      string `json:"treatment"`
	Medications    string `json:"medications"`
	LearningStyle  string `json:"learning_style"`
	SpecialNeeds   string `json:"special_needs"`
}

// Values offered by the intake form.  They are not enforced.
const (
	GenderMale           = "Male"
	GenderFemale         = "Female"
	GenderNonBinary      = "Non-binary"
	GenderPreferNotToSay = "Prefer not to say"

	EducationElementary   = "Elementary"
	EducationHighSchool   = "High School"
	EducationCollege      = "College"
	EducationGraduate     = "Graduate"
	EducationPostGraduate = "Post-Graduate"

	LanguageEnglish  = "English"
	LanguageSpanish  = "Spanish"
	LanguageFrench   = "French"
	LanguageMandarin = "Mandarin"
	LanguageArabic   = "Arabic"
	LanguageOther    = "Other"

	LearningVisual       = "Visual"
	LearningAuditory     = "Auditory"
	LearningReadingWrite = "Reading/Writing"
	LearningKinesthetic  = "Kinesthetic"
	LearningMixed        = "Mixed"
)

// GeneratedMaterial is one piece of education content produced for a
// patient.  PatientName and Condition are captured when the material is
// generated and are not re-synced afterwards.
type GeneratedMaterial struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	Condition   string    `json:"condition"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
}

// MessageRole describes who authored a chat message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatMessage represents a single chat turn for a patient.
type ChatMessage struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// Question is one multiple-choice item of a knowledge assessment.
type Question struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Category      string   `json:"category"`
}

// QuestionFeedback is the graded outcome of one question.  UserAnswer is
// nil when no answer was submitted for the question.
type QuestionFeedback struct {
	Question      string  `json:"question"`
	UserAnswer    *string `json:"user_answer"`
	CorrectAnswer string  `json:"correct_answer"`
	Explanation   string  `json:"explanation"`
	Feedback      string  `json:"feedback"`
}

// AssessmentResult aggregates the grading of a submission.
type AssessmentResult struct {
	TotalQuestions   int                `json:"total_questions"`
	CorrectAnswers   int                `json:"correct_answers"`
	IncorrectAnswers int                `json:"incorrect_answers"`
	Feedback         []QuestionFeedback `json:"feedback"`
}

// KnowledgeAssessment is the current quiz for a patient together with the
// submitted responses and, once submitted, the result.
type KnowledgeAssessment struct {
	PatientID   string            `json:"patient_id"`
	Questions   []Question        `json:"questions"`
	Responses   map[int]string    `json:"responses"`
	Results     *AssessmentResult `json:"results"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// InjuryAssessment records an image-based injury analysis.
type InjuryAssessment struct {
	ID          string    `json:"id"`
	PatientName string    `json:"patient_name,omitempty"`
	PatientAge  int       `json:"patient_age,omitempty"`
	Description string    `json:"description"`
	ImageMIME   string    `json:"image_mime"`
	Analysis    string    `json:"analysis"`
	Timestamp   time.Time `json:"timestamp"`
}

// Document is the persisted form of the whole record store.
type Document struct {
	Patients          []PatientProfile               `json:"patients"`
	Materials         []GeneratedMaterial            `json:"materials"`
	ChatHistory       map[string][]ChatMessage       `json:"chat_history"`
	Assessments       map[string]KnowledgeAssessment `json:"assessments"`
	InjuryAssessments []InjuryAssessment             `json:"injury_assessments"`
}

// MaterialFilter narrows a material listing.  Empty fields match all.
type MaterialFilter struct {
	PatientName string
	Condition   string
}
