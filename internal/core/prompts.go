package core

// prompts.go holds the prompt templates sent to the generation service.
// Keeping them together makes them easy to tweak without touching the
// workflows that use them.

import (
	"fmt"

	"github.com/RishavRaj625/Personalized-Patient-Education-System/pkg"
)

// EducationPrompt asks for personalised education material covering the
// patient's condition, treatment and medications.
func EducationPrompt(p pkg.PatientProfile) string {
	return fmt.Sprintf(`Generate personalized patient education material based on the following patient information:

Patient Demographics:
- Age: %d
- Gender: %s
- Education Level: %s
- Primary Language: %s

Medical Information:
- Condition/Diagnosis: %s
- Treatment Plan: %s
- Medication(s): %s

Special Considerations:
- Learning Style: %s
- Special Needs: %s

Create educational content that:
1. Explains their condition in simple, understandable terms appropriate for their education level
2. Describes their treatment plan and why it's important
3. Explains how to take their medications, potential side effects, and when to contact healthcare providers
4. Includes lifestyle recommendations specific to their condition
5. Uses language and examples appropriate for their age, gender, and cultural background
6. Adapts to their preferred learning style (visual, auditory, reading/writing, kinesthetic)
7. Accommodates any special needs mentioned

The content should be empathetic, encouraging, and empowering for the patient.
Format the content with clear headings, bullet points where appropriate, and a summary at the end.`,
		p.Age, p.Gender, p.EducationLevel, p.Language,
		p.Condition, p.Treatment, p.Medications,
		p.LearningStyle, p.SpecialNeeds)
}

// ChatPrompt asks for a single answer to the patient's question, tailored to
// the profile.
func ChatPrompt(p pkg.PatientProfile, question string) string {
	return fmt.Sprintf(`You are a medical assistant chatbot helping a patient with their health condition.

Patient Information:
- Name: %s
- Age: %d
- Gender: %s
- Education Level: %s
- Primary Language: %s
- Medical Condition: %s
- Treatment Plan: %s
- Medications: %s
- Learning Style: %s
- Special Needs: %s

The patient is asking: %q

Provide a single, clear, and concise answer that is:
1. Appropriate for their education level and learning style
2. Specific to their medical condition and treatment plan
3. Empathetic and reassuring
4. Accurate but not overly technical
5. Includes actionable advice when appropriate

If the question is outside of your scope or requires immediate medical attention, advise the patient to contact their healthcare provider.`,
		p.Name, p.Age, p.Gender, p.EducationLevel, p.Language,
		p.Condition, p.Treatment, p.Medications,
		p.LearningStyle, p.SpecialNeeds, question)
}

// InjuryPrompt accompanies an injury photo.  The reply must open with a
// disclaimer that it is not medical advice.
func InjuryPrompt(description string) string {
	return fmt.Sprintf(`Analyze this injury or skin condition based on the image and description:

Patient Description: %s

Please provide the following:
1. Possible identification of the condition (disclaimer that this is not a medical diagnosis)
2. Common causes for this type of injury/condition
3. Recommended home remedies or over-the-counter treatments
4. When to seek professional medical attention
5. Precautions to follow
6. Expected healing timeline

Format the response with clear headings and bullet points where appropriate.
Include a clear disclaimer at the beginning that this is not medical advice and serious conditions require professional medical attention.`,
		description)
}

// AssessmentCategories are the knowledge areas covered by a quiz, one
// question each.
var AssessmentCategories = []string{
	"Basic condition information",
	"Treatment rationale",
	"Medication understanding",
	"Self-management techniques",
	"Warning signs requiring medical attention",
}

// AssessmentPrompt asks for a five-question multiple-choice quiz as JSON.
func AssessmentPrompt(p pkg.PatientProfile) string {
	return fmt.Sprintf(`Create a knowledge assessment quiz for a patient with the following profile:
- Condition: %s
- Education Level: %s
- Learning Style: %s

Generate %d multiple-choice questions that assess the patient's understanding of:
1. %s
2. %s
3. %s
4. %s
5. %s

For each question, provide:
- The question text
- 4 possible answers (with one correct answer)
- An explanation of why the correct answer is right
- The knowledge category being tested

Format the response as a valid JSON object with the following structure:
{
    "questions": [
        {
            "text": "Question text",
            "options": ["Option 1", "Option 2", "Option 3", "Option 4"],
            "correct_answer": "Correct option",
            "explanation": "Explanation of the correct answer",
            "category": "Category being tested"
        }
    ]
}
The correct_answer must repeat one of the options exactly. Return only the JSON object.`,
		p.Condition, p.EducationLevel, p.LearningStyle,
		len(AssessmentCategories),
		AssessmentCategories[0], AssessmentCategories[1], AssessmentCategories[2],
		AssessmentCategories[3], AssessmentCategories[4])
}
