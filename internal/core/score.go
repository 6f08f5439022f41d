package core

import (
	"fmt"

	"github.com/RishavRaj625/Personalized-Patient-Education-System/pkg"
)

// Feedback markers prefixed to each graded question.
const (
	CorrectMarker   = "✅"
	IncorrectMarker = "❌"
)

// Score grades answers against the questions.  answers maps question index
// to the chosen option; an answer matches only when it equals the correct
// answer exactly, and unanswered questions count as incorrect.
func Score(questions []pkg.Question, answers map[int]string) pkg.AssessmentResult {
	result := pkg.AssessmentResult{
		TotalQuestions: len(questions),
		Feedback:       make([]pkg.QuestionFeedback, 0, len(questions)),
	}

	for i, q := range questions {
		fb := pkg.QuestionFeedback{
			Question:      q.Text,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		}
		answer, answered := answers[i]
		if answered {
			a := answer
			fb.UserAnswer = &a
		}

		if answered && answer == q.CorrectAnswer {
			result.CorrectAnswers++
			fb.Feedback = fmt.Sprintf("%s Correct! %s", CorrectMarker, q.Explanation)
		} else {
			fb.Feedback = fmt.Sprintf("%s Incorrect. The correct answer is: %s. %s", IncorrectMarker, q.CorrectAnswer, q.Explanation)
		}
		result.Feedback = append(result.Feedback, fb)
	}

	result.IncorrectAnswers = result.TotalQuestions - result.CorrectAnswers
	return result
}
