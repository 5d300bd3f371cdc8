package memory

import (
	"fmt"

	"academy-quiz-service/internal/domain"
)

func sampleQuestions(n int, academyID, topicID string) []domain.Question {
	qs := make([]domain.Question, 0, n)
	for i := 1; i <= n; i++ {
		qs = append(qs, domain.Question{
			ID:     fmt.Sprintf("%s-q%d", topicID, i),
			Prompt: fmt.Sprintf("Question %d", i),
			Options: []domain.Option{
				{Label: "A", Text: "first"},
				{Label: "B", Text: "second"},
				{Label: "C", Text: "third"},
			},
			CorrectOption: "B",
			AcademyID:     academyID,
			TopicID:       topicID,
		})
	}
	return qs
}
