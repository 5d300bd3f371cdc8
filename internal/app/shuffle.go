package app

import (
	"math/rand"

	"academy-quiz-service/internal/domain"
)

// shuffleQuestions is an in-place Fisher-Yates shuffle.
func shuffleQuestions(rnd *rand.Rand, questions []domain.Question) {
	for i := len(questions) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		questions[i], questions[j] = questions[j], questions[i]
	}
}

// dedupe drops repeated ids, keeping the first occurrence, so a session
// never holds two answers for one question.
func dedupe(questions []domain.Question) []domain.Question {
	seen := make(map[string]struct{}, len(questions))
	out := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		if _, ok := seen[q.ID]; ok {
			continue
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}
	return out
}
