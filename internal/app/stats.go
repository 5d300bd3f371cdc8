package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"academy-quiz-service/internal/domain"
)

// ManualStats computes a summary purely from local answer records. It is
// used when there is no remote session or the remote summary is unusable.
func ManualStats(totalQuestions int, answers []domain.AnswerRecord, pointsPerCorrect int) domain.QuizStats {
	correct := 0
	elapsed := 0
	for _, a := range answers {
		if a.Correct {
			correct++
		}
		elapsed += a.ElapsedSeconds
	}
	if totalQuestions < len(answers) {
		totalQuestions = len(answers)
	}

	stats := domain.QuizStats{
		TotalQuestions:   totalQuestions,
		CorrectAnswers:   correct,
		IncorrectAnswers: len(answers) - correct,
		Percentage:       percentage(correct, totalQuestions),
		PointsEarned:     correct * pointsPerCorrect,
		Source:           domain.StatsSourceLocal,
	}
	if len(answers) > 0 {
		stats.AverageSeconds = roundTo(float64(elapsed)/float64(len(answers)), 2)
	}
	return stats
}

func percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) * 100 / float64(total)))
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// sessionSummary is the wire shape of a completed remote session. Pointer
// fields distinguish missing keys from zero values.
type sessionSummary struct {
	TotalQuestions   *int     `json:"total_questions" validate:"required,gte=0"`
	CorrectAnswers   *int     `json:"correct_answers" validate:"required,gte=0"`
	IncorrectAnswers *int     `json:"incorrect_answers" validate:"required,gte=0"`
	Percentage       *float64 `json:"percentage" validate:"required,gte=0,lte=100"`
	PointsEarned     *int     `json:"points_earned" validate:"required,gte=0"`
	AverageSeconds   *float64 `json:"average_seconds" validate:"omitempty,gte=0"`
	Mastery          string   `json:"mastery"`
}

// ParseSessionSummary decodes and validates a remote summary document.
// Anything unexpected fails closed with ErrInvalidSummary so the caller can
// fall back to ManualStats.
func ParseSessionSummary(raw json.RawMessage) (domain.QuizStats, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return domain.QuizStats{}, fmt.Errorf("%w: empty document", domain.ErrInvalidSummary)
	}

	var s sessionSummary
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return domain.QuizStats{}, fmt.Errorf("%w: %v", domain.ErrInvalidSummary, err)
	}
	if err := domain.Validator().Struct(s); err != nil {
		return domain.QuizStats{}, fmt.Errorf("%w: %v", domain.ErrInvalidSummary, err)
	}
	if *s.CorrectAnswers+*s.IncorrectAnswers > *s.TotalQuestions {
		return domain.QuizStats{}, fmt.Errorf("%w: %d correct + %d incorrect exceeds %d questions",
			domain.ErrInvalidSummary, *s.CorrectAnswers, *s.IncorrectAnswers, *s.TotalQuestions)
	}
	mastery, ok := domain.ParseMastery(s.Mastery)
	if !ok {
		return domain.QuizStats{}, fmt.Errorf("%w: unknown mastery %q", domain.ErrInvalidSummary, s.Mastery)
	}

	stats := domain.QuizStats{
		TotalQuestions:   *s.TotalQuestions,
		CorrectAnswers:   *s.CorrectAnswers,
		IncorrectAnswers: *s.IncorrectAnswers,
		Percentage:       int(math.Round(*s.Percentage)),
		PointsEarned:     *s.PointsEarned,
		Mastery:          mastery,
		Source:           domain.StatsSourceRemote,
	}
	if s.AverageSeconds != nil {
		stats.AverageSeconds = roundTo(*s.AverageSeconds, 2)
	}
	return stats, nil
}
