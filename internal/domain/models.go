package domain

import (
	"strings"
	"time"
)

// Mode selects how a quiz batch is assembled.
type Mode string

const (
	// ModeTest serves a fresh shuffled batch for one academy/topic.
	ModeTest Mode = "test"
	// ModePractice serves the questions the user still has in the failed set.
	ModePractice Mode = "practice"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeTest || m == ModePractice
}

// User identifies who is taking the quiz. It is passed explicitly to the
// controller instead of being looked up from ambient state.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
}

// Option is one labeled answer of a question (A-D).
type Option struct {
	Label string `json:"label" validate:"required,oneof=A B C D a b c d"`
	Text  string `json:"text" validate:"required"`
}

// Question is a multiple-choice question. It is immutable for the
// lifetime of a quiz session.
type Question struct {
	ID            string   `json:"id" validate:"required"`
	Prompt        string   `json:"prompt" validate:"required"`
	Options       []Option `json:"options" validate:"min=2,max=4,dive"`
	CorrectOption string   `json:"correctOption" validate:"required"`
	AcademyID     string   `json:"academyId,omitempty"`
	TopicID       string   `json:"topicId,omitempty"`
	Part          string   `json:"part,omitempty"`
}

// HasOption reports whether label names one of the question's options.
func (q Question) HasOption(label string) bool {
	for _, opt := range q.Options {
		if strings.EqualFold(opt.Label, strings.TrimSpace(label)) {
			return true
		}
	}
	return false
}

// PublicQuestion is the view of a question sent to clients before the
// answer is revealed.
type PublicQuestion struct {
	ID        string   `json:"id"`
	Prompt    string   `json:"prompt"`
	Options   []Option `json:"options"`
	AcademyID string   `json:"academyId,omitempty"`
	TopicID   string   `json:"topicId,omitempty"`
	Part      string   `json:"part,omitempty"`
}

// Public strips the correct option.
func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:        q.ID,
		Prompt:    q.Prompt,
		Options:   append([]Option(nil), q.Options...),
		AcademyID: q.AcademyID,
		TopicID:   q.TopicID,
		Part:      q.Part,
	}
}

// IsCorrect compares a selected label to the correct one, ignoring case and
// surrounding whitespace.
func IsCorrect(selected, correct string) bool {
	selected = strings.TrimSpace(selected)
	if selected == "" {
		return false
	}
	return strings.EqualFold(selected, strings.TrimSpace(correct))
}

// AnswerRecord is the outcome of one submitted answer. Records are
// append-only and never mutated after creation.
type AnswerRecord struct {
	QuestionID     string    `json:"questionId"`
	SelectedOption string    `json:"selectedOption"`
	CorrectOption  string    `json:"correctOption"`
	Correct        bool      `json:"correct"`
	ElapsedSeconds int       `json:"elapsedSeconds"`
	AnsweredAt     time.Time `json:"answeredAt"`
}

// StatsSource tells where the figures of a QuizStats came from.
type StatsSource string

const (
	StatsSourceRemote StatsSource = "remote"
	StatsSourceLocal  StatsSource = "local"
)

// QuizStats summarizes a finished quiz session.
type QuizStats struct {
	TotalQuestions   int         `json:"totalQuestions"`
	CorrectAnswers   int         `json:"correctAnswers"`
	IncorrectAnswers int         `json:"incorrectAnswers"`
	Percentage       int         `json:"percentage"`
	AverageSeconds   float64     `json:"averageSeconds"`
	PointsEarned     int         `json:"pointsEarned"`
	FailedRemaining  int         `json:"failedRemaining"`
	Mastery          Mastery     `json:"mastery,omitempty"`
	Source           StatsSource `json:"source"`
}
