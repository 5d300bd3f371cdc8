package domain

// Mastery classifies how well a user knows a topic from historical accuracy.
type Mastery string

const (
	MasteryNone       Mastery = "Sin Intentos"
	MasteryInProgress Mastery = "En Progreso"
	MasteryAlmost     Mastery = "Casi Dominado"
	MasteryMastered   Mastery = "Dominado"
)

const (
	masteredPercent    = 90
	almostPercent      = 70
	masteredMinAttempt = 3
)

// ClassifyMastery maps correct/attempt tallies to a mastery level. The
// thresholds match the complete_quiz_session SQL function.
func ClassifyMastery(correct, attempts int) Mastery {
	if attempts <= 0 {
		return MasteryNone
	}
	if correct < 0 {
		correct = 0
	}
	switch {
	case correct*100 >= masteredPercent*attempts && attempts >= masteredMinAttempt:
		return MasteryMastered
	case correct*100 >= almostPercent*attempts:
		return MasteryAlmost
	default:
		return MasteryInProgress
	}
}

// ParseMastery accepts a known mastery label. Empty input is valid and
// means unknown.
func ParseMastery(raw string) (Mastery, bool) {
	switch m := Mastery(raw); m {
	case "", MasteryNone, MasteryInProgress, MasteryAlmost, MasteryMastered:
		return m, true
	}
	return "", false
}
