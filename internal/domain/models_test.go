package domain

import (
	"errors"
	"testing"
)

func TestIsCorrectIgnoresCase(t *testing.T) {
	cases := []struct {
		selected, correct string
		want              bool
	}{
		{"b", "B", true},
		{"B", "b", true},
		{" c ", "C", true},
		{"a", "B", false},
		{"", "", false},
	}
	for _, tc := range cases {
		if got := IsCorrect(tc.selected, tc.correct); got != tc.want {
			t.Fatalf("IsCorrect(%q, %q) = %v, want %v", tc.selected, tc.correct, got, tc.want)
		}
	}
}

func TestQuestionValidate(t *testing.T) {
	q := Question{
		ID:     "q1",
		Prompt: "2 + 2?",
		Options: []Option{
			{Label: "A", Text: "3"},
			{Label: "B", Text: "4"},
		},
		CorrectOption: "b",
	}
	if err := q.Validate(); err != nil {
		t.Fatalf("expected valid question, got %v", err)
	}

	q.CorrectOption = "C"
	if err := q.Validate(); !errors.Is(err, ErrInvalidQuestion) {
		t.Fatalf("expected invalid question for missing label, got %v", err)
	}

	q.CorrectOption = "A"
	q.Options = q.Options[:1]
	if err := q.Validate(); !errors.Is(err, ErrInvalidQuestion) {
		t.Fatalf("expected invalid question for single option, got %v", err)
	}

	q.Options = []Option{{Label: "A", Text: "x"}, {Label: "a", Text: "y"}}
	if err := q.Validate(); !errors.Is(err, ErrInvalidQuestion) {
		t.Fatalf("expected invalid question for duplicate labels, got %v", err)
	}
}

func TestPublicHidesCorrectOption(t *testing.T) {
	q := Question{ID: "q1", Prompt: "p", Options: []Option{{Label: "A", Text: "x"}}, CorrectOption: "A", TopicID: "t1"}
	pub := q.Public()
	if pub.ID != "q1" || pub.TopicID != "t1" || len(pub.Options) != 1 {
		t.Fatalf("unexpected public view %+v", pub)
	}
}

func TestClassifyMastery(t *testing.T) {
	cases := []struct {
		correct, attempts int
		want              Mastery
	}{
		{0, 0, MasteryNone},
		{3, 3, MasteryMastered},
		{2, 2, MasteryAlmost},
		{9, 10, MasteryMastered},
		{7, 10, MasteryAlmost},
		{6, 10, MasteryInProgress},
	}
	for _, tc := range cases {
		if got := ClassifyMastery(tc.correct, tc.attempts); got != tc.want {
			t.Fatalf("ClassifyMastery(%d, %d) = %q, want %q", tc.correct, tc.attempts, got, tc.want)
		}
	}
	if _, ok := ParseMastery("Casi Dominado"); !ok {
		t.Fatalf("expected known mastery label")
	}
	if _, ok := ParseMastery("Expert"); ok {
		t.Fatalf("expected unknown mastery label to be rejected")
	}
}
