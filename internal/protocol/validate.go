package protocol

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Limits holds the client-side field constraints. The backend enforces the
// same ranges; checking locally keeps bad input off the wire entirely.
type Limits struct {
	NumChoices       int
	QuestionLength   [2]int
	ChoiceLength     [2]int
	PlayerNameLength [2]int
}

// ValidatePlayerName checks the registration name against lim.
func ValidatePlayerName(name string, lim Limits) error {
	return checkString("name", name, lim.PlayerNameLength)
}

// ValidateQuestion checks a question before submission or opening.
func ValidateQuestion(q Question, lim Limits) error {
	if err := checkString("question", q.Question, lim.QuestionLength); err != nil {
		return err
	}
	if len(q.Choices) != lim.NumChoices {
		return &ValidationError{
			Field:  "choices",
			Reason: fmt.Sprintf("need %d choices, got %d", lim.NumChoices, len(q.Choices)),
		}
	}
	for i, choice := range q.Choices {
		if err := checkString(fmt.Sprintf("answer %d", i+1), choice, lim.ChoiceLength); err != nil {
			return err
		}
	}
	if q.Answer < 1 || q.Answer > len(q.Choices) {
		return &ValidationError{
			Field:  "answer",
			Reason: fmt.Sprintf("must be between 1 and %d", len(q.Choices)),
		}
	}
	return nil
}

// ValidateAnswer checks a 1-based answer index for the open question.
func ValidateAnswer(answer, numChoices int) error {
	if answer < 1 || answer > numChoices {
		return &ValidationError{
			Field:  "answer",
			Reason: fmt.Sprintf("must be between 1 and %d", numChoices),
		}
	}
	return nil
}

func checkString(field, value string, lenRange [2]int) error {
	if value != strings.TrimSpace(value) {
		return &ValidationError{Field: field, Reason: "contains leading or trailing whitespace"}
	}
	n := utf8.RuneCountInString(value)
	if n < lenRange[0] {
		return &ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("too short (%d < %d)", n, lenRange[0]),
		}
	}
	if n > lenRange[1] {
		return &ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("too long (%d > %d)", n, lenRange[1]),
		}
	}
	return nil
}
