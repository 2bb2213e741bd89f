package state

import (
	"testing"

	"partyquiz-client/internal/protocol"
)

func TestQuestionScore(t *testing.T) {
	const minAnswers, maxScore = 5, 5
	cases := []struct {
		correct, total int
		want           int
	}{
		{5, 8, 5},   // exactly on target
		{4, 8, 3},   // 1/8 off: round((1-1/3)*5)
		{3, 8, 2},   // 2/8 off: round((1-2/3)*5)
		{8, 8, 0},   // trivial question
		{0, 8, 0},   // impossible question, clamped
		{2, 4, 0},   // below the answer minimum
		{10, 16, 5}, // same ratio, more answers
	}
	for _, tc := range cases {
		got := QuestionScore(tc.correct, tc.total, minAnswers, maxScore)
		if got != tc.want {
			t.Errorf("QuestionScore(%d, %d) = %d, want %d", tc.correct, tc.total, got, tc.want)
		}
	}
}

func TestScores(t *testing.T) {
	s := NewSnapshot()
	s.Players = map[string]Player{
		"author": {Name: "Author"},
		"p1":     {Name: "P1"},
		"p2":     {Name: "P2"},
	}
	s.Questions = map[int]protocol.Question{
		1: {AuthorID: "author", Question: "Scored question?", Choices: []string{"a", "b", "c", "d"}, Answer: 2},
	}
	// 5 of 8 respondents correct: the author hits the target ratio.
	answers := map[string]int{"p1": 2, "p2": 1}
	for i := 0; i < 4; i++ {
		answers["extra"+string(rune('0'+i))] = 2
	}
	answers["extra4"], answers["extra5"] = 1, 1
	s.Answers = map[int]map[string]int{1: answers}

	scores := Scores(s, 5, 5)
	if got := scores["p1"].Answers; got != 1 {
		t.Fatalf("p1 answer score = %d, want 1", got)
	}
	if got := scores["p2"].Answers; got != 0 {
		t.Fatalf("p2 answer score = %d, want 0", got)
	}
	if got := scores["author"].Authoring; got != 5 {
		t.Fatalf("author score = %d, want 5", got)
	}
	if got := scores["author"].Total(); got != 5 {
		t.Fatalf("author total = %d, want 5", got)
	}
}

func TestScoresSkipsStrippedQuestions(t *testing.T) {
	// A player-side snapshot holds question copies with answer and author
	// stripped; they must not score anything.
	s := NewSnapshot()
	s.Players = map[string]Player{"p1": {Name: "P1"}}
	s.Questions = map[int]protocol.Question{
		1: {Question: "Stripped question?", Choices: []string{"a", "b", "c", "d"}},
	}
	s.Answers = map[int]map[string]int{1: {"p1": 1}}

	scores := Scores(s, 5, 5)
	if got := scores["p1"].Total(); got != 0 {
		t.Fatalf("stripped question scored %d", got)
	}
	if _, ok := scores[""]; ok {
		t.Fatalf("phantom author entry created")
	}
}

func TestSummarize(t *testing.T) {
	s := NewSnapshot()
	s = Apply(s, env(t, `{"type":"clients","players":{"c1":{"name":"Alice","connections":["t1"]},"c2":{"name":"Bob"}},"host_connections":["h1","h2"]}`))
	s = Apply(s, env(t, `{"type":"pool-questions","questions":{"c1":{"question":"Only question?","choices":["a","b","c","d"],"answer":1}}}`))
	s = Apply(s, env(t, `{"type":"question-opened","question_id":1,"question":{"author_id":"c1","question":"Only question?","choices":["a","b","c","d"],"answer":1}}`))

	st := Summarize(s)
	want := Status{
		NumHostConnections: 2,
		NumPlayers:         2,
		NumPlayersPresent:  1,
		NumPoolQuestions:   1,
		QuestionID:         1,
		IsQuestionOpen:     true,
	}
	if st != want {
		t.Fatalf("Summarize = %+v, want %+v", st, want)
	}
}
