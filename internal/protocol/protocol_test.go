package protocol

import (
	"encoding/json"
	"testing"
)

func testLimits() Limits {
	return Limits{
		NumChoices:       4,
		QuestionLength:   [2]int{10, 160},
		ChoiceLength:     [2]int{1, 80},
		PlayerNameLength: [2]int{2, 20},
	}
}

func TestValidatePlayerName(t *testing.T) {
	lim := testLimits()
	cases := []struct {
		name  string
		valid bool
	}{
		{"Alice", true},
		{"Al", true},
		{"A", false},
		{" Alice", false},
		{"Alice ", false},
		{"abcdefghijklmnopqrstu", false},
		{"Zoë", true},
	}
	for _, tc := range cases {
		err := ValidatePlayerName(tc.name, lim)
		if tc.valid && err != nil {
			t.Errorf("name %q: unexpected error %v", tc.name, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("name %q: expected error", tc.name)
		}
	}
}

func TestValidateQuestion(t *testing.T) {
	lim := testLimits()
	good := Question{
		Question: "What is 2 + 2?",
		Choices:  []string{"3", "4", "5", "22"},
		Answer:   2,
	}
	if err := ValidateQuestion(good, lim); err != nil {
		t.Fatalf("valid question rejected: %v", err)
	}

	short := good
	short.Question = "Why?"
	if err := ValidateQuestion(short, lim); err == nil {
		t.Fatalf("expected rejection of a too-short question")
	}

	missing := good
	missing.Choices = []string{"3", "4"}
	if err := ValidateQuestion(missing, lim); err == nil {
		t.Fatalf("expected rejection with only 2 choices")
	}

	out := good
	out.Answer = 5
	if err := ValidateQuestion(out, lim); err == nil {
		t.Fatalf("expected rejection of out-of-range answer")
	}
	out.Answer = 0
	if err := ValidateQuestion(out, lim); err == nil {
		t.Fatalf("expected rejection of zero answer")
	}
}

func TestParseEnvelopeResponse(t *testing.T) {
	frame := []byte(`{"type":"response","result":"error","error_code":8,"details":"already answered","request_id":"r-1"}`)
	env, err := ParseEnvelope(frame)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if env.Type != TypeResponse {
		t.Fatalf("expected type response, got %s", env.Type)
	}
	resp, ok := env.Response()
	if !ok {
		t.Fatalf("expected a correlated response")
	}
	if resp.OK() {
		t.Fatalf("expected an error response")
	}
	if resp.RequestID != "r-1" {
		t.Fatalf("request id not preserved: %q", resp.RequestID)
	}
	if !RejectedWith(resp.Err(), ErrCodeAlreadyAnswered) {
		t.Fatalf("expected error code %d, got %v", ErrCodeAlreadyAnswered, resp.Err())
	}
}

func TestParseEnvelopeEvent(t *testing.T) {
	frame := []byte(`{"type":"question-opened","question_id":3,"question":{"author_id":"c1","question":"What is 2 + 2?","choices":["3","4","5","22"]}}`)
	env, err := ParseEnvelope(frame)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if env.Type != EventQuestionOpened {
		t.Fatalf("expected question-opened, got %s", env.Type)
	}
	if _, ok := env.Response(); ok {
		t.Fatalf("events must not decode as responses")
	}

	var ev QuestionOpenedEvent
	if err := env.Decode(&ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.QuestionID != 3 {
		t.Fatalf("question id = %d, want 3", ev.QuestionID)
	}
	if ev.Question.Answer != 0 {
		t.Fatalf("player copy must not carry the answer, got %d", ev.Question.Answer)
	}
}

func TestQuestionsEventIntKeys(t *testing.T) {
	frame := []byte(`{"type":"questions","questions":{"1":{"question":"First one here?","choices":["a","b","c","d"],"answer":1},"4":{"question":"Fourth one here?","choices":["a","b","c","d"],"answer":2}}}`)
	env, err := ParseEnvelope(frame)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var ev QuestionsEvent
	if err := env.Decode(&ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ev.Questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(ev.Questions))
	}
	if ev.Questions[4].Answer != 2 {
		t.Fatalf("question 4 answer = %d, want 2", ev.Questions[4].Answer)
	}
}

func TestCommandWireShape(t *testing.T) {
	raw, err := json.Marshal(Answer("q1", 7, 3))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["action"] != "answer" || m["quiz_id"] != "q1" {
		t.Fatalf("unexpected frame: %s", raw)
	}
	if _, ok := m["player_name"]; ok {
		t.Fatalf("empty fields must be omitted: %s", raw)
	}

	raw, _ = json.Marshal(Connect("q1", "c1"))
	want := `{"action":"connect","quiz_id":"q1","client_id":"c1"}`
	if string(raw) != want {
		t.Fatalf("connect frame = %s, want %s", raw, want)
	}

	raw, _ = json.Marshal(SetRootUser("new-secret", "old-secret"))
	want = `{"action":"set-root-user","value":"new-secret","old_value":"old-secret"}`
	if string(raw) != want {
		t.Fatalf("set-root-user frame = %s, want %s", raw, want)
	}

	raw, _ = json.Marshal(SetDefaultQuiz("q1"))
	want = `{"action":"set-default-quiz","quiz_id":"q1"}`
	if string(raw) != want {
		t.Fatalf("set-default-quiz frame = %s, want %s", raw, want)
	}
}
