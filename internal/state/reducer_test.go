package state

import (
	"testing"

	"partyquiz-client/internal/protocol"
)

func env(t *testing.T, frame string) protocol.Envelope {
	t.Helper()
	e, err := protocol.ParseEnvelope([]byte(frame))
	if err != nil {
		t.Fatalf("parse %q: %v", frame, err)
	}
	return e
}

func TestApplyClientsSnapshot(t *testing.T) {
	s := NewSnapshot()
	s = Apply(s, env(t, `{"type":"clients","players":{"c1":{"name":"Alice","connections":["t1","t2"]},"c2":{"name":"Bob"}},"host_connections":["h1"]}`))

	if len(s.Players) != 2 {
		t.Fatalf("got %d players, want 2", len(s.Players))
	}
	if !s.IsPresent("c1") {
		t.Fatalf("c1 has two connections, must be present")
	}
	if s.IsPresent("c2") {
		t.Fatalf("c2 has no connections, must be absent")
	}
	if s.NumHostConnections() != 1 {
		t.Fatalf("host connections = %d, want 1", s.NumHostConnections())
	}
}

func TestApplyConnectionSetIdempotent(t *testing.T) {
	s := NewSnapshot()
	s = Apply(s, env(t, `{"type":"player-registered","client_id":"c1","player_name":"Alice"}`))
	if s.IsPresent("c1") {
		t.Fatalf("registered player starts absent")
	}

	connected := `{"type":"client-connected","client_id":"c1","connection":"t1"}`
	s = Apply(s, env(t, connected))
	s = Apply(s, env(t, connected))
	if got := len(s.Players["c1"].Connections); got != 1 {
		t.Fatalf("duplicate connect grew the set to %d", got)
	}

	disconnected := `{"type":"client-disconnected","client_id":"c1","connection":"t1"}`
	s = Apply(s, env(t, disconnected))
	s = Apply(s, env(t, disconnected))
	if s.IsPresent("c1") {
		t.Fatalf("c1 still present after disconnect")
	}
}

func TestApplyConnectionUnknownIdentityIsHost(t *testing.T) {
	s := NewSnapshot()
	s = Apply(s, env(t, `{"type":"client-connected","client_id":"h-abc","connection":"t9"}`))
	if s.NumHostConnections() != 1 {
		t.Fatalf("unknown identity must count as a host connection")
	}
	s = Apply(s, env(t, `{"type":"client-disconnected","client_id":"h-abc","connection":"t9"}`))
	if s.NumHostConnections() != 0 {
		t.Fatalf("host connection not removed")
	}
}

func TestApplyQuestionWindow(t *testing.T) {
	s := NewSnapshot()
	s = Apply(s, env(t, `{"type":"question-opened","question_id":1,"question":{"author_id":"c1","question":"What is 2 + 2?","choices":["3","4","5","22"],"answer":2}}`))
	if !s.QuestionOpen || s.QuestionID != 1 {
		t.Fatalf("open window not tracked: open=%v id=%d", s.QuestionOpen, s.QuestionID)
	}
	if _, ok := s.CurrentQuestion(); !ok {
		t.Fatalf("current question missing after open")
	}

	s = Apply(s, env(t, `{"type":"answer-received","question_id":1,"player_id":"c2","answer":2}`))
	if s.Answers[1]["c2"] != 2 {
		t.Fatalf("answer delta not folded: %v", s.Answers)
	}

	s = Apply(s, env(t, `{"type":"question-closed","question_id":1}`))
	if s.QuestionOpen {
		t.Fatalf("window still open after close")
	}
	if s.QuestionID != 1 {
		t.Fatalf("closing must keep the question id for the results view")
	}
}

func TestApplySnapshotThenDelta(t *testing.T) {
	s := NewSnapshot()
	s = Apply(s, env(t, `{"type":"pool-questions","questions":{"c1":{"question":"First question?","choices":["a","b","c","d"],"answer":1}}}`))
	s = Apply(s, env(t, `{"type":"pool-question-updated","question":{"author_id":"c2","question":"Second question?","choices":["a","b","c","d"],"answer":3}}`))

	if len(s.PoolQuestions) != 2 {
		t.Fatalf("got %d pool questions, want 2", len(s.PoolQuestions))
	}
	if s.PoolQuestions["c1"].AuthorID != "c1" {
		t.Fatalf("snapshot entries must carry their author key")
	}

	// Legacy delta spelling with the author under client_id.
	s = Apply(s, env(t, `{"type":"question-updated","client_id":"c3","question":{"question":"Third question?","choices":["a","b","c","d"],"answer":2}}`))
	if s.PoolQuestions["c3"].Question != "Third question?" {
		t.Fatalf("question-updated variant not folded: %v", s.PoolQuestions)
	}
}

func TestApplyLeavesInputUntouched(t *testing.T) {
	before := NewSnapshot()
	before = Apply(before, env(t, `{"type":"player-registered","client_id":"c1","player_name":"Alice"}`))

	after := Apply(before, env(t, `{"type":"client-connected","client_id":"c1","connection":"t1"}`))
	if before.IsPresent("c1") {
		t.Fatalf("input snapshot mutated by Apply")
	}
	if !after.IsPresent("c1") {
		t.Fatalf("result snapshot missing the connection")
	}
}

func TestApplyUnknownEventIgnored(t *testing.T) {
	s := NewSnapshot()
	s = Apply(s, env(t, `{"type":"player-registered","client_id":"c1","player_name":"Alice"}`))
	got := Apply(s, env(t, `{"type":"totally-new-event","payload":123}`))
	if len(got.Players) != 1 {
		t.Fatalf("unknown event changed the snapshot")
	}
}

func TestApplyStatusSummary(t *testing.T) {
	s := NewSnapshot()
	s = Apply(s, env(t, `{"type":"status","quiz_id":"q-1","host_id":"h-1","num_host_connections":2,"num_players":3,"num_players_present":2,"num_pool_questions":3,"question_id":7,"is_question_open":true}`))
	if !s.QuestionOpen || s.QuestionID != 7 {
		t.Fatalf("status summary not folded into the window: open=%v id=%d", s.QuestionOpen, s.QuestionID)
	}

	s = Apply(s, env(t, `{"type":"status","quiz_id":"q-1","host_id":"h-1","num_host_connections":1,"num_players":3,"num_players_present":3,"num_pool_questions":3,"question_id":7,"is_question_open":false}`))
	if s.QuestionOpen {
		t.Fatalf("closed window in the summary must close the local window")
	}
}

func TestApplyHostBroadcasts(t *testing.T) {
	s := NewSnapshot()
	s = Apply(s, env(t, `{"type":"change-view","view":"scores"}`))
	if s.View != "scores" {
		t.Fatalf("view = %q, want scores", s.View)
	}
	s = Apply(s, env(t, `{"type":"questions-preview","enable":true}`))
	if !s.PreviewEnabled {
		t.Fatalf("preview not enabled")
	}
	s = Apply(s, env(t, `{"type":"questions-preview","enable":false}`))
	if s.PreviewEnabled {
		t.Fatalf("preview not disabled")
	}
}
