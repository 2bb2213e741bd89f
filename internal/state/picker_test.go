package state

import (
	"testing"

	"partyquiz-client/internal/protocol"
)

func pickerSnapshot(t *testing.T) Snapshot {
	t.Helper()
	s := NewSnapshot()
	s = Apply(s, env(t, `{"type":"clients","players":{"c1":{"name":"Alice","connections":["t1"]},"c2":{"name":"Bob"},"c3":{"name":"Cleo","connections":["t3"]}},"host_connections":[]}`))
	s = Apply(s, env(t, `{"type":"pool-questions","questions":{"c1":{"question":"Alice's question?","choices":["a","b","c","d"],"answer":1},"c2":{"question":"Bob's question?","choices":["a","b","c","d"],"answer":2},"c3":{"question":"Cleo's question?","choices":["a","b","c","d"],"answer":3}}}`))
	return s
}

func TestPickPresentAuthorFirst(t *testing.T) {
	s := pickerSnapshot(t)
	p := NewPicker()

	q, open, quarantined := p.Pick(s)
	if !open || quarantined {
		t.Fatalf("expected direct pick, got open=%v quarantined=%v", open, quarantined)
	}
	if q.AuthorID != "c1" {
		t.Fatalf("picked %s, want c1 (author order)", q.AuthorID)
	}
}

func TestPickQuarantinesAbsentAuthor(t *testing.T) {
	s := pickerSnapshot(t)
	// Alice's question was already opened, so Bob (absent) is next.
	s = Apply(s, env(t, `{"type":"question-opened","question_id":1,"question":{"author_id":"c1","question":"Alice's question?","choices":["a","b","c","d"],"answer":1}}`))
	s = Apply(s, env(t, `{"type":"question-closed","question_id":1}`))

	p := NewPicker()
	q, open, quarantined := p.Pick(s)
	if open || !quarantined {
		t.Fatalf("expected quarantine, got open=%v quarantined=%v", open, quarantined)
	}
	if q.AuthorID != "c2" {
		t.Fatalf("quarantined %s, want c2", q.AuthorID)
	}

	// Picking again returns the held question, it does not advance.
	again, _, quarantined := p.Pick(s)
	if !quarantined || again.AuthorID != "c2" {
		t.Fatalf("repeated pick must return the held question")
	}

	confirmed, ok := p.Confirm()
	if !ok || confirmed.AuthorID != "c2" {
		t.Fatalf("confirm must release the held question")
	}
	if _, held := p.Quarantined(); held {
		t.Fatalf("quarantine not cleared by confirm")
	}
}

func TestPickSkipBlacklistsAuthor(t *testing.T) {
	s := pickerSnapshot(t)
	s = Apply(s, env(t, `{"type":"question-opened","question_id":1,"question":{"author_id":"c1","question":"Alice's question?","choices":["a","b","c","d"],"answer":1}}`))
	s = Apply(s, env(t, `{"type":"question-closed","question_id":1}`))

	p := NewPicker()
	if _, _, quarantined := p.Pick(s); !quarantined {
		t.Fatalf("expected quarantine for absent c2")
	}
	p.Skip()

	q, open, _ := p.Pick(s)
	if !open || q.AuthorID != "c3" {
		t.Fatalf("after skip expected c3, got %s open=%v", q.AuthorID, open)
	}

	// Even if Bob comes back, the skip holds.
	s = Apply(s, env(t, `{"type":"client-connected","client_id":"c2","connection":"t2"}`))
	q, open, _ = p.Pick(s)
	if !open || q.AuthorID != "c3" {
		t.Fatalf("skip must hold after the author reconnects, got %s", q.AuthorID)
	}
}

func TestPickExhaustedPool(t *testing.T) {
	s := pickerSnapshot(t)
	for i, author := range []string{"c1", "c2", "c3"} {
		s = Apply(s, env(t, `{"type":"question-opened","question_id":`+string(rune('1'+i))+`,"question":{"author_id":"`+author+`","question":"Opened question?","choices":["a","b","c","d"],"answer":1}}`))
	}
	p := NewPicker()
	_, open, quarantined := p.Pick(s)
	if open || quarantined {
		t.Fatalf("exhausted pool must yield nothing, got open=%v quarantined=%v", open, quarantined)
	}
}

func TestObserveClearsStaleQuarantine(t *testing.T) {
	s := pickerSnapshot(t)
	s = Apply(s, env(t, `{"type":"question-opened","question_id":1,"question":{"author_id":"c1","question":"Alice's question?","choices":["a","b","c","d"],"answer":1}}`))
	s = Apply(s, env(t, `{"type":"question-closed","question_id":1}`))

	p := NewPicker()
	if _, _, quarantined := p.Pick(s); !quarantined {
		t.Fatalf("expected quarantine")
	}

	// Another host connection opened a question in the meantime.
	opened := env(t, `{"type":"question-opened","question_id":2,"question":{"author_id":"c3","question":"Cleo's question?","choices":["a","b","c","d"],"answer":3}}`)
	p.Observe(opened)
	if _, held := p.Quarantined(); held {
		t.Fatalf("quarantine must clear when a question opens elsewhere")
	}
	p.Observe(protocol.Envelope{Type: protocol.EventAnswerReceived})
}
