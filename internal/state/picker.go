package state

import (
	"sort"

	"partyquiz-client/internal/protocol"
)

// Picker selects the next pool question for the host to open. A question
// is eligible when its author has not had a question opened earlier in the
// quiz and has not been skipped. When the best candidate's author is
// currently absent the pick is held in quarantine instead of offered
// directly: the host either confirms it (open anyway) or skips it, which
// blacklists that author for the rest of the quiz.
type Picker struct {
	skipped    map[string]struct{}
	quarantine *protocol.Question
}

// NewPicker returns a picker with an empty skip list.
func NewPicker() *Picker {
	return &Picker{skipped: map[string]struct{}{}}
}

// Pick returns the next question to open, or the question now held in
// quarantine. Exactly one of the two booleans is true when a candidate
// exists; both are false when the pool has no eligible question left.
func (p *Picker) Pick(s Snapshot) (q protocol.Question, open bool, quarantined bool) {
	if p.quarantine != nil {
		return *p.quarantine, false, true
	}

	openedAuthors := map[string]struct{}{}
	for _, opened := range s.Questions {
		openedAuthors[opened.AuthorID] = struct{}{}
	}

	// Iterate in author order so repeated picks over the same pool are
	// deterministic.
	authors := make([]string, 0, len(s.PoolQuestions))
	for author := range s.PoolQuestions {
		authors = append(authors, author)
	}
	sort.Strings(authors)

	for _, author := range authors {
		if _, ok := openedAuthors[author]; ok {
			continue
		}
		if _, ok := p.skipped[author]; ok {
			continue
		}
		candidate := s.PoolQuestions[author]
		if !s.IsPresent(author) {
			p.quarantine = &candidate
			return candidate, false, true
		}
		return candidate, true, false
	}
	return protocol.Question{}, false, false
}

// Quarantined returns the held question, if any.
func (p *Picker) Quarantined() (protocol.Question, bool) {
	if p.quarantine == nil {
		return protocol.Question{}, false
	}
	return *p.quarantine, true
}

// Confirm releases the quarantined question for opening.
func (p *Picker) Confirm() (protocol.Question, bool) {
	if p.quarantine == nil {
		return protocol.Question{}, false
	}
	q := *p.quarantine
	p.quarantine = nil
	return q, true
}

// Skip drops the quarantined question and blacklists its author for the
// remainder of the quiz.
func (p *Picker) Skip() {
	if p.quarantine == nil {
		return
	}
	p.skipped[p.quarantine.AuthorID] = struct{}{}
	p.quarantine = nil
}

// Observe watches the event stream for question-opened: if a question
// opens through any other path while a quarantine is pending, the hold is
// stale and is cleared.
func (p *Picker) Observe(env protocol.Envelope) {
	if env.Type == protocol.EventQuestionOpened {
		p.quarantine = nil
	}
}
