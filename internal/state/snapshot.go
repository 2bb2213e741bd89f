package state

import "partyquiz-client/internal/protocol"

// Player is one roster entry plus the set of websocket sessions currently
// open for that identity. Presence is derived, never stored: a player is
// present while the set is non-empty.
type Player struct {
	Name        string
	Avatar      string
	Connections map[string]struct{}
}

// Present reports whether the player has at least one open connection.
func (p Player) Present() bool { return len(p.Connections) > 0 }

// Snapshot is the client's view of the quiz. It is treated as immutable:
// Apply returns a new snapshot sharing unchanged maps with its input, so a
// held snapshot never changes underneath its holder.
type Snapshot struct {
	Players         map[string]Player
	HostConnections map[string]struct{}

	// PoolQuestions is keyed by author id; each player has at most one.
	PoolQuestions map[string]protocol.Question

	// Questions holds every question opened so far, keyed by the
	// backend-assigned monotonic question id. QuestionID is the current
	// one; 0 means no question has been opened yet.
	Questions    map[int]protocol.Question
	QuestionID   int
	QuestionOpen bool

	// Answers maps question id -> player id -> 1-based choice.
	Answers map[int]map[string]int

	// View is the host tab shared across host connections; PreviewEnabled
	// drives the lobby question preview.
	View           string
	PreviewEnabled bool
}

// NewSnapshot returns an empty snapshot with all maps allocated.
func NewSnapshot() Snapshot {
	return Snapshot{
		Players:         map[string]Player{},
		HostConnections: map[string]struct{}{},
		PoolQuestions:   map[string]protocol.Question{},
		Questions:       map[int]protocol.Question{},
		Answers:         map[int]map[string]int{},
	}
}

// IsPresent reports presence for the given player id.
func (s Snapshot) IsPresent(playerID string) bool {
	return s.Players[playerID].Present()
}

// NumHostConnections counts the host's simultaneously open sessions.
func (s Snapshot) NumHostConnections() int { return len(s.HostConnections) }

// CurrentQuestion returns the question for the current question id.
func (s Snapshot) CurrentQuestion() (protocol.Question, bool) {
	q, ok := s.Questions[s.QuestionID]
	return q, ok
}

// CurrentAnswers returns the answers recorded for the current question.
func (s Snapshot) CurrentAnswers() map[string]int {
	return s.Answers[s.QuestionID]
}

func clonePlayers(m map[string]Player) map[string]Player {
	out := make(map[string]Player, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSet(m map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

func clonePool(m map[string]protocol.Question) map[string]protocol.Question {
	out := make(map[string]protocol.Question, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneQuestions(m map[int]protocol.Question) map[int]protocol.Question {
	out := make(map[int]protocol.Question, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneAnswers(m map[int]map[string]int) map[int]map[string]int {
	out := make(map[int]map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneAnswerRow(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
