package protocol

import "encoding/json"

// Push event kinds. The backend went through a players -> clients renaming
// at some point, so both spellings of the roster events remain on the wire
// and consumers must accept either.
const (
	EventClients            = "clients"
	EventPlayers            = "players"
	EventPlayerRegistered   = "player-registered"
	EventClientConnected    = "client-connected"
	EventPlayerConnected    = "player-connected"
	EventClientDisconnected = "client-disconnected"
	EventPlayerDisconnected = "player-disconnected"

	EventPoolQuestions       = "pool-questions"
	EventPoolQuestionUpdated = "pool-question-updated"
	EventQuestionUpdated     = "question-updated"

	EventQuestions      = "questions"
	EventQuestionOpened = "question-opened"
	EventQuestionClosed = "question-closed"

	EventAnswers        = "answers"
	EventAnswerReceived = "answer-received"

	EventStatus           = "status"
	EventChangeView       = "change-view"
	EventQuestionsPreview = "questions-preview"
)

// PlayerInfo is one roster entry in a clients snapshot. Connections lists
// the websocket sessions currently open for the identity; a player with
// multiple tabs has multiple entries.
type PlayerInfo struct {
	Name        string   `json:"name"`
	Avatar      string   `json:"avatar,omitempty"`
	Connections []string `json:"connections,omitempty"`
}

// ClientsEvent is the full roster snapshot sent in reply to get-clients.
type ClientsEvent struct {
	Players         map[string]PlayerInfo `json:"players"`
	HostConnections []string              `json:"host_connections"`
}

// PlayerRegisteredEvent announces a new registration to the hosts.
type PlayerRegisteredEvent struct {
	ClientID   string `json:"client_id"`
	PlayerName string `json:"player_name"`
	Avatar     string `json:"avatar,omitempty"`
}

// ClientConnectedEvent reports one websocket session coming or going for
// an identity. The same shape serves client-connected and
// client-disconnected.
type ClientConnectedEvent struct {
	ClientID   string `json:"client_id"`
	Connection string `json:"connection"`
}

// PoolQuestionsEvent is the full question-pool snapshot, keyed by author.
type PoolQuestionsEvent struct {
	Questions map[string]Question `json:"questions"`
}

// PoolQuestionUpdatedEvent carries one upserted pool question. Older
// backend revisions emitted it as question-updated with the author under
// client_id; ClientID covers that variant.
type PoolQuestionUpdatedEvent struct {
	Question Question `json:"question"`
	ClientID string   `json:"client_id,omitempty"`
}

// AuthorID resolves the pool key across both event variants.
func (e PoolQuestionUpdatedEvent) AuthorID() string {
	if e.Question.AuthorID != "" {
		return e.Question.AuthorID
	}
	return e.ClientID
}

// QuestionsEvent is the opened-question snapshot: every question opened so
// far, the current question id and whether it is still open.
type QuestionsEvent struct {
	Questions      map[int]Question `json:"questions"`
	QuestionID     int              `json:"question_id"`
	IsQuestionOpen bool             `json:"is_question_open"`
}

// QuestionOpenedEvent announces the live question. Player copies have the
// answer stripped.
type QuestionOpenedEvent struct {
	QuestionID int      `json:"question_id"`
	Question   Question `json:"question"`
}

// QuestionClosedEvent closes the live question.
type QuestionClosedEvent struct {
	QuestionID int `json:"question_id"`
}

// AnswersEvent is the full answer table: question id -> player id ->
// 1-based choice.
type AnswersEvent struct {
	Answers map[int]map[string]int `json:"answers"`
}

// AnswerReceivedEvent reports one player's answer to the hosts.
type AnswerReceivedEvent struct {
	QuestionID int    `json:"question_id"`
	PlayerID   string `json:"player_id"`
	Answer     int    `json:"answer"`
}

// StatusEvent is the host-facing quiz summary returned by get-status.
type StatusEvent struct {
	QuizID             string `json:"quiz_id"`
	HostID             string `json:"host_id"`
	NumHostConnections int    `json:"num_host_connections"`
	NumPlayers         int    `json:"num_players"`
	NumPlayersPresent  int    `json:"num_players_present"`
	NumPoolQuestions   int    `json:"num_pool_questions"`
	QuestionID         int    `json:"question_id"`
	IsQuestionOpen     bool   `json:"is_question_open"`
}

// ChangeViewEvent is broadcast between host connections via notify-hosts
// so that simultaneous host sessions stay on the same screen.
type ChangeViewEvent struct {
	Type string `json:"type"`
	View string `json:"view"`
}

// QuestionsPreviewEvent toggles the rotating pool-question preview in the
// host lobby, again fanned out to all host connections.
type QuestionsPreviewEvent struct {
	Type   string `json:"type"`
	Enable bool   `json:"enable"`
}

// Decode unmarshals the envelope payload into out.
func (e Envelope) Decode(out any) error {
	return json.Unmarshal(e.Raw, out)
}
