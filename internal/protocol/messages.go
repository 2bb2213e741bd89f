package protocol

import "encoding/json"

// Command is an outbound message sent over the quiz websocket. Every
// command carries an action verb; the remaining fields depend on the verb
// and are omitted from the wire when empty. RequestID is a client-side
// extension: the backend echoes unknown fields back in its response, which
// lets the caller pair a response with the command that produced it.
type Command struct {
	Action    string `json:"action"`
	RequestID string `json:"request_id,omitempty"`

	QuizID   string `json:"quiz_id,omitempty"`
	ClientID string `json:"client_id,omitempty"`

	// create-quiz
	QuizName    string `json:"quiz_name,omitempty"`
	HostID      string `json:"host_id,omitempty"`
	MakeDefault bool   `json:"make_default,omitempty"`

	// register
	PlayerName string `json:"player_name,omitempty"`
	Avatar     string `json:"avatar,omitempty"`

	// set-pool-question / open-question
	AuthorID string   `json:"author_id,omitempty"`
	Question string   `json:"question,omitempty"`
	Choices  []string `json:"choices,omitempty"`

	// set-pool-question / open-question / answer. The zero value is never
	// a valid choice (answers are 1-based), so omitempty is safe.
	Answer int `json:"answer,omitempty"`

	// answer
	QuestionID int `json:"question_id,omitempty"`

	// notify-hosts carries an arbitrary message broadcast to all host
	// connections verbatim.
	Message json.RawMessage `json:"message,omitempty"`

	// set-root-user / set-default-quiz
	Value    string `json:"value,omitempty"`
	OldValue string `json:"old_value,omitempty"`
}

// Register builds the player registration command. QuizID may be empty, in
// which case the backend registers the player for the default quiz.
func Register(quizID, playerName, avatar string) Command {
	return Command{
		Action:     "register",
		QuizID:     quizID,
		PlayerName: playerName,
		Avatar:     avatar,
	}
}

// CreateQuiz builds the quiz creation command. HostID may be empty and is
// then assigned by the backend.
func CreateQuiz(quizName, hostID string, makeDefault bool) Command {
	return Command{
		Action:      "create-quiz",
		QuizName:    quizName,
		HostID:      hostID,
		MakeDefault: makeDefault,
	}
}

// Connect joins an established identity to a quiz. It is sent both on
// first join and on every reconnect.
func Connect(quizID, clientID string) Command {
	return Command{Action: "connect", QuizID: quizID, ClientID: clientID}
}

// SetPoolQuestion submits or replaces the caller's question in the pool.
func SetPoolQuestion(quizID string, q Question) Command {
	return Command{
		Action:   "set-pool-question",
		QuizID:   quizID,
		Question: q.Question,
		Choices:  q.Choices,
		Answer:   q.Answer,
	}
}

// OpenQuestion promotes a pool question to the live question. The reply
// arrives as a question-opened broadcast, not as a response.
func OpenQuestion(quizID string, q Question) Command {
	return Command{
		Action:   "open-question",
		QuizID:   quizID,
		AuthorID: q.AuthorID,
		Question: q.Question,
		Choices:  q.Choices,
		Answer:   q.Answer,
	}
}

// CloseQuestion closes the live question; confirmed by a question-closed
// broadcast.
func CloseQuestion(quizID string) Command {
	return Command{Action: "close-question", QuizID: quizID}
}

// Answer submits a 1-based choice for the open question.
func Answer(quizID string, questionID, answer int) Command {
	return Command{Action: "answer", QuizID: quizID, QuestionID: questionID, Answer: answer}
}

// NotifyHosts wraps an arbitrary payload for broadcast to every host
// connection of the quiz.
func NotifyHosts(quizID string, message any) (Command, error) {
	raw, err := json.Marshal(message)
	if err != nil {
		return Command{}, err
	}
	return Command{Action: "notify-hosts", QuizID: quizID, Message: raw}, nil
}

// Get builds one of the snapshot request commands (get-clients,
// get-pool-questions, get-questions, get-answers, get-question,
// get-status). Their replies are typed messages handled by the reducer,
// not correlated responses.
func Get(what, quizID string) Command {
	return Command{Action: what, QuizID: quizID}
}

// GetPoolQuestion asks for the caller's own pool question. Unlike the
// other get commands this one is answered with a correlated response.
func GetPoolQuestion(quizID string) Command {
	return Command{Action: "get-pool-question", QuizID: quizID}
}

// Disconnect announces an orderly teardown of this connection. The
// backend cleans up on socket close anyway, so sending it is optional.
func Disconnect(quizID, clientID string) Command {
	return Command{Action: "disconnect", QuizID: quizID, ClientID: clientID}
}

// SetRootUser rotates the backend's admin credential. Admin surface,
// unused by the player and host flows.
func SetRootUser(value, oldValue string) Command {
	return Command{Action: "set-root-user", Value: value, OldValue: oldValue}
}

// SetDefaultQuiz marks the quiz new registrations land in when they name
// none. Admin surface.
func SetDefaultQuiz(quizID string) Command {
	return Command{Action: "set-default-quiz", QuizID: quizID}
}

// Question is a quiz question. Answer is the 1-based index of the correct
// choice; the backend strips it from copies sent to players while the
// question is open.
type Question struct {
	AuthorID string   `json:"author_id,omitempty"`
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
	Answer   int      `json:"answer,omitempty"`
}

// Response is the correlated reply to a command. Result is "ok" on
// success; anything else carries an error code and optional details. The
// payload fields are populated depending on the command that was sent.
type Response struct {
	Type      string    `json:"type"`
	Result    string    `json:"result"`
	RequestID string    `json:"request_id,omitempty"`
	ErrorCode ErrorCode `json:"error_code,omitempty"`
	Details   string    `json:"details,omitempty"`

	QuizID   string    `json:"quiz_id,omitempty"`
	QuizName string    `json:"quiz_name,omitempty"`
	ClientID string    `json:"client_id,omitempty"`
	HostID   string    `json:"host_id,omitempty"`
	Question *Question `json:"question,omitempty"`
}

// OK reports whether the response signals success.
func (r *Response) OK() bool { return r.Result == "ok" }

// Err returns nil for a successful response and a *CommandError otherwise.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	return &CommandError{Code: r.ErrorCode, Details: r.Details}
}

// TypeResponse is the message type of correlated replies; every other
// inbound type is a pushed event.
const TypeResponse = "response"

// Envelope is one inbound message: its decoded type plus the raw frame,
// so each consumer can unmarshal the payload it cares about.
type Envelope struct {
	Type string
	Raw  json.RawMessage
}

// ParseEnvelope decodes the type discriminator of an inbound frame.
func ParseEnvelope(data []byte) (Envelope, error) {
	var header struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return Envelope{}, err
	}
	raw := make(json.RawMessage, len(data))
	copy(raw, data)
	return Envelope{Type: header.Type, Raw: raw}, nil
}

// Response decodes the envelope as a correlated response. The second
// return value is false for pushed events.
func (e Envelope) Response() (*Response, bool) {
	if e.Type != TypeResponse {
		return nil, false
	}
	var resp Response
	if err := json.Unmarshal(e.Raw, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}
