package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"partyquiz-client/internal/protocol"
	"partyquiz-client/internal/state"
	"partyquiz-client/internal/transport/ws"
)

// Phase is the identity progression of a client.
type Phase int

const (
	PhaseAnonymous Phase = iota
	PhaseRegistering
	PhaseRegistered
	PhaseConnecting
	PhaseJoined
	// PhaseError is entered on transport loss. It blocks reconnection
	// until AckError clears it, so a flapping server cannot trigger a
	// reconnect storm.
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseAnonymous:
		return "anonymous"
	case PhaseRegistering:
		return "registering"
	case PhaseRegistered:
		return "registered"
	case PhaseConnecting:
		return "connecting"
	case PhaseJoined:
		return "joined"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// PlayerPhase is the player's sub-state while joined.
type PlayerPhase int

const (
	// PlayerAwaitingQuestion: no pool question submitted yet.
	PlayerAwaitingQuestion PlayerPhase = iota
	// PlayerHasSubmitted: question in the pool, waiting for play.
	PlayerHasSubmitted
	// PlayerAnswering: a question is open.
	PlayerAnswering
	// PlayerRevising: editing the previously submitted pool question.
	PlayerRevising
)

// Host view tabs, also the values carried by change-view broadcasts.
const (
	ViewLobby    = "lobby"
	ViewQuestion = "question"
	ViewScores   = "scores"
)

var (
	// ErrNotJoined is returned by operations that need a joined session.
	ErrNotJoined = errors.New("not joined to a quiz")
	// ErrIdentityIncomplete is returned by Connect without an identity.
	ErrIdentityIncomplete = errors.New("no persisted identity to connect with")
	// ErrQuestionNotOpen rejects answers outside the open window.
	ErrQuestionNotOpen = errors.New("no question is open")
	// ErrObserver rejects mutating host actions from an observer.
	ErrObserver = errors.New("observers cannot control the quiz")
)

// Options configures a Session.
type Options struct {
	Manager *ws.Manager
	Caller  *ws.Caller
	Store   IdentityStore
	Limits  protocol.Limits
	// QuizName is sent on create-quiz.
	QuizName string
}

// Session is the client's session state machine. It owns the logical
// connection (through the Manager), issues correlated commands, folds
// pushed events into its snapshot and drives the role/phase progression.
// All exported methods are safe for concurrent use; internally one mutex
// keeps every transition sequential, matching the one-logical-thread model
// the protocol assumes.
type Session struct {
	manager *ws.Manager
	caller  *ws.Caller
	store   IdentityStore
	limits  protocol.Limits

	quizName string

	mu       sync.Mutex
	phase    Phase
	identity Identity
	errMsg   string

	snap   state.Snapshot
	picker *state.Picker

	conn *ws.Conn
	sub  *ws.Subscription

	playerPhase PlayerPhase
	ownQuestion *protocol.Question
	didAnswer   bool

	lastStatus *protocol.StatusEvent
}

// New builds a session in the anonymous phase.
func New(opts Options) *Session {
	return &Session{
		manager:  opts.Manager,
		caller:   opts.Caller,
		store:    opts.Store,
		limits:   opts.Limits,
		quizName: opts.QuizName,
		snap:     state.NewSnapshot(),
		picker:   state.NewPicker(),
	}
}

// Restore loads any persisted identity. With a complete identity the
// session skips registration entirely and is immediately ready to
// connect; this is the reconnect-after-restart path.
func (s *Session) Restore(ctx context.Context) error {
	id, err := LoadIdentity(ctx, s.store)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = id
	if id.Complete() {
		s.phase = PhaseRegistered
	}
	return nil
}

// RegisterPlayer registers a new player identity with the backend. On
// success the assigned identity is persisted before the phase advances,
// so a crash right after registration still recovers it.
func (s *Session) RegisterPlayer(ctx context.Context, quizID, name, avatar string) error {
	if err := protocol.ValidatePlayerName(name, s.limits); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseRegistering

	resp, err := s.call(ctx, protocol.Register(quizID, name, avatar))
	if err != nil {
		s.phase = PhaseAnonymous
		return err
	}

	id := Identity{
		ClientID:   resp.ClientID,
		QuizID:     resp.QuizID,
		PlayerName: name,
		Role:       Role{Kind: RolePlayer},
	}
	if err := id.Save(ctx, s.store); err != nil {
		s.phase = PhaseAnonymous
		return err
	}
	s.identity = id
	s.phase = PhaseRegistered
	log.Printf("session: registered %q as client %s for quiz %s", name, id.ClientID, id.QuizID)
	return nil
}

// CreateQuiz creates a new quiz and adopts the host identity the backend
// assigns. hostID may be empty.
func (s *Session) CreateQuiz(ctx context.Context, hostID string, makeDefault bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseRegistering

	resp, err := s.call(ctx, protocol.CreateQuiz(s.quizName, hostID, makeDefault))
	if err != nil {
		s.phase = PhaseAnonymous
		return err
	}

	id := Identity{
		ClientID: resp.HostID,
		QuizID:   resp.QuizID,
		Role:     Role{Kind: RoleHost},
	}
	if err := id.Save(ctx, s.store); err != nil {
		s.phase = PhaseAnonymous
		return err
	}
	s.identity = id
	s.phase = PhaseRegistered
	log.Printf("session: created quiz %s as host %s", id.QuizID, id.ClientID)
	return nil
}

// JoinQuiz adopts an existing host identity (hosting a quiz from another
// device, or observing). Like CreateQuiz it only establishes the
// identity; the caller connects afterwards.
func (s *Session) JoinQuiz(ctx context.Context, quizID, clientID string, observe bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := Identity{
		ClientID: clientID,
		QuizID:   quizID,
		Role:     Role{Kind: RoleHost, Observe: observe},
	}
	if err := id.Save(ctx, s.store); err != nil {
		return err
	}
	s.identity = id
	s.phase = PhaseRegistered
	return nil
}

// Connect joins the quiz with the current identity and seeds the local
// snapshot. It is used for the first join and for every reconnect; the
// backend treats both identically because the persisted {quizId,
// clientId} pair is all it needs.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.identity.Complete() {
		return ErrIdentityIncomplete
	}
	if s.phase == PhaseError {
		// Reconnection stays blocked until the error is acknowledged.
		return fmt.Errorf("session error not acknowledged: %s", s.errMsg)
	}
	s.phase = PhaseConnecting

	conn, err := s.manager.GetOrCreate(ctx)
	if err != nil {
		s.fail(fmt.Sprintf("connect failed: %v", err))
		return err
	}

	// Subscribe before the connect command goes out: events may start
	// the moment the backend links this connection to the quiz.
	sub := conn.Subscribe()

	if _, err := s.caller.Call(ctx, conn, protocol.Connect(s.identity.QuizID, s.identity.ClientID)); err != nil {
		sub.Cancel()
		var cmdErr *protocol.CommandError
		if errors.As(err, &cmdErr) {
			s.phase = PhaseRegistered
		} else {
			s.fail(fmt.Sprintf("connect failed: %v", err))
		}
		return err
	}

	if s.sub != nil {
		s.sub.Cancel()
	}
	s.conn = conn
	s.sub = sub
	s.phase = PhaseJoined
	s.snap = state.NewSnapshot()

	if err := s.seed(ctx); err != nil {
		// A half-seeded snapshot must not pass as a completed join.
		sub.Cancel()
		s.sub = nil
		s.conn = nil
		s.fail(fmt.Sprintf("seed failed: %v", err))
		return err
	}
	log.Printf("session: joined quiz %s as %s", s.identity.QuizID, s.identity.Role.Kind)
	return nil
}

// seed requests the full-state snapshots for the entities this role
// tracks. The push stream only carries deltas, so skipping this would
// leave a client that joined mid-quiz consistent only eventually; with it
// the client is consistent immediately.
func (s *Session) seed(ctx context.Context) error {
	quizID := s.identity.QuizID

	if s.identity.Role.Kind == RoleHost {
		for _, what := range []string{"get-clients", "get-pool-questions", "get-questions", "get-answers"} {
			if err := s.conn.Send(protocol.Get(what, quizID)); err != nil {
				return fmt.Errorf("seed %s: %w", what, err)
			}
		}
		return nil
	}

	// Player: recover the own pool question, then ask whether a question
	// is currently open (answered with question-opened/question-closed).
	resp, err := s.call(ctx, protocol.GetPoolQuestion(quizID))
	var cmdErr *protocol.CommandError
	switch {
	case err == nil && resp.Question != nil:
		s.ownQuestion = resp.Question
		s.playerPhase = PlayerHasSubmitted
	case protocol.RejectedWith(err, protocol.ErrCodeEmptyResult):
		s.playerPhase = PlayerAwaitingQuestion
	case errors.As(err, &cmdErr):
		// Any other rejection leaves the pool question unknown but the
		// join intact.
		log.Printf("session: fetch pool question: %v", err)
	case err != nil:
		return fmt.Errorf("seed pool question: %w", err)
	}

	return s.conn.Send(protocol.Get("get-question", quizID))
}

// Pump consumes pushed events until the connection terminates or ctx is
// cancelled. On transport loss the session enters PhaseError and Pump
// returns the transport error; the caller surfaces it and, once the user
// acknowledges, clears it with AckError and connects again.
func (s *Session) Pump(ctx context.Context) error {
	s.mu.Lock()
	conn, sub := s.conn, s.sub
	s.mu.Unlock()
	if conn == nil || sub == nil {
		return ErrNotJoined
	}

	for {
		select {
		case env := <-sub.C:
			s.mu.Lock()
			s.handle(env)
			s.mu.Unlock()

		case <-conn.Done():
			s.mu.Lock()
			s.fail("disconnected from server")
			s.mu.Unlock()
			return conn.Err()

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// HandleEvent applies one pushed event. Pump uses it internally; tests
// and custom event loops may drive it directly.
func (s *Session) HandleEvent(env protocol.Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handle(env)
}

func (s *Session) handle(env protocol.Envelope) {
	s.snap = state.Apply(s.snap, env)
	s.picker.Observe(env)

	if env.Type == protocol.EventStatus {
		var ev protocol.StatusEvent
		if env.Decode(&ev) == nil {
			s.lastStatus = &ev
		}
	}

	if s.identity.Role.Kind != RolePlayer {
		return
	}
	switch env.Type {
	case protocol.EventQuestionOpened:
		s.didAnswer = false
		if s.playerPhase == PlayerHasSubmitted {
			s.playerPhase = PlayerAnswering
		}
	case protocol.EventQuestionClosed:
		if s.playerPhase == PlayerAnswering {
			s.playerPhase = PlayerHasSubmitted
		}
	}
}

// AckError acknowledges a surfaced transport error, unblocking the next
// Connect attempt with the same persisted identity.
func (s *Session) AckError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseError {
		return
	}
	s.errMsg = ""
	if s.identity.Complete() {
		s.phase = PhaseRegistered
	} else {
		s.phase = PhaseAnonymous
	}
}

// SubmitPoolQuestion submits or revises the player's question.
func (s *Session) SubmitPoolQuestion(ctx context.Context, q protocol.Question) error {
	if err := protocol.ValidateQuestion(q, s.limits); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseJoined {
		return ErrNotJoined
	}

	if _, err := s.call(ctx, protocol.SetPoolQuestion(s.identity.QuizID, q)); err != nil {
		return err
	}
	q.AuthorID = s.identity.ClientID
	s.ownQuestion = &q
	s.playerPhase = PlayerHasSubmitted
	return nil
}

// ReviseQuestion moves the player back into question editing.
func (s *Session) ReviseQuestion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playerPhase == PlayerHasSubmitted {
		s.playerPhase = PlayerRevising
	}
}

// CancelRevision abandons an in-progress revision.
func (s *Session) CancelRevision() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playerPhase == PlayerRevising {
		s.playerPhase = PlayerHasSubmitted
	}
}

// Answer submits the player's answer for the open question. A rejection
// for an already-answered question counts as success: the answer made it
// to the backend the first time, retrying is idempotent.
func (s *Session) Answer(ctx context.Context, answer int) error {
	if err := protocol.ValidateAnswer(answer, s.limits.NumChoices); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseJoined {
		return ErrNotJoined
	}
	if !s.snap.QuestionOpen || s.snap.QuestionID == 0 {
		return ErrQuestionNotOpen
	}

	_, err := s.call(ctx, protocol.Answer(s.identity.QuizID, s.snap.QuestionID, answer))
	if err != nil && !protocol.RejectedWith(err, protocol.ErrCodeAlreadyAnswered) {
		return err
	}
	s.didAnswer = true
	return nil
}

// NextQuestion picks and opens the next pool question. When the picked
// question's author is absent it is quarantined instead and returned with
// quarantined=true; the host then decides with ConfirmQuarantine or
// SkipQuarantine. opened=false with a nil error and no quarantine means
// the pool has no eligible question.
func (s *Session) NextQuestion(ctx context.Context) (q protocol.Question, opened, quarantined bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkHostControl(); err != nil {
		return protocol.Question{}, false, false, err
	}

	q, open, quarantine := s.picker.Pick(s.snap)
	switch {
	case quarantine:
		return q, false, true, nil
	case open:
		if err := s.conn.Send(protocol.OpenQuestion(s.identity.QuizID, q)); err != nil {
			return protocol.Question{}, false, false, err
		}
		return q, true, false, nil
	default:
		return protocol.Question{}, false, false, nil
	}
}

// ConfirmQuarantine opens the quarantined question despite its author
// being absent.
func (s *Session) ConfirmQuarantine(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkHostControl(); err != nil {
		return err
	}
	q, ok := s.picker.Confirm()
	if !ok {
		return nil
	}
	return s.conn.Send(protocol.OpenQuestion(s.identity.QuizID, q))
}

// SkipQuarantine drops the quarantined question and blacklists its author
// for the rest of the quiz.
func (s *Session) SkipQuarantine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.picker.Skip()
}

// CloseQuestion closes the open question; confirmed by the
// question-closed broadcast.
func (s *Session) CloseQuestion(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkHostControl(); err != nil {
		return err
	}
	return s.conn.Send(protocol.CloseQuestion(s.identity.QuizID))
}

// SwitchView changes the host tab. With more than one host connection
// open the switch is broadcast through the backend so every host session
// lands on the same screen; with exactly one it is applied locally.
func (s *Session) SwitchView(ctx context.Context, view string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseJoined || s.identity.Role.Kind != RoleHost {
		return ErrNotJoined
	}

	if s.snap.NumHostConnections() <= 1 {
		s.snap.View = view
		return nil
	}
	cmd, err := protocol.NotifyHosts(s.identity.QuizID, protocol.ChangeViewEvent{
		Type: protocol.EventChangeView,
		View: view,
	})
	if err != nil {
		return err
	}
	return s.conn.Send(cmd)
}

// TogglePreview flips the lobby question preview for all host sessions.
func (s *Session) TogglePreview(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkHostControl(); err != nil {
		return err
	}
	cmd, err := protocol.NotifyHosts(s.identity.QuizID, protocol.QuestionsPreviewEvent{
		Type:   protocol.EventQuestionsPreview,
		Enable: !s.snap.PreviewEnabled,
	})
	if err != nil {
		return err
	}
	return s.conn.Send(cmd)
}

// RequestStatus asks the backend for the quiz summary, delivered as a
// status message on the event stream and retained for LastStatus. Any
// previously retained summary is dropped so LastStatus never reports a
// stale reply as the answer to this request.
func (s *Session) RequestStatus() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseJoined {
		return ErrNotJoined
	}
	s.lastStatus = nil
	return s.conn.Send(protocol.Get("get-status", s.identity.QuizID))
}

// LastStatus returns the backend's reply to the most recent
// RequestStatus, once it has arrived on the event stream.
func (s *Session) LastStatus() (protocol.StatusEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastStatus == nil {
		return protocol.StatusEvent{}, false
	}
	return *s.lastStatus, true
}

// Close releases the subscription and the connection. The session that
// set a connection up is the one responsible for tearing it down.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		s.sub.Cancel()
		s.sub = nil
	}
	if s.conn != nil && s.phase == PhaseJoined {
		// Orderly goodbye; the backend cleans up on socket close anyway.
		_ = s.conn.Send(protocol.Disconnect(s.identity.QuizID, s.identity.ClientID))
	}
	s.conn = nil
	s.manager.Close()
}

// Reset clears the persisted identity and returns to anonymous.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ClearIdentity(ctx, s.store); err != nil {
		return err
	}
	s.identity = Identity{}
	s.phase = PhaseAnonymous
	s.snap = state.NewSnapshot()
	s.picker = state.NewPicker()
	return nil
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Identity returns the current identity.
func (s *Session) Identity() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Snapshot returns the current view state. Snapshots are immutable, so
// the returned value stays valid while the session moves on.
func (s *Session) Snapshot() state.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// PlayerPhase returns the player sub-state.
func (s *Session) PlayerPhase() PlayerPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerPhase
}

// OwnQuestion returns the player's submitted pool question, if any.
func (s *Session) OwnQuestion() (protocol.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ownQuestion == nil {
		return protocol.Question{}, false
	}
	return *s.ownQuestion, true
}

// DidAnswer reports whether the player already answered the open question.
func (s *Session) DidAnswer() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.didAnswer
}

// ErrorMessage returns the unacknowledged error banner text, if any.
func (s *Session) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// call issues a correlated command on a fresh-or-current connection.
// Callers hold s.mu.
func (s *Session) call(ctx context.Context, cmd protocol.Command) (*protocol.Response, error) {
	conn, err := s.manager.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}
	return s.caller.Call(ctx, conn, cmd)
}

// fail records a transport error. Callers hold s.mu.
func (s *Session) fail(msg string) {
	s.phase = PhaseError
	s.errMsg = msg
	log.Printf("session: %s", msg)
}

func (s *Session) checkHostControl() error {
	if s.phase != PhaseJoined || s.identity.Role.Kind != RoleHost {
		return ErrNotJoined
	}
	if s.identity.Role.Observe {
		return ErrObserver
	}
	return nil
}
