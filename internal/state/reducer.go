package state

import "partyquiz-client/internal/protocol"

// Apply folds one pushed event into the snapshot and returns the result.
// It never fails: unrecognized kinds and undecodable payloads leave the
// snapshot unchanged. Every tracked entity accepts both its full snapshot
// message (requested once after join) and its incremental delta (pushed
// thereafter); the pair is what keeps a client that joins mid-quiz
// consistent.
func Apply(s Snapshot, env protocol.Envelope) Snapshot {
	switch env.Type {
	case protocol.EventClients, protocol.EventPlayers:
		var ev protocol.ClientsEvent
		if env.Decode(&ev) != nil {
			return s
		}
		players := make(map[string]Player, len(ev.Players))
		for id, info := range ev.Players {
			players[id] = Player{
				Name:        info.Name,
				Avatar:      info.Avatar,
				Connections: tokenSet(info.Connections),
			}
		}
		s.Players = players
		s.HostConnections = tokenSet(ev.HostConnections)
		return s

	case protocol.EventPlayerRegistered:
		var ev protocol.PlayerRegisteredEvent
		if env.Decode(&ev) != nil || ev.ClientID == "" {
			return s
		}
		players := clonePlayers(s.Players)
		players[ev.ClientID] = Player{
			Name:        ev.PlayerName,
			Avatar:      ev.Avatar,
			Connections: map[string]struct{}{},
		}
		s.Players = players
		return s

	case protocol.EventClientConnected, protocol.EventPlayerConnected:
		return applyConnection(s, env, true)

	case protocol.EventClientDisconnected, protocol.EventPlayerDisconnected:
		return applyConnection(s, env, false)

	case protocol.EventPoolQuestions:
		var ev protocol.PoolQuestionsEvent
		if env.Decode(&ev) != nil {
			return s
		}
		pool := make(map[string]protocol.Question, len(ev.Questions))
		for author, q := range ev.Questions {
			if q.AuthorID == "" {
				q.AuthorID = author
			}
			pool[author] = q
		}
		s.PoolQuestions = pool
		return s

	case protocol.EventPoolQuestionUpdated, protocol.EventQuestionUpdated:
		var ev protocol.PoolQuestionUpdatedEvent
		if env.Decode(&ev) != nil {
			return s
		}
		author := ev.AuthorID()
		if author == "" {
			return s
		}
		q := ev.Question
		if q.AuthorID == "" {
			q.AuthorID = author
		}
		pool := clonePool(s.PoolQuestions)
		pool[author] = q
		s.PoolQuestions = pool
		return s

	case protocol.EventQuestions:
		var ev protocol.QuestionsEvent
		if env.Decode(&ev) != nil {
			return s
		}
		questions := make(map[int]protocol.Question, len(ev.Questions))
		for id, q := range ev.Questions {
			questions[id] = q
		}
		s.Questions = questions
		s.QuestionID = ev.QuestionID
		s.QuestionOpen = ev.IsQuestionOpen
		return s

	case protocol.EventQuestionOpened:
		var ev protocol.QuestionOpenedEvent
		if env.Decode(&ev) != nil || ev.QuestionID == 0 {
			return s
		}
		questions := cloneQuestions(s.Questions)
		questions[ev.QuestionID] = ev.Question
		s.Questions = questions
		s.QuestionID = ev.QuestionID
		s.QuestionOpen = true
		return s

	case protocol.EventQuestionClosed:
		var ev protocol.QuestionClosedEvent
		if env.Decode(&ev) != nil {
			return s
		}
		if ev.QuestionID != 0 {
			s.QuestionID = ev.QuestionID
		}
		s.QuestionOpen = false
		return s

	case protocol.EventAnswers:
		var ev protocol.AnswersEvent
		if env.Decode(&ev) != nil {
			return s
		}
		if ev.Answers == nil {
			ev.Answers = map[int]map[string]int{}
		}
		s.Answers = ev.Answers
		return s

	case protocol.EventAnswerReceived:
		var ev protocol.AnswerReceivedEvent
		if env.Decode(&ev) != nil || ev.QuestionID == 0 || ev.PlayerID == "" {
			return s
		}
		answers := cloneAnswers(s.Answers)
		row := cloneAnswerRow(answers[ev.QuestionID])
		row[ev.PlayerID] = ev.Answer
		answers[ev.QuestionID] = row
		s.Answers = answers
		return s

	case protocol.EventStatus:
		var ev protocol.StatusEvent
		if env.Decode(&ev) != nil {
			return s
		}
		// The summary is backend-authoritative for the question window;
		// the counts it carries are already derivable from the roster and
		// pool snapshots.
		s.QuestionID = ev.QuestionID
		s.QuestionOpen = ev.IsQuestionOpen
		return s

	case protocol.EventChangeView:
		var ev protocol.ChangeViewEvent
		if env.Decode(&ev) != nil || ev.View == "" {
			return s
		}
		s.View = ev.View
		return s

	case protocol.EventQuestionsPreview:
		var ev protocol.QuestionsPreviewEvent
		if env.Decode(&ev) != nil {
			return s
		}
		s.PreviewEnabled = ev.Enable
		return s

	default:
		return s
	}
}

// applyConnection adds or removes one connection token for one identity.
// Tokens form a set, so repeated connect or disconnect events for the same
// token are idempotent. The host's tokens live in HostConnections; any
// unknown identity is assumed to be the host, matching how the backend
// only tells hosts apart by id.
func applyConnection(s Snapshot, env protocol.Envelope, connected bool) Snapshot {
	var ev protocol.ClientConnectedEvent
	if env.Decode(&ev) != nil || ev.ClientID == "" {
		return s
	}

	if player, ok := s.Players[ev.ClientID]; ok {
		conns := cloneSet(player.Connections)
		if connected {
			conns[ev.Connection] = struct{}{}
		} else {
			delete(conns, ev.Connection)
		}
		player.Connections = conns
		players := clonePlayers(s.Players)
		players[ev.ClientID] = player
		s.Players = players
		return s
	}

	conns := cloneSet(s.HostConnections)
	if connected {
		conns[ev.Connection] = struct{}{}
	} else {
		delete(conns, ev.Connection)
	}
	s.HostConnections = conns
	return s
}

func tokenSet(tokens []string) map[string]struct{} {
	out := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		out[t] = struct{}{}
	}
	return out
}
