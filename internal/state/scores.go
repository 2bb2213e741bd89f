package state

import "math"

// Authoring score target: a question whose respondents were right 5 out of
// 8 times scores best, questions that were trivial or impossible score
// nothing. maxDelta spans from the target to the worse of the extremes.
const (
	qscoreTargetRatio = 5.0 / 8.0
	qscoreMaxDelta    = 3.0 / 8.0
)

// Score is the per-player result breakdown.
type Score struct {
	Answers   int
	Authoring int
}

// Total is the player's combined score.
func (s Score) Total() int { return s.Answers + s.Authoring }

// QuestionScore rewards an author by how close their question's
// correct-answer ratio came to the target. Questions answered by fewer
// than minAnswers respondents score zero.
func QuestionScore(numCorrect, numAnswers, minAnswers, maxScore int) int {
	if numAnswers < minAnswers {
		return 0
	}

	correctRatio := float64(numCorrect) / float64(numAnswers)
	badness := math.Abs(correctRatio-qscoreTargetRatio) / qscoreMaxDelta
	return int(math.Round(math.Max(0, (1-badness)*float64(maxScore))))
}

// Scores computes every player's answer and authoring score from the
// snapshot. The answer score counts opened questions answered correctly;
// the authoring score applies QuestionScore to the player's own opened
// question, if any.
func Scores(s Snapshot, minAnswers, maxScore int) map[string]Score {
	scores := make(map[string]Score, len(s.Players))

	for playerID := range s.Players {
		var correct int
		for questionID, q := range s.Questions {
			// Player-held copies have the answer stripped while open;
			// scoring only makes sense on host state where it is set.
			if q.Answer != 0 && s.Answers[questionID][playerID] == q.Answer {
				correct++
			}
		}
		scores[playerID] = Score{Answers: correct}
	}

	for questionID, q := range s.Questions {
		if q.AuthorID == "" {
			continue
		}
		answers := s.Answers[questionID]
		numCorrect := 0
		for _, answer := range answers {
			if answer == q.Answer {
				numCorrect++
			}
		}
		score := scores[q.AuthorID]
		score.Authoring += QuestionScore(numCorrect, len(answers), minAnswers, maxScore)
		scores[q.AuthorID] = score
	}

	return scores
}

// Status derives the host-facing quiz summary from the snapshot,
// mirroring what the backend reports for get-status.
type Status struct {
	NumHostConnections int
	NumPlayers         int
	NumPlayersPresent  int
	NumPoolQuestions   int
	QuestionID         int
	IsQuestionOpen     bool
}

// Summarize builds a Status from the snapshot.
func Summarize(s Snapshot) Status {
	present := 0
	for _, p := range s.Players {
		if p.Present() {
			present++
		}
	}
	return Status{
		NumHostConnections: len(s.HostConnections),
		NumPlayers:         len(s.Players),
		NumPlayersPresent:  present,
		NumPoolQuestions:   len(s.PoolQuestions),
		QuestionID:         s.QuestionID,
		IsQuestionOpen:     s.QuestionOpen,
	}
}
