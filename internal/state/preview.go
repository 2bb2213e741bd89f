package state

import (
	"sort"

	"partyquiz-client/internal/protocol"
)

// PreviewQuestions returns up to limit pool questions starting at offset
// in stable author order, wrapping around the pool. The lobby preview
// rotates through the pool by advancing the offset on every tick.
func PreviewQuestions(s Snapshot, offset, limit int) []protocol.Question {
	if limit <= 0 || len(s.PoolQuestions) == 0 {
		return nil
	}

	authors := make([]string, 0, len(s.PoolQuestions))
	for author := range s.PoolQuestions {
		authors = append(authors, author)
	}
	sort.Strings(authors)

	if limit > len(authors) {
		limit = len(authors)
	}
	out := make([]protocol.Question, 0, limit)
	for i := 0; i < limit; i++ {
		author := authors[(offset+i)%len(authors)]
		out = append(out, s.PoolQuestions[author])
	}
	return out
}
