package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"partyquiz-client/internal/config"
	"partyquiz-client/internal/session"
	"partyquiz-client/internal/state"
)

// NewHostCmd builds the CLI subcommand running the host flow.
func NewHostCmd(configPath, endpoint *string) *cobra.Command {
	var (
		quizID      string
		clientID    string
		observe     bool
		create      bool
		makeDefault bool
	)

	cmd := &cobra.Command{
		Use:   "host",
		Short: "Run a quiz as a host",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHost(cmd.Context(), *configPath, *endpoint, hostArgs{
				quizID:      quizID,
				clientID:    clientID,
				observe:     observe,
				create:      create,
				makeDefault: makeDefault,
			})
		},
	}
	cmd.Flags().StringVar(&quizID, "quiz", "", "quiz id to join")
	cmd.Flags().StringVar(&clientID, "client-id", "", "host client id to join with")
	cmd.Flags().BoolVar(&observe, "observe", false, "join as a passive screen")
	cmd.Flags().BoolVar(&create, "create", false, "create a new quiz")
	cmd.Flags().BoolVar(&makeDefault, "default", false, "make the created quiz the default one")
	return cmd
}

type hostArgs struct {
	quizID, clientID    string
	observe             bool
	create, makeDefault bool
}

func runHost(ctx context.Context, configPath, endpoint string, args hostArgs) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	sess, cleanup, err := buildSession(cfg, endpoint)
	if err != nil {
		return err
	}
	defer cleanup()
	defer sess.Close()

	if err := sess.Restore(ctx); err != nil {
		return err
	}

	switch {
	case args.create:
		if err := sess.CreateQuiz(ctx, args.clientID, args.makeDefault); err != nil {
			return err
		}
		log.Printf("created quiz %s as host %s", sess.Identity().QuizID, sess.Identity().ClientID)
	case sess.Phase() == session.PhaseAnonymous:
		if err := sess.JoinQuiz(ctx, args.quizID, args.clientID, args.observe); err != nil {
			return err
		}
	default:
		log.Printf("recovered identity %s for quiz %s", sess.Identity().ClientID, sess.Identity().QuizID)
	}

	if err := sess.Connect(ctx); err != nil {
		return err
	}

	startPump(ctx, sess)
	go previewLoop(ctx, sess, cfg)
	return hostConsole(ctx, sess, cfg)
}

// previewLoop prints a rotating window of pool questions while the
// preview is enabled, mirroring the lobby screen's rotation.
func previewLoop(ctx context.Context, sess *session.Session, cfg config.Config) {
	ticker := time.NewTicker(config.Duration(cfg.Preview.Interval, 5*time.Second))
	defer ticker.Stop()

	offset := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		snap := sess.Snapshot()
		if !snap.PreviewEnabled {
			continue
		}
		window := state.PreviewQuestions(snap, offset, cfg.Preview.Limit)
		for _, q := range window {
			fmt.Printf("preview: %s\n", q.Question)
		}
		offset += len(window)
	}
}

// hostConsole drives the quiz from stdin. One command per line; unknown
// input prints the usage line instead of failing the session. While the
// session sits in the error phase any input triggers a reconnect.
func hostConsole(ctx context.Context, sess *session.Session, cfg config.Config) error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if sess.Phase() == session.PhaseError {
			if err := reconnect(ctx, sess); err != nil {
				log.Printf("reconnect failed: %v", err)
			}
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if err := hostCommand(ctx, sess, cfg, fields); err != nil {
			log.Printf("%s: %v", fields[0], err)
		}
	}
	return scanner.Err()
}

func hostCommand(ctx context.Context, sess *session.Session, cfg config.Config, fields []string) error {
	switch fields[0] {
	case "next":
		q, opened, quarantined, err := sess.NextQuestion(ctx)
		if err != nil {
			return err
		}
		switch {
		case quarantined:
			log.Printf("author of %q is absent; confirm or skip", q.Question)
		case opened:
			log.Printf("opened: %s", q.Question)
		}
		return nil
	case "confirm":
		return sess.ConfirmQuarantine(ctx)
	case "skip":
		sess.SkipQuarantine()
		return nil
	case "close":
		return sess.CloseQuestion(ctx)
	case "view":
		if len(fields) < 2 {
			return fmt.Errorf("usage: view <lobby|question|scores>")
		}
		return sess.SwitchView(ctx, fields[1])
	case "preview":
		return sess.TogglePreview(ctx)
	case "status":
		if err := sess.RequestStatus(); err != nil {
			return err
		}
		// The reply arrives on the event stream, not as a response.
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if st, ok := sess.LastStatus(); ok {
				fmt.Printf("quiz %s: %d players (%d present), %d pool questions, question %d open=%v\n",
					st.QuizID, st.NumPlayers, st.NumPlayersPresent,
					st.NumPoolQuestions, st.QuestionID, st.IsQuestionOpen)
				return nil
			}
			time.Sleep(20 * time.Millisecond)
		}
		return fmt.Errorf("no status reply from the backend")
	case "scores":
		printScores(sess.Snapshot(), cfg.Scoring.MinAnswers, cfg.Scoring.MaxScore)
		return nil
	case "players":
		printPlayers(sess.Snapshot())
		return nil
	default:
		return fmt.Errorf("commands: next confirm skip close view preview status scores players")
	}
}

func printScores(snap state.Snapshot, minAnswers, maxScore int) {
	scores := state.Scores(snap, minAnswers, maxScore)
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return scores[names[i]].Total() > scores[names[j]].Total()
	})
	for _, name := range names {
		sc := scores[name]
		fmt.Printf("%-20s %4d (answers %d, authoring %d)\n", name, sc.Total(), sc.Answers, sc.Authoring)
	}
}

func printPlayers(snap state.Snapshot) {
	names := make([]string, 0, len(snap.Players))
	for name := range snap.Players {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := snap.Players[name]
		mark := " "
		if p.Present() {
			mark = "*"
		}
		fmt.Printf("%s %s\n", mark, name)
	}
}
