package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"partyquiz-client/internal/config"
	"partyquiz-client/internal/protocol"
	"partyquiz-client/internal/session"
)

// NewPlayerCmd builds the CLI subcommand running the player flow.
func NewPlayerCmd(configPath, endpoint *string) *cobra.Command {
	var (
		name    string
		avatar  string
		quizID  string
		qText   string
		choices []string
		answer  int
	)

	cmd := &cobra.Command{
		Use:   "player",
		Short: "Join a quiz as a player",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlayer(cmd.Context(), *configPath, *endpoint, playerArgs{
				name:    name,
				avatar:  avatar,
				quizID:  quizID,
				qText:   qText,
				choices: choices,
				answer:  answer,
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "player name (required on first run)")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar identifier")
	cmd.Flags().StringVar(&quizID, "quiz", "", "quiz id (default quiz when empty)")
	cmd.Flags().StringVar(&qText, "question", "", "pool question to submit after joining")
	cmd.Flags().StringSliceVar(&choices, "choices", nil, "choices for the pool question")
	cmd.Flags().IntVar(&answer, "answer", 0, "1-based correct choice of the pool question")
	return cmd
}

type playerArgs struct {
	name, avatar, quizID string
	qText                string
	choices              []string
	answer               int
}

func runPlayer(ctx context.Context, configPath, endpoint string, args playerArgs) error {
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

	if sess.Phase() == session.PhaseAnonymous {
		if args.name == "" {
			return fmt.Errorf("no saved identity; --name is required to register")
		}
		if err := sess.RegisterPlayer(ctx, args.quizID, args.name, args.avatar); err != nil {
			return err
		}
	} else {
		log.Printf("recovered identity %s for quiz %s", sess.Identity().ClientID, sess.Identity().QuizID)
	}

	if err := sess.Connect(ctx); err != nil {
		return err
	}

	if args.qText != "" {
		err := sess.SubmitPoolQuestion(ctx, protocol.Question{
			Question: args.qText,
			Choices:  args.choices,
			Answer:   args.answer,
		})
		if err != nil {
			return fmt.Errorf("submit pool question: %w", err)
		}
		log.Printf("pool question submitted")
	}

	startPump(ctx, sess)
	return answerConsole(ctx, sess)
}

// answerConsole reads 1-based choice numbers from stdin and submits
// them for the open question. Presenting questions is a rendering
// concern and stays out of here; the open question text is available
// from the snapshot. While the session sits in the error phase any
// input triggers a reconnect instead.
func answerConsole(ctx context.Context, sess *session.Session) error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if sess.Phase() == session.PhaseError {
			if err := reconnect(ctx, sess); err != nil {
				log.Printf("reconnect failed: %v", err)
			}
			continue
		}
		line := strings.TrimSpace(scanner.Text())
		choice, err := strconv.Atoi(line)
		if err != nil {
			continue
		}
		if err := sess.Answer(ctx, choice); err != nil {
			log.Printf("answer: %v", err)
			continue
		}
		log.Printf("answer %d submitted", choice)
	}
	return scanner.Err()
}
