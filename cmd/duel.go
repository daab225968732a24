package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathduel/internal/battle"
	"github.com/abhisek/mathduel/internal/problemgen"
	"github.com/abhisek/mathduel/internal/ui/components"
	"github.com/abhisek/mathduel/internal/ui/theme"
)

const boardWidth = 48

var duelCmd = &cobra.Command{
	Use:   "duel",
	Short: "Battle the scripted opponent in the terminal",
	RunE:  runDuel,
}

func addDuelFlags(c *cobra.Command) {
	c.Flags().Uint64("seed", 0, "Seed for the deal and the opponent (0 picks one)")
	c.Flags().String("preference", "", "Problem difficulty: practice, adaptive or challenge")
}

func init() {
	addDuelFlags(duelCmd)
}

func runDuel(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	seed, _ := cmd.Flags().GetUint64("seed")
	pref, _ := cmd.Flags().GetString("preference")
	if pref == "" {
		pref = cfg.Player.Preference
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	gen, err := newGenerator(ctx, st.LLMEvents())
	if err != nil {
		return err
	}
	mgr := newManager(gen, st)

	e, err := mgr.Start(ctx, battle.StartRequest{
		PlayerID:   cfg.Player.ID,
		PlayerName: cfg.Player.Name,
		Level:      cfg.Player.Level,
		Preference: problemgen.Preference(pref),
		Opponent:   cfg.Enemy.Name,
		Archetype:  cfg.Enemy.Archetype,
		Seed:       seed,
	})
	if err != nil {
		return fmt.Errorf("start battle: %w", err)
	}
	defer mgr.Remove(e.ID())

	d := &duel{engine: e, out: cmd.OutOrStdout(), lines: readLines(cmd.InOrStdin())}
	return d.run(ctx)
}

// readLines feeds input lines to a channel so a countdown can interrupt a
// pending read. The channel is closed at EOF.
func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			lines <- strings.TrimSpace(sc.Text())
		}
	}()
	return lines
}

type duel struct {
	engine *battle.Engine
	out    io.Writer
	lines  <-chan string
}

var errQuit = errors.New("quit")

func (d *duel) run(ctx context.Context) error {
	fmt.Fprintln(d.out, theme.Title.Render("⚔  MathDuel"))
	for {
		s := d.engine.Summary()
		if s.Phase == battle.PhaseEnded {
			fmt.Fprintln(d.out)
			fmt.Fprintln(d.out, components.Board(s, boardWidth))
			fmt.Fprintln(d.out)
			fmt.Fprintln(d.out, components.Outcome(s))
			return nil
		}

		var err error
		if s.Turn == battle.SideEnemy {
			err = d.enemyTurn(ctx, s)
		} else {
			err = d.playerTurn(ctx, s)
		}
		switch {
		case errors.Is(err, errQuit):
			fmt.Fprintln(d.out, theme.Subtitle.Render("You left the battle."))
			return nil
		case err != nil:
			return err
		}
	}
}

func (d *duel) read(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", errQuit
	case line, ok := <-d.lines:
		if !ok {
			return "", errQuit
		}
		return line, nil
	}
}

func (d *duel) enemyTurn(ctx context.Context, s battle.Summary) error {
	res, err := d.engine.EnemyTurn(ctx)
	if err != nil {
		return fmt.Errorf("enemy turn: %w", err)
	}
	fmt.Fprintln(d.out)
	fmt.Fprintf(d.out, "%s plays %s\n", s.Enemy.Name, components.CardLine(res.Play.Card, 0))
	fmt.Fprintln(d.out, theme.Subtitle.Render(res.Play.Problem.Text))
	fmt.Fprintln(d.out, components.AnswerView(res.Answer, s.Enemy.Name))
	return nil
}

func (d *duel) playerTurn(ctx context.Context, s battle.Summary) error {
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, components.Board(s, boardWidth))

	var pl *battle.PlayResult
	for pl == nil {
		fmt.Fprintf(d.out, "\nPlay a card (1-%d, q to quit): ", len(s.Player.Hand))
		line, err := d.read(ctx)
		if err != nil {
			return err
		}
		if line == "q" || line == "quit" {
			return errQuit
		}
		idx, err := strconv.Atoi(line)
		if err != nil || idx < 1 || idx > len(s.Player.Hand) {
			fmt.Fprintln(d.out, theme.Hint.Render("Pick a card by its number."))
			continue
		}

		pl, err = d.engine.PlayCard(ctx, battle.PlayRequest{
			CardID:      s.Player.Hand[idx-1].ID,
			CombatantID: s.Player.ID,
		})
		if err != nil {
			fmt.Fprintln(d.out, theme.Incorrect.Render(err.Error()))
		}
	}
	return d.answer(ctx, s, pl)
}

func (d *duel) answer(ctx context.Context, s battle.Summary, pl *battle.PlayResult) error {
	expired := make(chan *battle.AnswerResult, 1)
	if err := d.engine.ArmCountdown(pl.PlayID, func(res *battle.AnswerResult) { expired <- res }); err != nil {
		return err
	}

	hints := 0
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, components.ProblemView(pl.Problem, hints))
	fmt.Fprintln(d.out, components.PreviewLine(pl.Preview))

	for {
		fmt.Fprint(d.out, "Your answer (? for a hint): ")

		var line string
		select {
		case res := <-expired:
			fmt.Fprintln(d.out)
			fmt.Fprintln(d.out, components.AnswerView(res, s.Player.Name))
			return nil
		case <-ctx.Done():
			return errQuit
		case l, ok := <-d.lines:
			if !ok {
				return errQuit
			}
			line = l
		}

		if line == "?" {
			if hints < len(pl.Problem.Hints) {
				hints++
				fmt.Fprintln(d.out, components.ProblemView(pl.Problem, hints))
			} else {
				fmt.Fprintln(d.out, theme.Hint.Render("No more hints."))
			}
			continue
		}

		res, err := d.engine.SubmitAnswer(ctx, battle.AnswerRequest{
			PlayID:    pl.PlayID,
			Answer:    line,
			HintsUsed: hints,
		})
		switch {
		case errors.Is(err, battle.ErrMalformedAnswer):
			fmt.Fprintln(d.out, theme.Hint.Render("That doesn't look like an answer."))
			continue
		case errors.Is(err, battle.ErrTimeoutExpired):
			res = <-expired
		case err != nil:
			return fmt.Errorf("submit answer: %w", err)
		}
		fmt.Fprintln(d.out, components.AnswerView(res, s.Player.Name))
		return nil
	}
}
