package cmd

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathduel/internal/card"
	"github.com/abhisek/mathduel/internal/llm"
	"github.com/abhisek/mathduel/internal/problemgen"
	"github.com/abhisek/mathduel/internal/profile"
	"github.com/abhisek/mathduel/internal/ui/components"
	"github.com/abhisek/mathduel/internal/ui/theme"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Preview generated problems for a card (no database)",
	Long: `Generate and interactively answer problems for one card.

This is a stateless developer tool: no database, no battle, no profile history.
Useful for evaluating problem quality for a topic.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("card", "", "Card ID (required, see 'mathduel cards')")
	generateCmd.Flags().Int("count", 3, "Number of problems to generate")
	generateCmd.Flags().Int("level", profile.DefaultLevel, "Player level (1-5)")
	generateCmd.Flags().String("preference", "adaptive", "Difficulty preference: practice, adaptive or challenge")
	_ = generateCmd.MarkFlagRequired("card")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cardID, _ := cmd.Flags().GetString("card")
	count, _ := cmd.Flags().GetInt("count")
	level, _ := cmd.Flags().GetInt("level")
	pref, _ := cmd.Flags().GetString("preference")

	c, ok := card.DefaultCatalog().Get(cardID)
	if !ok {
		return fmt.Errorf("no card %q", cardID)
	}
	switch problemgen.Preference(pref) {
	case problemgen.PreferencePractice, problemgen.PreferenceAdaptive, problemgen.PreferenceChallenge:
	default:
		return fmt.Errorf("invalid preference %q: must be practice, adaptive or challenge", pref)
	}

	ctx := llm.WithPurpose(cmd.Context(), llm.PurposePreview)
	gen, err := newGenerator(ctx, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	prof := profile.New(level)

	fmt.Fprintf(out, "Card: %s\n", components.CardLine(c, 0))
	fmt.Fprintf(out, "Target difficulty: %d\n\n", gen.BuildRequest(problemgen.Input{
		Card: c, Profile: prof, Battle: problemgen.BattleContext{Preference: problemgen.Preference(pref)},
	}).TargetDifficulty)

	var correct int
	var prior []string
	for i := 1; i <= count; i++ {
		p, err := gen.Generate(ctx, problemgen.Input{
			Card:    c,
			Profile: prof,
			Battle: problemgen.BattleContext{
				Phase:       problemgen.PhaseEarly,
				CardsPlayed: i - 1,
				Preference:  problemgen.Preference(pref),
			},
			Seed:          rand.Uint64(),
			PriorProblems: prior,
		})
		if err != nil {
			return err
		}
		prior = append(prior, p.Text)

		fmt.Fprintf(out, "── Problem %d/%d (%s) ──\n", i, count, p.Source)
		fmt.Fprint(out, components.ProblemView(p, len(p.Hints)))

		fmt.Fprint(out, "\nYour answer: ")
		if !scanner.Scan() {
			fmt.Fprintln(out, "\n(input closed)")
			break
		}
		answer := strings.TrimSpace(scanner.Text())
		if answer == "" {
			fmt.Fprintln(out, "(skipped)")
			fmt.Fprintln(out)
			continue
		}

		ok := problemgen.CheckAnswer(answer, p)
		if ok {
			correct++
			fmt.Fprintln(out, theme.Correct.Render("✓ Correct!"))
		} else {
			fmt.Fprintln(out, theme.Incorrect.Render("✗ Wrong.")+" Answer: "+p.Answer)
		}
		if p.Explanation != "" {
			fmt.Fprintf(out, "Explanation: %s\n", p.Explanation)
		}
		prof.Record(profile.Outcome{Topic: c.Topic, Correct: ok})
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "── Summary: %d/%d correct ──\n", correct, count)
	return nil
}
