package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-finance/internal/calculator"
	"github.com/p-n-ai/pai-finance/internal/content"
)

func newConceptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "concepts",
		Short: "List concepts, optionally filtered by module or search text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			module, _ := cmd.Flags().GetString("module")
			query, _ := cmd.Flags().GetString("search")

			tw := tabwriter.NewWriter(out(cmd), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tLEVEL\tMODULE\tQUIZZES")
			for _, c := range content.Search(store.Concepts(module), query) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", c.ID, c.Name, c.Level, c.Module, len(store.Quizzes(c.ID)))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String("module", "", "Only list concepts in this module")
	cmd.Flags().String("search", "", "Only list concepts whose id or name contains this text")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <concept-id>",
		Short: "Show a concept with its quizzes, practices and case studies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			c, ok := store.Concept(args[0])
			if !ok {
				return fmt.Errorf("concept %q not found", args[0])
			}

			w := out(cmd)
			fmt.Fprintf(w, "%s (%s)\n", c.Name, c.ID)
			fmt.Fprintf(w, "Module: %s\nLevel:  %s\n", c.Module, c.Level)
			section := func(title, body string) {
				if body != "" {
					fmt.Fprintf(w, "\n%s\n  %s\n", title, body)
				}
			}
			section("Definition", c.Definition)
			section("Theory", c.Theory)
			section("Example", c.Example)

			if related := store.Related(c.ID); len(related) > 0 {
				names := make([]string, 0, len(related))
				for _, r := range related {
					names = append(names, r.ID)
				}
				fmt.Fprintf(w, "\nRelated: %s\n", strings.Join(names, ", "))
			}
			for _, p := range store.Practices(c.ID) {
				fmt.Fprintf(w, "\nPractice %s\n  %s\n", p.ID, p.Description)
			}
			for _, cs := range store.CaseStudies(c.ID) {
				fmt.Fprintf(w, "\nCase study: %s\n  %s\n", cs.Title, cs.Description)
			}
			for i, q := range store.Quizzes(c.ID) {
				fmt.Fprintf(w, "\nQ%d. %s\n", i+1, q.Question)
				for _, o := range q.Options {
					mark := " "
					if o == q.CorrectAnswer {
						mark = "*"
					}
					fmt.Fprintf(w, "  %s %s\n", mark, o)
				}
			}
			return nil
		},
	}
}

// checkReport summarises the content served by a store.
type checkReport struct {
	Source           content.Source
	Concepts         int
	QuizConcepts     int
	QuizItems        int
	Practices        int
	CaseStudies      int
	Unspecified      []string
	ModuleCounts     map[string]int
	MissingNextSteps []string
}

func buildCheckReport(store content.Store) checkReport {
	r := checkReport{Source: store.Source(), ModuleCounts: map[string]int{}}
	for _, c := range store.Concepts("") {
		r.Concepts++
		r.ModuleCounts[c.Module]++
		if n := len(store.Quizzes(c.ID)); n > 0 {
			r.QuizConcepts++
			r.QuizItems += n
		}
		r.Practices += len(store.Practices(c.ID))
		r.CaseStudies += len(store.CaseStudies(c.ID))
		if c.Level == content.LevelUnspecified {
			r.Unspecified = append(r.Unspecified, c.ID)
		}
	}
	for _, id := range store.NextSteps() {
		if _, ok := store.Concept(id); !ok {
			r.MissingNextSteps = append(r.MissingNextSteps, id)
		}
	}
	return r
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report which content source is served and what it contains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			r := buildCheckReport(store)

			w := out(cmd)
			fmt.Fprintf(w, "source:        %s\n", r.Source)
			fmt.Fprintf(w, "concepts:      %d\n", r.Concepts)
			fmt.Fprintf(w, "quiz concepts: %d (%d items)\n", r.QuizConcepts, r.QuizItems)
			fmt.Fprintf(w, "practices:     %d\n", r.Practices)
			fmt.Fprintf(w, "case studies:  %d\n", r.CaseStudies)
			for _, m := range store.Modules() {
				fmt.Fprintf(w, "  %-40s %d\n", m, r.ModuleCounts[m])
			}
			if len(r.Unspecified) > 0 {
				fmt.Fprintf(w, "no level:      %s\n", strings.Join(r.Unspecified, ", "))
			}
			if len(r.MissingNextSteps) > 0 {
				return fmt.Errorf("next steps reference unknown concepts: %s", strings.Join(r.MissingNextSteps, ", "))
			}
			return nil
		},
	}
}

func newCalcCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "calc <calculator-or-concept-id> name=value...",
		Short:   "Compute a financial ratio",
		Example: "  finctl calc current-ratio current_assets=300000 current_liabilities=150000\n" +
			"  finctl calc CurrentRatio current_assets=300000 current_liabilities=150000",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, ok := calculator.ByID(args[0])
			if !ok {
				calc, ok = calculator.ForConcept(args[0])
			}
			if !ok {
				ids := make([]string, 0)
				for _, c := range calculator.All() {
					ids = append(ids, c.ID)
				}
				sort.Strings(ids)
				return fmt.Errorf("no calculator for %q (available: %s)", args[0], strings.Join(ids, ", "))
			}

			inputs, err := parseInputs(args[1:])
			if err != nil {
				return err
			}
			res, err := calc.Compute(inputs)
			if err != nil {
				return fmt.Errorf("%s: %w", calc.ID, err)
			}
			fmt.Fprintf(out(cmd), "%s\n[%s] %s\n", res.Display, res.Tone, res.Advice)
			return nil
		},
	}
}

// parseInputs reads name=value pairs.
func parseInputs(args []string) (map[string]float64, error) {
	inputs := make(map[string]float64, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid input %q: want name=value", arg)
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", name, err)
		}
		inputs[name] = v
	}
	return inputs, nil
}
