package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hpatkar/verdeiq/internal/bank"
	"github.com/hpatkar/verdeiq/internal/config"
	"github.com/hpatkar/verdeiq/internal/render"
	"github.com/hpatkar/verdeiq/internal/scoring"
	"github.com/hpatkar/verdeiq/internal/storage"
)

type assessmentResponse struct {
	Assessment storage.Assessment `json:"assessment"`
	Result     scoring.Result     `json:"result"`
	Warning    string             `json:"warning"`
}

// --- score ---

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a set of answers locally, without saving anything",
	Long: `Score a set of answers locally, without saving anything.

Answers are a JSON object mapping question id to the selected option text.
The bank and weight table are loaded from config (or the embedded defaults),
so no running server is needed.

Examples:
  verdeiq score --answers answers.json
  cat answers.json | verdeiq score --answers -
  verdeiq score --answers answers.json --sector Manufacturing`,
	RunE: func(cmd *cobra.Command, args []string) error {
		answersPath, _ := cmd.Flags().GetString("answers")
		sector, _ := cmd.Flags().GetString("sector")

		answers, err := readAnswers(answersPath)
		if err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		return scoreLocal(cfg, answers, sector, cmd.OutOrStdout())
	},
}

// scoreLocal computes a one-shot score in-process: no server, no
// persistence. Sector weighting comes from the --sector flag alone.
func scoreLocal(cfg config.Config, answers map[string]string, sector string, out io.Writer) error {
	b, weights, err := loadBank(cfg)
	if err != nil {
		return err
	}

	result := scoring.Calculate(b, scoring.ResponseSet(answers), sector, weights)
	fmt.Fprint(out, render.Scorecard(result, ""))
	return nil
}

func init() {
	scoreCmd.Flags().String("answers", "", "path to answers JSON file ('-' for stdin)")
	scoreCmd.Flags().String("sector", "", "industry sector override for weighting")
	scoreCmd.MarkFlagRequired("answers")
}

func readAnswers(path string) (map[string]string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading answers: %w", err)
	}

	var answers map[string]string
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("answers must be a JSON object of question id to option text: %w", err)
	}
	if len(answers) == 0 {
		return nil, fmt.Errorf("answers file is empty")
	}
	return answers, nil
}

// --- assess ---

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Run the interactive questionnaire and save the assessment",
	Long: `Run the interactive questionnaire and save the assessment.

Walks through every question in the bank; answer with the option number,
or press Enter to skip. The result is persisted and, when a Cohere API
key is configured, an improvement roadmap is generated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/questions")
		if err != nil {
			return err
		}
		var questions []bank.Question
		if err := decodeJSON(resp, &questions); err != nil {
			return err
		}
		if len(questions) == 0 {
			return fmt.Errorf("question bank is empty")
		}

		answers, err := promptAnswers(cmd.InOrStdin(), cmd.OutOrStdout(), questions)
		if err != nil {
			return err
		}
		if len(answers) == 0 {
			return fmt.Errorf("no questions answered")
		}

		printStep("Scoring %d answers...", len(answers))
		createResp, err := client.post(cmd.Context(), "/assessments", map[string]any{"answers": answers})
		if err != nil {
			return err
		}

		var out assessmentResponse
		if err := decodeJSON(createResp, &out); err != nil {
			return err
		}

		fmt.Println()
		fmt.Print(render.Scorecard(out.Result, ""))
		if out.Warning != "" {
			printWarning("%s", out.Warning)
		}
		if out.Assessment.Narrative != "" {
			fmt.Println()
			fmt.Print(render.Roadmap(out.Assessment.Narrative))
		}
		printSuccess("Saved assessment %s", out.Assessment.ID)
		return nil
	},
}

// promptAnswers walks the questionnaire on the given reader/writer. An
// empty line skips the question; out-of-range input re-prompts.
func promptAnswers(in io.Reader, out io.Writer, questions []bank.Question) (map[string]string, error) {
	scanner := bufio.NewScanner(in)
	answers := make(map[string]string)

	for i, q := range questions {
		fmt.Fprint(out, render.Question(q, i+1, len(questions)))

		for {
			fmt.Fprintf(out, "answer [1-%d, Enter to skip]: ", len(q.Options))
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return nil, fmt.Errorf("reading input: %w", err)
				}
				// EOF ends the questionnaire with what we have.
				return answers, nil
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				break
			}
			n, err := strconv.Atoi(line)
			if err != nil || n < 1 || n > len(q.Options) {
				fmt.Fprintf(out, "please enter a number between 1 and %d\n", len(q.Options))
				continue
			}
			answers[q.ID] = q.Options[n-1]
			break
		}
		fmt.Fprintln(out)
	}
	return answers, nil
}

// --- questions ---

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "List the question bank",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/questions")
		if err != nil {
			return err
		}
		var questions []bank.Question
		if err := decodeJSON(resp, &questions); err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(questions)
		}

		for i, q := range questions {
			fmt.Print(render.Question(q, i+1, len(questions)))
			fmt.Println()
		}
		return nil
	},
}

func init() {
	questionsCmd.Flags().Bool("json", false, "output raw JSON")
}

// --- assessments ---

var assessmentsCmd = &cobra.Command{
	Use:   "assessments",
	Short: "Manage saved assessments",
}

var assessmentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved assessments, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/assessments?limit=%d", limit))
		if err != nil {
			return err
		}
		var assessments []storage.Assessment
		if err := decodeJSON(resp, &assessments); err != nil {
			return err
		}

		if len(assessments) == 0 {
			fmt.Println("No assessments found.")
			return nil
		}

		for _, a := range assessments {
			// Pad the badge before coloring so the ANSI codes don't
			// throw off the column width.
			badge := colorize(badgeColor(scoring.Tier(a.Badge)), fmt.Sprintf("%-10s", a.Badge))
			fmt.Printf("%s  %s  %3d/100  %s  %s\n",
				colorize(colorCyan, a.ID[:8]),
				a.CreatedAt.Format("2006-01-02 15:04"),
				a.Composite,
				badge,
				a.Sector,
			)
		}
		return nil
	},
}

var assessmentsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single assessment as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/assessments/"+args[0])
		if err != nil {
			return err
		}

		var assessment any
		if err := decodeJSON(resp, &assessment); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(assessment)
	},
}

var assessmentsExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export an assessment as a flat JSON report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/assessments/"+args[0]+"/export")
		if err != nil {
			return err
		}

		var snapshot any
		if err := decodeJSON(resp, &snapshot); err != nil {
			return err
		}

		writer := os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			writer = f
		}

		enc := json.NewEncoder(writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snapshot); err != nil {
			return err
		}

		if output != "" {
			printSuccess("Exported to %s", output)
		}
		return nil
	},
}

var assessmentsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved assessment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/assessments/"+args[0])
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Deleted assessment %s", args[0])
		return nil
	},
}

func init() {
	assessmentsListCmd.Flags().Int("limit", 20, "maximum number of assessments to list")
	assessmentsExportCmd.Flags().String("output", "", "output file path (default: stdout)")
	assessmentsCmd.AddCommand(assessmentsListCmd)
	assessmentsCmd.AddCommand(assessmentsShowCmd)
	assessmentsCmd.AddCommand(assessmentsExportCmd)
	assessmentsCmd.AddCommand(assessmentsDeleteCmd)
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the company profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the company profile as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/profile")
		if err != nil {
			return err
		}

		var company any
		if err := decodeJSON(resp, &company); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(company)
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a company profile field (name, industry, sector_type, size, region)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.patch(cmd.Context(), "/profile", map[string]string{key: value})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
