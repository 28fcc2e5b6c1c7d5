package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/kozaktomas/face-registry/internal/facematch"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <file.yaml>",
	Short: "Register identities in bulk from a YAML file",
	Long: `Register every identity listed in a YAML file. Each entry goes through the
same name and duplicate-face checks as a single registration, in file order.

File format:
  identities:
    - name: Alice
      descriptor: [0.013, -0.094, ...]   # 128 numbers
    - name: Bob
      descriptor: [...]

Entries that are rejected or invalid are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().Bool("dry-run", false, "Validate the file without registering anything")
}

// EnrollFile is the batch enrollment document
type EnrollFile struct {
	Identities []EnrollEntry `yaml:"identities"`
}

// EnrollEntry is a single identity to register
type EnrollEntry struct {
	Name       string    `yaml:"name"`
	Descriptor []float64 `yaml:"descriptor"`
}

// parseEnrollFile decodes a batch file, rejecting unknown keys so typos do
// not silently drop descriptors.
func parseEnrollFile(data []byte) (*EnrollFile, error) {
	var f EnrollFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing enrollment file: %w", err)
	}
	if len(f.Identities) == 0 {
		return nil, errors.New("enrollment file lists no identities")
	}
	return &f, nil
}

// validateEntries checks every entry before anything is written and reports
// names listed twice (after canonicalization).
func validateEntries(entries []EnrollEntry) []string {
	var problems []string
	seen := make(map[string]int)
	for i, e := range entries {
		name, err := facematch.ValidateName(e.Name)
		if err != nil {
			problems = append(problems, fmt.Sprintf("entry %d: %v", i+1, err))
			continue
		}
		if err := facematch.DescriptorFromFloat64(e.Descriptor).Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("entry %d (%s): %v", i+1, name, err))
		}
		if prev, ok := seen[name]; ok {
			problems = append(problems, fmt.Sprintf("entry %d (%s): name already listed in entry %d", i+1, name, prev))
			continue
		}
		seen[name] = i + 1
	}
	return problems
}

func runEnroll(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading enrollment file: %w", err)
	}
	file, err := parseEnrollFile(data)
	if err != nil {
		return err
	}

	problems := validateEntries(file.Identities)
	for _, p := range problems {
		fmt.Printf("Invalid: %s\n", p)
	}
	if mustGetBool(cmd, "dry-run") {
		fmt.Printf("Checked %d entries, %d problems\n", len(file.Identities), len(problems))
		return nil
	}

	ctx := context.Background()
	service, store, err := openService(ctx, loadConfig(cmd))
	if err != nil {
		return err
	}
	defer closeStore(store)

	bar := progressbar.NewOptions(len(file.Identities),
		progressbar.OptionSetDescription("Enrolling"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("identities"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	counts := make(map[string]int)
	var messages []string
	for i, e := range file.Identities {
		res, _, err := service.Register(ctx, e.Name, facematch.DescriptorFromFloat64(e.Descriptor))
		bar.Add(1)

		switch {
		case errors.Is(err, facematch.ErrInvalidInput):
			counts["invalid"]++
		case err != nil:
			bar.Finish()
			return fmt.Errorf("entry %d (%s): %w", i+1, e.Name, err)
		case res.Outcome == facematch.OutcomeDuplicateFace:
			counts[string(res.Outcome)]++
			messages = append(messages, fmt.Sprintf("%s: face already registered as %s (distance %s)",
				res.Name, res.Existing.Name, formatDistance(res.Existing.Distance)))
		case res.Outcome == facematch.OutcomeNameTaken:
			counts[string(res.Outcome)]++
			messages = append(messages, fmt.Sprintf("%s: name already taken", res.Name))
		default:
			counts[string(res.Outcome)]++
		}
	}
	bar.Finish()
	fmt.Println()

	for _, m := range messages {
		fmt.Printf("Skipped %s\n", m)
	}

	outcomes := make([]string, 0, len(counts))
	for o := range counts {
		outcomes = append(outcomes, o)
	}
	sort.Strings(outcomes)
	fmt.Printf("Processed %d entries:\n", len(file.Identities))
	for _, o := range outcomes {
		fmt.Printf("  %-15s %d\n", o, counts[o])
	}
	return nil
}
