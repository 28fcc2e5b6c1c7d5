package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/kozaktomas/face-registry/internal/facematch"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Identify a descriptor against the whole registry",
	Long: `Search every enrolled identity for the one closest to the descriptor.

Examples:
  face-registry check --file probe.json
  face-registry check --descriptor "[0.01, -0.12, ...]" --json`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

var verifyCmd = &cobra.Command{
	Use:   "verify <name>",
	Short: "Verify a descriptor against a claimed name",
	Long: `Compare the descriptor with the identity enrolled under <name> only.
A successful verification is recorded as an access.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

var registerCmd = &cobra.Command{
	Use:   "register <name>",
	Short: "Enroll a new identity",
	Long: `Enroll <name> with the descriptor if the name is free and the face is not
already enrolled under another name.`,
	Args: cobra.ExactArgs(1),
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(registerCmd)

	addDescriptorFlags(checkCmd)
	addDescriptorFlags(verifyCmd)
	addDescriptorFlags(registerCmd)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// candidateJSON mirrors facematch.Candidate with an encodable distance.
type candidateJSON struct {
	Name     string   `json:"name"`
	Distance *float64 `json:"distance,omitempty"`
}

func toCandidateJSON(c *facematch.Candidate) *candidateJSON {
	if c == nil {
		return nil
	}
	out := &candidateJSON{Name: c.Name}
	if !math.IsInf(c.Distance, 0) && !math.IsNaN(c.Distance) {
		d := c.Distance
		out.Distance = &d
	}
	return out
}

func runCheck(cmd *cobra.Command, args []string) error {
	query, err := readDescriptor(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	service, store, err := openService(ctx, loadConfig(cmd))
	if err != nil {
		return err
	}
	defer closeStore(store)

	res, err := service.Check(ctx, query)
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		return printJSON(map[string]any{
			"outcome":   res.Outcome,
			"candidate": toCandidateJSON(res.Candidate),
			"threshold": service.Threshold(),
		})
	}

	switch res.Outcome {
	case facematch.OutcomeEmptyRegistry:
		fmt.Println("No identities enrolled yet. Register this face.")
	case facematch.OutcomeIdentified:
		fmt.Printf("Identified: %s (distance %s)\n", res.Candidate.Name, formatDistance(res.Candidate.Distance))
	default:
		fmt.Println("Unrecognized face.")
		if res.Candidate != nil {
			fmt.Printf("Closest: %s (distance %s, threshold %.2f)\n", res.Candidate.Name, formatDistance(res.Candidate.Distance), service.Threshold())
		}
	}
	if res.Skipped > 0 {
		fmt.Printf("Warning: %d enrolled records have unusable descriptors\n", res.Skipped)
	}
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	query, err := readDescriptor(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	service, store, err := openService(ctx, loadConfig(cmd))
	if err != nil {
		return err
	}
	defer closeStore(store)

	res, err := service.Verify(ctx, args[0], query)
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		return printJSON(map[string]any{
			"outcome":   res.Outcome,
			"name":      res.Name,
			"candidate": toCandidateJSON(res.Candidate),
		})
	}

	switch res.Outcome {
	case facematch.OutcomeVerified:
		fmt.Printf("Verified: %s (distance %s)\n", res.Name, formatDistance(res.Candidate.Distance))
	case facematch.OutcomeRejected:
		fmt.Printf("Rejected: face does not match %s (distance %s)\n", res.Name, formatDistance(res.Candidate.Distance))
	default:
		fmt.Printf("No identity named %s is enrolled.\n", res.Name)
	}
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	query, err := readDescriptor(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	service, store, err := openService(ctx, loadConfig(cmd))
	if err != nil {
		return err
	}
	defer closeStore(store)

	res, rec, err := service.Register(ctx, args[0], query)
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		out := map[string]any{
			"outcome":  res.Outcome,
			"name":     res.Name,
			"existing": toCandidateJSON(res.Existing),
		}
		if rec != nil {
			out["id"] = rec.ID
		}
		return printJSON(out)
	}

	switch res.Outcome {
	case facematch.OutcomeAccepted:
		fmt.Printf("Registered %s (id %s)\n", rec.Name, rec.ID)
	case facematch.OutcomeDuplicateFace:
		fmt.Printf("This face is already registered as %s (distance %s)\n", res.Existing.Name, formatDistance(res.Existing.Distance))
	default:
		fmt.Printf("The name %s is already taken\n", res.Name)
	}
	return nil
}
