package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage enrolled identities",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled identities",
	Args:  cobra.NoArgs,
	RunE:  runUsersList,
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove an enrolled identity",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersDelete,
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersDeleteCmd)

	usersListCmd.Flags().Bool("json", false, "Output as JSON")
}

func runUsersList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	service, store, err := openService(ctx, loadConfig(cmd))
	if err != nil {
		return err
	}
	defer closeStore(store)

	users, err := service.List(ctx)
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		return printJSON(users)
	}

	if len(users) == 0 {
		fmt.Println("No identities enrolled.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tACCESSES\tLAST ACCESS\tENROLLED\tID")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			u.Name,
			u.AccessCount,
			u.LastAccessAt.Format("2006-01-02 15:04"),
			u.CreatedAt.Format("2006-01-02 15:04"),
			u.ID,
		)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d identities\n", len(users))
	return nil
}

func runUsersDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	service, store, err := openService(ctx, loadConfig(cmd))
	if err != nil {
		return err
	}
	defer closeStore(store)

	if err := service.Delete(ctx, args[0]); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("no identity named %q", args[0])
		}
		return err
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}
