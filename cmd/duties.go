package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	config "duty-tracker.com/duty-tracker/internal/configs"
	"duty-tracker.com/duty-tracker/pkg/client"
)

var dutiesCmd = &cobra.Command{
	Use:   "duties",
	Short: "Manage duties through the HTTP API",
	Long: `Manage duties through the HTTP API at API_URL.

Example:
  duty-tracker duties add "Water the plants"
  duty-tracker duties list`,
}

var dutiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all duties",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newAPIClient()
		if err != nil {
			return err
		}

		duties, err := c.List(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCREATED AT")
		for _, d := range duties {
			fmt.Fprintf(w, "%d\t%s\t%s\n", d.ID, d.Name, d.CreatedAt.Local().Format(time.RFC3339))
		}
		return w.Flush()
	},
}

var dutiesAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a duty",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newAPIClient()
		if err != nil {
			return err
		}

		duty, err := c.Create(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created duty %d: %s\n", duty.ID, duty.Name)
		return nil
	},
}

var dutiesUpdateCmd = &cobra.Command{
	Use:   "update ID NAME",
	Short: "Rename a duty",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseDutyID(args[0])
		if err != nil {
			return err
		}

		c, _, err := newAPIClient()
		if err != nil {
			return err
		}

		duty, err := c.Update(cmd.Context(), id, args[1])
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Updated duty %d: %s\n", duty.ID, duty.Name)
		return nil
	},
}

var dutiesDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a duty",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseDutyID(args[0])
		if err != nil {
			return err
		}

		c, _, err := newAPIClient()
		if err != nil {
			return err
		}

		if err := c.Delete(cmd.Context(), id); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Deleted duty %d\n", id)
		return nil
	},
}

func parseDutyID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid duty id %q", raw)
	}
	return id, nil
}

func newAPIClient() (*client.Client, config.Config, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, config.Config{}, err
	}

	c := client.New(cfg.APIURL,
		client.WithTimeout(cfg.APITimeout()),
		client.WithLogger(logger),
	)
	return c, cfg, nil
}

func init() {
	dutiesCmd.AddCommand(dutiesListCmd, dutiesAddCmd, dutiesUpdateCmd, dutiesDeleteCmd)
	rootCmd.AddCommand(dutiesCmd)
}
