package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	config "duty-tracker.com/duty-tracker/internal/configs"
	"duty-tracker.com/duty-tracker/internal/ui"
	"duty-tracker.com/duty-tracker/pkg/client"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive terminal UI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cfg, err := newUIClient()
		if err != nil {
			return err
		}

		page := ui.NewPageModel(c, ui.WithTimeout(cfg.APITimeout()))
		_, err = tea.NewProgram(page, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
		return err
	},
}

// newUIClient builds a client that never logs. Anything written to stderr
// while the alt screen is active corrupts the rendered page; failures reach
// the user through the page's error line instead.
func newUIClient() (*client.Client, config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, config.Config{}, err
	}

	c := client.New(cfg.APIURL,
		client.WithTimeout(cfg.APITimeout()),
		client.WithLogger(zap.NewNop()),
	)
	return c, cfg, nil
}

func init() {
	rootCmd.AddCommand(uiCmd)
}
