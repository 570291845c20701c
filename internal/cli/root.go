package cli

import (
	"github.com/dfryer1193/alttext/internal/app"
	"github.com/dfryer1193/alttext/internal/config"
	"github.com/dfryer1193/alttext/internal/logging"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the alttext command tree
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "alttext",
		Short:         "Derive image alt text from filenames",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newDeriveCommand(),
		newBackfillCommand(),
		newStatsCommand(),
	)

	return root
}

// openApp loads configuration and wires the services a command needs
func openApp() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	return app.New(cfg)
}
