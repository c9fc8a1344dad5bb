package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/trellis-inc/trellis/internal/interfaces/cli/migrate"
	"github.com/trellis-inc/trellis/internal/interfaces/cli/server"
	"github.com/trellis-inc/trellis/internal/interfaces/cli/token"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trellis",
		Short: "Trellis - hierarchical quota ledger and allocation engine",
		Long:  `Trellis tracks campaign quota as it flows down a partner hierarchy: grants, sub-allocations, invitation code redemptions, and revocations.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		token.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
