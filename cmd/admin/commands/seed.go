package commands

import (
	"fmt"

	"blogadmin/internal/seed"

	"github.com/spf13/cobra"
)

var (
	// Seed flags
	seedCount  int
	seedDays   int
	seedValue  int64
	seedDryRun bool
)

// seedCmd fills the database with demo posts
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create demo posts",
	Long: `Create demo posts through the same pipeline as the admin panel, including
thumbnail conversion.

Examples:
  blogadmin seed --count 50
  blogadmin seed --count 5 --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := bootstrap()
		if err != nil {
			return err
		}
		defer e.close()

		f := seed.NewFactory(e.posts, seed.Options{
			Count:   seedCount,
			MaxDays: seedDays,
			Seed:    seedValue,
			DryRun:  seedDryRun,
		})
		posts, err := f.Seed(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✨ Created %d posts\n", len(posts))
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedCount, "count", 20, "Number of posts to create")
	seedCmd.Flags().IntVar(&seedDays, "days", 30, "Spread publication dates this many days around now")
	seedCmd.Flags().Int64Var(&seedValue, "seed", 0, "Random seed (0 picks one)")
	seedCmd.Flags().BoolVar(&seedDryRun, "dry-run", false, "Generate without writing")
	rootCmd.AddCommand(seedCmd)
}
