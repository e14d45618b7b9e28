package cli

import (
	"fmt"
	"sort"
	"strings"

	"pulse/internal/seed"

	"github.com/spf13/cobra"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	Fixture string
	Users   int
	Posts   int
	Seed    int64
	Clean   bool
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database from a YAML fixture or with generated data",
		Long: `Populate the database through the regular services so every counter
stays consistent. --fixture loads a YAML file describing users, posts,
likes, comments and follows; otherwise random data is generated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := rootOpts.open()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if opts.Fixture != "" {
				fx, err := seed.LoadFixture(opts.Fixture)
				if err != nil {
					return err
				}
				if opts.Clean {
					if err := seed.Clean(ctx, rt.DB); err != nil {
						return fmt.Errorf("clean: %w", err)
					}
				}
				ids, err := seed.Apply(ctx, rt.DB, fx)
				if err != nil {
					return err
				}
				return emit(cmd.OutOrStdout(), rootOpts.Format, ids, describeIDs(ids))
			}

			sum, err := seed.Demo(ctx, rt.DB, seed.Options{
				NumUsers:    opts.Users,
				NumPosts:    opts.Posts,
				Seed:        opts.Seed,
				ShouldClean: opts.Clean,
			})
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), rootOpts.Format, sum, sum.String())
		},
	}

	cmd.Flags().StringVar(&opts.Fixture, "fixture", "", "YAML fixture to load")
	cmd.Flags().IntVar(&opts.Users, "users", 50, "number of generated users")
	cmd.Flags().IntVar(&opts.Posts, "posts", 200, "number of generated posts")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed (0 = time based)")
	cmd.Flags().BoolVar(&opts.Clean, "clean", false, "delete existing data first")
	cmd.MarkFlagsMutuallyExclusive("fixture", "users")
	cmd.MarkFlagsMutuallyExclusive("fixture", "posts")
	return cmd
}

func describeIDs(ids map[string]string) string {
	keys := make([]string, 0, len(ids))
	for k := range ids {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s=%s", k, ids[k]))
	}
	return strings.Join(lines, "\n")
}
