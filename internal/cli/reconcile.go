package cli

import (
	"errors"
	"fmt"

	"pulse/internal/repository"
	"pulse/internal/service"

	"github.com/spf13/cobra"
)

// ReconcileSummary reports how many stored counters were rewritten.
type ReconcileSummary struct {
	PostCountersCorrected int64 `json:"postCountersCorrected"`
	UserCountersCorrected int64 `json:"userCountersCorrected"`
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reconcile [postId]",
		Short: "Rewrite denormalized counters from source rows",
		Long: `Rewrite likes and stats.commentsCount of one post from its like and
comment rows, or with --all rewrite every post counter and every author's
stats.postsCount.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return errors.New("pass either a post id or --all")
			}
			rt, err := rootOpts.open()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			postRepo := repository.NewPostRepository(rt.DB)
			userRepo := repository.NewUserRepository(rt.DB)

			if !all {
				counters, err := service.NewPostService(postRepo, userRepo).ReconcilePostCounters(ctx, args[0])
				if err != nil {
					return err
				}
				return emit(cmd.OutOrStdout(), rootOpts.Format, counters,
					fmt.Sprintf("post %s: likes=%d comments=%d (likes corrected=%t, comments corrected=%t)",
						counters.PostID, counters.Likes, counters.CommentsCount,
						counters.LikesCorrected, counters.CommentsCorrected))
			}

			var sum ReconcileSummary
			if sum.PostCountersCorrected, err = postRepo.ReconcileAllCounters(ctx); err != nil {
				return fmt.Errorf("reconcile post counters: %w", err)
			}
			if sum.UserCountersCorrected, err = userRepo.ReconcileAllPostsCounts(ctx); err != nil {
				return fmt.Errorf("reconcile posts counts: %w", err)
			}
			return emit(cmd.OutOrStdout(), rootOpts.Format, sum,
				fmt.Sprintf("corrected %d post counter(s), %d user posts count(s)",
					sum.PostCountersCorrected, sum.UserCountersCorrected))
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "reconcile every post and user")
	return cmd
}
