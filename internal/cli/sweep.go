package cli

import (
	"fmt"
	"strings"

	"pulse/internal/models"
	"pulse/internal/repository"
	"pulse/internal/service"

	"github.com/spf13/cobra"
)

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove records left behind by partially failed deletions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := rootOpts.open()
			if err != nil {
				return err
			}
			svc := service.NewCascadeService(
				repository.NewPostRepository(rt.DB),
				repository.NewCommentRepository(rt.DB),
				repository.NewFollowRepository(rt.DB),
				repository.NewNotificationRepository(rt.DB),
				repository.NewUserRepository(rt.DB),
			)

			report, err := svc.SweepOrphans(cmd.Context())
			if err != nil && !(report != nil && models.HasCode(err, models.CodePartialCascadeFailure)) {
				return err
			}
			if werr := emit(cmd.OutOrStdout(), rootOpts.Format, report, describeSweep(report)); werr != nil {
				return werr
			}
			return err
		},
	}
}

func describeSweep(r *service.SweepReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "orphan posts: %d\n", r.OrphanPostsDeleted)
	fmt.Fprintf(&b, "comments: %d\n", r.CommentsRemoved)
	fmt.Fprintf(&b, "likes/bookmarks: %d\n", r.EngagementRemoved)
	fmt.Fprintf(&b, "follows: %d\n", r.FollowsRemoved)
	fmt.Fprintf(&b, "notifications: %d\n", r.NotificationsRemoved)
	fmt.Fprintf(&b, "post counters corrected: %d\n", r.PostCountersCorrected)
	fmt.Fprintf(&b, "user counters corrected: %d", r.UserCountersCorrected)
	if len(r.FailedSteps) > 0 {
		fmt.Fprintf(&b, "\nfailed steps: %s", strings.Join(r.FailedSteps, ", "))
	}
	return b.String()
}
