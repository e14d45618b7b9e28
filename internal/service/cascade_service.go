package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"pulse/internal/models"
	"pulse/internal/observability"
	"pulse/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// Cascade step names reported in failedSteps.
const (
	StepDeleteComments        = "delete_comments"
	StepDeleteNotifications   = "delete_notifications"
	StepDeleteEngagement      = "delete_likes_bookmarks"
	StepDeletePost            = "delete_post"
	StepDecrementPostsCount   = "decrement_author_posts_count"
	StepListPosts             = "list_posts"
	StepReconcileComments     = "reconcile_comment_counts"
	StepReconcileLikes        = "reconcile_like_counts"
	StepDeleteFollows         = "delete_follows"
	StepDeleteUser            = "delete_user"
	StepDeleteOrphanPosts     = "delete_orphan_posts"
	StepReconcilePostCounters = "reconcile_post_counters"
	StepReconcilePostsCounts  = "reconcile_user_posts_counts"
)

// cascadeRun executes independent steps and collects the ones that failed.
type cascadeRun struct {
	target string
	id     string
	// primary names the step that removes the target row itself.
	primary string
	log     *observability.CascadeLogger
	failed  []string
	errs    []error
}

func newCascadeRun(target, id, primary string) *cascadeRun {
	return &cascadeRun{target: target, id: id, primary: primary, log: observability.NewCascadeLogger(target)}
}

func (r *cascadeRun) step(ctx context.Context, name string, fn func() error) {
	if err := fn(); err != nil {
		r.fail(ctx, name, err)
	}
}

func (r *cascadeRun) fail(ctx context.Context, name string, err error) {
	r.failed = append(r.failed, name)
	r.errs = append(r.errs, fmt.Errorf("%s: %w", name, err))
	observability.CascadeFailures.WithLabelValues(r.target, name).Inc()
	r.log.LogStepFailed(ctx, r.id, name, err)
}

// merge folds a nested run's failures in, prefixing step names.
func (r *cascadeRun) merge(prefix string, other *cascadeRun) {
	for i, name := range other.failed {
		r.failed = append(r.failed, prefix+name)
		r.errs = append(r.errs, other.errs[i])
	}
}

func (r *cascadeRun) result(ctx context.Context) error {
	r.log.LogCompleted(ctx, r.id, len(r.failed))
	if len(r.failed) == 0 {
		return nil
	}
	if r.primary != "" && slices.Contains(r.failed, r.primary) {
		return models.NewCascadeAbortedError(r.target, r.id, r.failed, errors.Join(r.errs...))
	}
	return models.NewPartialCascadeError(r.target, r.id, r.failed, errors.Join(r.errs...))
}

// SweepReport counts what an orphan sweep removed or corrected.
type SweepReport struct {
	OrphanPostsDeleted    int      `json:"orphanPostsDeleted"`
	CommentsRemoved       int64    `json:"commentsRemoved"`
	EngagementRemoved     int64    `json:"engagementRemoved"`
	FollowsRemoved        int64    `json:"followsRemoved"`
	NotificationsRemoved  int64    `json:"notificationsRemoved"`
	PostCountersCorrected int64    `json:"postCountersCorrected"`
	UserCountersCorrected int64    `json:"userCountersCorrected"`
	FailedSteps           []string `json:"failedSteps,omitempty"`
}

// CascadeService removes posts and users together with every row that exists
// only in reference to them. Steps run in dependency order, independently of
// each other; a failed step is reported, never rolled back.
type CascadeService struct {
	postRepo         repository.PostRepository
	commentRepo      repository.CommentRepository
	followRepo       repository.FollowRepository
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
}

// NewCascadeService returns a new CascadeService.
func NewCascadeService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	followRepo repository.FollowRepository,
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
) *CascadeService {
	return &CascadeService{
		postRepo:         postRepo,
		commentRepo:      commentRepo,
		followRepo:       followRepo,
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
	}
}

// DeletePost deletes the post and its dependents. A partial failure returns
// an AppError with code PARTIAL_CASCADE_FAILURE listing the failed steps; if
// the post row itself could not be deleted the code is INTERNAL_ERROR.
func (s *CascadeService) DeletePost(ctx context.Context, postID string) (err error) {
	ctx, finish := observability.StartSpan(ctx, "cascade.delete_post", attribute.String("post.id", postID))
	defer func() { finish(err) }()

	authorID, err := s.postRepo.GetAuthorID(ctx, postID)
	if err != nil {
		return err
	}
	return s.deletePost(ctx, postID, authorID).result(ctx)
}

func (s *CascadeService) deletePost(ctx context.Context, postID, authorID string) *cascadeRun {
	run := newCascadeRun("post", postID, StepDeletePost)

	run.step(ctx, StepDeleteComments, func() error {
		_, err := s.commentRepo.DeleteByPost(ctx, postID)
		return err
	})
	run.step(ctx, StepDeleteNotifications, func() error {
		_, err := s.notificationRepo.DeleteByPost(ctx, postID)
		return err
	})
	run.step(ctx, StepDeleteEngagement, func() error {
		return s.postRepo.DeleteEngagementForPost(ctx, postID)
	})

	var removed bool
	run.step(ctx, StepDeletePost, func() error {
		var err error
		removed, err = s.postRepo.Delete(ctx, postID)
		return err
	})
	if removed && authorID != "" {
		run.step(ctx, StepDecrementPostsCount, func() error {
			return s.userRepo.DecrementPostsCount(ctx, authorID)
		})
	}
	return run
}

// DeleteUser deletes the user's posts (with their dependents), the user's
// comments, likes, bookmarks, follow edges and notifications, then the user.
func (s *CascadeService) DeleteUser(ctx context.Context, userID string) (err error) {
	ctx, finish := observability.StartSpan(ctx, "cascade.delete_user", attribute.String("user.id", userID))
	defer func() { finish(err) }()

	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return models.NewNotFoundError("User", userID)
	}

	run := newCascadeRun("user", userID, StepDeleteUser)

	var postIDs []string
	run.step(ctx, StepListPosts, func() error {
		var err error
		postIDs, err = s.postRepo.ListIDsByAuthor(ctx, userID)
		return err
	})
	for _, postID := range postIDs {
		run.merge("post:"+postID+":", s.deletePost(ctx, postID, userID))
	}

	var commented []string
	run.step(ctx, StepDeleteComments, func() error {
		var err error
		commented, err = s.commentRepo.DeleteByAuthor(ctx, userID)
		return err
	})
	run.step(ctx, StepReconcileComments, func() error {
		return s.reconcileEach(ctx, commented, func(postID string) error {
			_, err := s.postRepo.ReconcileCommentsCount(ctx, postID)
			return err
		})
	})

	var liked []string
	run.step(ctx, StepDeleteEngagement, func() error {
		var err error
		liked, err = s.postRepo.DeleteEngagementByUser(ctx, userID)
		return err
	})
	run.step(ctx, StepReconcileLikes, func() error {
		return s.reconcileEach(ctx, liked, func(postID string) error {
			_, err := s.postRepo.ReconcileCounters(ctx, postID)
			return err
		})
	})

	run.step(ctx, StepDeleteFollows, func() error {
		_, err := s.followRepo.DeleteByUser(ctx, userID)
		return err
	})
	run.step(ctx, StepDeleteNotifications, func() error {
		_, err := s.notificationRepo.DeleteByUser(ctx, userID)
		return err
	})
	run.step(ctx, StepDeleteUser, func() error {
		_, err := s.userRepo.Delete(ctx, userID)
		return err
	})

	return run.result(ctx)
}

// reconcileEach applies fn to every post id; posts deleted in the meantime are skipped.
func (s *CascadeService) reconcileEach(ctx context.Context, postIDs []string, fn func(string) error) error {
	var errs []error
	for _, postID := range postIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(postID); err != nil && !models.HasCode(err, models.CodeNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SweepOrphans removes rows that reference missing posts or users and
// reconciles every stored counter. It resumes cascades that stopped midway.
func (s *CascadeService) SweepOrphans(ctx context.Context) (report *SweepReport, err error) {
	ctx, finish := observability.StartSpan(ctx, "cascade.sweep_orphans")
	defer func() { finish(err) }()

	run := newCascadeRun("sweep", "orphans", "")
	report = &SweepReport{}

	var orphanPosts []string
	run.step(ctx, StepDeleteOrphanPosts, func() error {
		var err error
		orphanPosts, err = s.postRepo.ListOrphanIDs(ctx)
		return err
	})
	for _, postID := range orphanPosts {
		// The author is gone, so there is no counter to decrement.
		sub := s.deletePost(ctx, postID, "")
		run.merge("post:"+postID+":", sub)
		if len(sub.failed) == 0 {
			report.OrphanPostsDeleted++
		}
	}

	run.step(ctx, StepDeleteComments, func() error {
		var err error
		report.CommentsRemoved, err = s.commentRepo.DeleteOrphans(ctx)
		return err
	})
	run.step(ctx, StepDeleteEngagement, func() error {
		var err error
		report.EngagementRemoved, err = s.postRepo.DeleteOrphanEngagement(ctx)
		return err
	})
	run.step(ctx, StepDeleteFollows, func() error {
		var err error
		report.FollowsRemoved, err = s.followRepo.DeleteOrphans(ctx)
		return err
	})
	run.step(ctx, StepDeleteNotifications, func() error {
		var err error
		report.NotificationsRemoved, err = s.notificationRepo.DeleteOrphans(ctx)
		return err
	})
	run.step(ctx, StepReconcilePostCounters, func() error {
		var err error
		report.PostCountersCorrected, err = s.postRepo.ReconcileAllCounters(ctx)
		observability.CounterDrift.WithLabelValues("post_counters").Add(float64(report.PostCountersCorrected))
		return err
	})
	run.step(ctx, StepReconcilePostsCounts, func() error {
		var err error
		report.UserCountersCorrected, err = s.userRepo.ReconcileAllPostsCounts(ctx)
		observability.CounterDrift.WithLabelValues("posts_count").Add(float64(report.UserCountersCorrected))
		return err
	})

	report.FailedSteps = run.failed
	return report, run.result(ctx)
}
