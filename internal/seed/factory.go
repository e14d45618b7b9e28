package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pulse/internal/models"
	"pulse/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Topics are the tags and interests demo data draws from.
var Topics = []string{
	"go", "rust", "java", "python", "devops", "cloud", "ai", "gaming",
	"music", "movies", "books", "travel", "food", "fitness", "science", "art",
}

var categories = []string{"general", "tech", "lifestyle", "entertainment"}

// Options configure the demo generator.
type Options struct {
	NumUsers int
	NumPosts int
	// Seed makes generation deterministic; zero picks a time-based seed.
	Seed        int64
	ShouldClean bool
}

// Summary counts what Demo created.
type Summary struct {
	Users    int
	Posts    int
	Likes    int
	Comments int
	Follows  int
}

func (s Summary) String() string {
	return fmt.Sprintf("users=%d posts=%d likes=%d comments=%d follows=%d",
		s.Users, s.Posts, s.Likes, s.Comments, s.Follows)
}

// Factory builds fake users and posts and persists them through the services.
type Factory struct {
	svc   *Services
	faker *gofakeit.Faker
}

// NewFactory returns a Factory; seed 0 uses the current time.
func NewFactory(svc *Services, seed int64) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{svc: svc, faker: gofakeit.New(seed)}
}

// User creates a user with a unique username and a few interests.
func (f *Factory) User(ctx context.Context) (*models.User, error) {
	username := strings.ToLower(f.faker.Username()) + fmt.Sprintf("%04d", f.faker.Number(0, 9999))
	return f.svc.Users.CreateUser(ctx, service.CreateUserInput{
		Username:  username,
		Email:     username + "@example.com",
		AvatarURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
		Interests: f.pick(Topics, f.faker.Number(1, 3)),
	})
}

// Post creates a post by author with fake text and tags.
func (f *Factory) Post(ctx context.Context, author *models.User) (*models.Post, error) {
	return f.svc.Posts.CreatePost(ctx, service.CreatePostInput{
		AuthorID: author.ID,
		Title:    f.faker.Sentence(6),
		Body:     f.faker.Paragraph(1, 3, 8, "\n"),
		Tags:     f.pick(Topics, f.faker.Number(0, 3)),
		Category: categories[f.faker.Number(0, len(categories)-1)],
	})
}

// pick returns n distinct entries of from.
func (f *Factory) pick(from []string, n int) []string {
	if n > len(from) {
		n = len(from)
	}
	idx := make([]int, len(from))
	for i := range idx {
		idx[i] = i
	}
	f.faker.ShuffleInts(idx)
	out := make([]string, 0, n)
	for _, i := range idx[:n] {
		out = append(out, from[i])
	}
	return out
}

// Demo populates the database with random users, posts and engagement.
func Demo(ctx context.Context, db *gorm.DB, opts Options) (Summary, error) {
	var sum Summary
	if opts.NumUsers <= 0 {
		opts.NumUsers = 10
	}
	if opts.NumPosts < 0 {
		opts.NumPosts = 0
	}
	if opts.ShouldClean {
		if err := Clean(ctx, db); err != nil {
			return sum, err
		}
	}

	svc := NewServices(db)
	f := NewFactory(svc, opts.Seed)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.User(ctx)
		if err != nil {
			return sum, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		p, err := f.Post(ctx, users[f.faker.Number(0, len(users)-1)])
		if err != nil {
			return sum, fmt.Errorf("create post: %w", err)
		}
		posts = append(posts, p)
	}
	sum.Posts = len(posts)

	for _, u := range users {
		for _, other := range users {
			if other.ID == u.ID || !f.faker.Bool() {
				continue
			}
			if _, err := svc.Follows.ToggleFollow(ctx, u.ID, other.ID); err != nil {
				return sum, fmt.Errorf("follow: %w", err)
			}
			sum.Follows++
		}
		for _, p := range posts {
			if f.faker.Number(0, 2) == 0 {
				if _, err := svc.Engagement.ToggleLike(ctx, p.ID, u.ID); err != nil {
					return sum, fmt.Errorf("like: %w", err)
				}
				sum.Likes++
			}
			if f.faker.Number(0, 4) == 0 {
				if _, err := svc.Comments.AddComment(ctx, service.AddCommentInput{
					PostID: p.ID, UserID: u.ID, Text: f.faker.Sentence(10),
				}); err != nil {
					return sum, fmt.Errorf("comment: %w", err)
				}
				sum.Comments++
			}
		}
	}
	return sum, nil
}
