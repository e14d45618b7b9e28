package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	"pulse/internal/models"
	"pulse/internal/service"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Fixture is a hand-written dataset. Entities reference each other by key.
type Fixture struct {
	Users    []FixtureUser    `yaml:"users"`
	Posts    []FixturePost    `yaml:"posts"`
	Likes    []FixtureLike    `yaml:"likes"`
	Comments []FixtureComment `yaml:"comments"`
	Follows  []FixtureFollow  `yaml:"follows"`
}

type FixtureUser struct {
	Key       string   `yaml:"key"`
	Username  string   `yaml:"username"`
	Email     string   `yaml:"email"`
	Interests []string `yaml:"interests"`
	Role      string   `yaml:"role"`
}

type FixturePost struct {
	Key      string   `yaml:"key"`
	Author   string   `yaml:"author"`
	Title    string   `yaml:"title"`
	Body     string   `yaml:"body"`
	Tags     []string `yaml:"tags"`
	Category string   `yaml:"category"`
	// CreatedAt pins the post's creation time, e.g. to control feed order.
	CreatedAt *time.Time `yaml:"createdAt"`
}

type FixtureLike struct {
	Post string `yaml:"post"`
	User string `yaml:"user"`
}

type FixtureComment struct {
	Post string `yaml:"post"`
	User string `yaml:"user"`
	Text string `yaml:"text"`
}

type FixtureFollow struct {
	Follower  string `yaml:"follower"`
	Following string `yaml:"following"`
}

// LoadFixture reads a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(raw)
}

// ParseFixture decodes a YAML fixture.
func ParseFixture(raw []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &fx, nil
}

// Apply creates the fixture's entities and returns the ids assigned to each key.
func Apply(ctx context.Context, db *gorm.DB, fx *Fixture) (map[string]string, error) {
	svc := NewServices(db)
	ids := make(map[string]string, len(fx.Users)+len(fx.Posts))

	lookup := func(kind, key string) (string, error) {
		id, ok := ids[key]
		if !ok {
			return "", fmt.Errorf("%s references unknown key %q", kind, key)
		}
		return id, nil
	}

	for _, u := range fx.Users {
		email := u.Email
		if email == "" {
			email = u.Username + "@example.com"
		}
		user, err := svc.Users.CreateUser(ctx, service.CreateUserInput{
			Username:  u.Username,
			Email:     email,
			Interests: u.Interests,
			Role:      models.Role(u.Role),
		})
		if err != nil {
			return nil, fmt.Errorf("user %q: %w", u.Key, err)
		}
		ids[u.Key] = user.ID
	}

	for _, p := range fx.Posts {
		authorID, err := lookup("post "+p.Key, p.Author)
		if err != nil {
			return nil, err
		}
		post, err := svc.Posts.CreatePost(ctx, service.CreatePostInput{
			AuthorID: authorID,
			Title:    p.Title,
			Body:     p.Body,
			Tags:     p.Tags,
			Category: p.Category,
		})
		if err != nil {
			return nil, fmt.Errorf("post %q: %w", p.Key, err)
		}
		if p.CreatedAt != nil {
			if err := db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", post.ID).
				UpdateColumn("created_at", p.CreatedAt.UTC()).Error; err != nil {
				return nil, fmt.Errorf("post %q: %w", p.Key, err)
			}
		}
		ids[p.Key] = post.ID
	}

	for _, l := range fx.Likes {
		postID, err := lookup("like", l.Post)
		if err != nil {
			return nil, err
		}
		userID, err := lookup("like", l.User)
		if err != nil {
			return nil, err
		}
		if _, err := svc.Engagement.ToggleLike(ctx, postID, userID); err != nil {
			return nil, fmt.Errorf("like %s/%s: %w", l.Post, l.User, err)
		}
	}

	for _, c := range fx.Comments {
		postID, err := lookup("comment", c.Post)
		if err != nil {
			return nil, err
		}
		userID, err := lookup("comment", c.User)
		if err != nil {
			return nil, err
		}
		if _, err := svc.Comments.AddComment(ctx, service.AddCommentInput{PostID: postID, UserID: userID, Text: c.Text}); err != nil {
			return nil, fmt.Errorf("comment %s/%s: %w", c.Post, c.User, err)
		}
	}

	for _, fl := range fx.Follows {
		followerID, err := lookup("follow", fl.Follower)
		if err != nil {
			return nil, err
		}
		followingID, err := lookup("follow", fl.Following)
		if err != nil {
			return nil, err
		}
		if _, err := svc.Follows.ToggleFollow(ctx, followerID, followingID); err != nil {
			return nil, fmt.Errorf("follow %s->%s: %w", fl.Follower, fl.Following, err)
		}
	}

	return ids, nil
}
