package repository

import (
	"testing"
	"time"

	"pulse/internal/models"
	"pulse/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

type fixture struct {
	db *gorm.DB
	t  *testing.T
}

func newFixture(t *testing.T) *fixture {
	return &fixture{db: testutil.NewSQLiteDB(t), t: t}
}

func (f *fixture) user(name string, interests ...string) *models.User {
	f.t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", Interests: interests}
	require.NoError(f.t, f.db.Create(u).Error)
	return u
}

func (f *fixture) post(author *models.User, createdAt time.Time, category string, tags ...string) *models.Post {
	f.t.Helper()
	p := &models.Post{
		AuthorID:  author.ID,
		Title:     "post by " + author.Username,
		Category:  category,
		Tags:      tags,
		CreatedAt: createdAt,
	}
	require.NoError(f.t, f.db.Create(p).Error)
	return p
}

func (f *fixture) comment(post *models.Post, author *models.User) *models.Comment {
	f.t.Helper()
	c := &models.Comment{PostID: post.ID, AuthorID: author.ID, Text: "nice"}
	require.NoError(f.t, f.db.Create(c).Error)
	return c
}

func (f *fixture) storedPost(id string) models.Post {
	f.t.Helper()
	var p models.Post
	require.NoError(f.t, f.db.Where("id = ?", id).First(&p).Error)
	return p
}
