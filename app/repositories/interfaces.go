package repositories

import (
	"context"

	"postsapi/app/models"
)

// PostStore is the persistence collaborator behind the posts API.
// Ids are opaque at this surface; an id that cannot name a record
// simply matches nothing.
type PostStore interface {
	Find(ctx context.Context) ([]*models.Post, error)
	// FindByID returns ErrNotFound when no post has the id.
	FindByID(ctx context.Context, id string) (*models.Post, error)
	// Insert stores a new post and returns its store-assigned id.
	Insert(ctx context.Context, in models.PostInput) (int64, error)
	// Update overwrites title and contents. It returns ErrNotFound on no match.
	Update(ctx context.Context, id string, in models.PostInput) error
	// Remove deletes the post and its comments. It returns ErrNotFound on no match.
	Remove(ctx context.Context, id string) error
	// FindPostComments returns the comments of a post, possibly none.
	FindPostComments(ctx context.Context, id string) ([]*models.Comment, error)
}

// PostTaker is implemented by stores that can fetch and delete a post in
// one atomic step.
type PostTaker interface {
	Take(ctx context.Context, id string) (*models.Post, error)
}

// CommentWriter is implemented by stores that can persist comments. The API
// never creates comments; seeding and tests do.
type CommentWriter interface {
	InsertComment(ctx context.Context, comment *models.Comment) (int64, error)
}
