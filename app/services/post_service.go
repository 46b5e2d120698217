package services

import (
	"context"
	"errors"
	"strconv"

	"postsapi/app/models"
	"postsapi/app/repositories"
)

// ErrValidation is returned before any store access when a post body is
// missing its title or contents.
var ErrValidation = errors.New("please provide title and contents for the post")

// PostService runs the multi-step post operations against a PostStore.
// Errors are either ErrValidation, repositories.ErrNotFound, or a store
// failure passed through unchanged.
type PostService struct {
	store repositories.PostStore
}

// NewPostService creates a new PostService
func NewPostService(store repositories.PostStore) *PostService {
	return &PostService{store: store}
}

// ListPosts returns every post.
func (s *PostService) ListPosts(ctx context.Context) ([]*models.Post, error) {
	posts, err := s.store.Find(ctx)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, nil
}

// GetPost returns one post.
func (s *PostService) GetPost(ctx context.Context, id string) (*models.Post, error) {
	return s.store.FindByID(ctx, id)
}

// CreatePost inserts a post and returns the stored record.
func (s *PostService) CreatePost(ctx context.Context, in models.PostInput) (*models.Post, error) {
	if err := in.Validate(); err != nil {
		return nil, ErrValidation
	}

	id, err := s.store.Insert(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.store.FindByID(ctx, strconv.FormatInt(id, 10))
}

// UpdatePost overwrites a post and returns the modified record.
func (s *PostService) UpdatePost(ctx context.Context, id string, in models.PostInput) (*models.Post, error) {
	if err := in.Validate(); err != nil {
		return nil, ErrValidation
	}

	if err := s.store.Update(ctx, id, in); err != nil {
		return nil, err
	}
	return s.store.FindByID(ctx, id)
}

// DeletePost removes a post and returns it as it was before removal. Stores
// that implement PostTaker do this atomically; otherwise the post is read
// first and then removed, and a concurrent delete in between yields
// ErrNotFound.
func (s *PostService) DeletePost(ctx context.Context, id string) (*models.Post, error) {
	if taker, ok := s.store.(repositories.PostTaker); ok {
		return taker.Take(ctx, id)
	}

	snapshot, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.Remove(ctx, id); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// ListComments returns a post's comments. An empty result is reported as
// ErrNotFound, so a post without comments looks the same as a missing post.
func (s *PostService) ListComments(ctx context.Context, id string) ([]*models.Comment, error) {
	comments, err := s.store.FindPostComments(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, repositories.ErrNotFound
	}
	return comments, nil
}
