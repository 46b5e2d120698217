package repositories

import (
	"context"
	"sort"

	"postsapi/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

// BadgerStore implements PostStore, PostTaker and CommentWriter on BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore creates a new BadgerStore
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Find returns every post ordered by id.
func (s *BadgerStore) Find(ctx context.Context) ([]*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	posts := []*models.Post{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(PostKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var post models.Post
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &post)
			})
			if err != nil {
				return err
			}
			posts = append(posts, &post)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing posts")
	}

	// Keys sort lexically ("post:10" < "post:2").
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	return posts, nil
}

// FindByID retrieves a post by ID
func (s *BadgerStore) FindByID(ctx context.Context, id string) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, ok := parseID(id)
	if !ok {
		return nil, ErrNotFound
	}

	var post *models.Post
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		post, err = getPost(txn, n)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Insert creates a new post and returns its id.
func (s *BadgerStore) Insert(ctx context.Context, in models.PostInput) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := in.Validate(); err != nil {
		return 0, err
	}

	var id int64
	err := s.update(func(txn *badger.Txn) error {
		var err error
		id, err = getNextID(txn, PostSeqKey)
		if err != nil {
			return err
		}

		data, err := marshalEntity(models.NewPost(id, in))
		if err != nil {
			return err
		}
		return txn.Set(postKey(id), data)
	})
	if err != nil {
		return 0, errors.Wrap(err, "inserting post")
	}
	return id, nil
}

// Update overwrites an existing post's title and contents.
func (s *BadgerStore) Update(ctx context.Context, id string, in models.PostInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	n, ok := parseID(id)
	if !ok {
		return ErrNotFound
	}

	return s.update(func(txn *badger.Txn) error {
		post, err := getPost(txn, n)
		if err != nil {
			return err
		}
		post.Apply(in)

		data, err := marshalEntity(post)
		if err != nil {
			return err
		}
		return txn.Set(postKey(n), data)
	})
}

// Remove deletes a post together with its comments.
func (s *BadgerStore) Remove(ctx context.Context, id string) error {
	_, err := s.Take(ctx, id)
	return err
}

// Take deletes a post and its comments in a single transaction and returns
// the post as it was before deletion.
func (s *BadgerStore) Take(ctx context.Context, id string) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, ok := parseID(id)
	if !ok {
		return nil, ErrNotFound
	}

	var post *models.Post
	err := s.update(func(txn *badger.Txn) error {
		var err error
		post, err = getPost(txn, n)
		if err != nil {
			return err
		}

		// Collect first; keys are deleted after the iterator is closed.
		var keys [][]byte
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: false})
		prefix := commentPrefix(n)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return txn.Delete(postKey(n))
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// FindPostComments retrieves all comments for a post, each carrying the
// post's current title.
func (s *BadgerStore) FindPostComments(ctx context.Context, id string) ([]*models.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	comments := []*models.Comment{}
	n, ok := parseID(id)
	if !ok {
		return comments, nil
	}

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := commentPrefix(n)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var comment models.Comment
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &comment)
			})
			if err != nil {
				return err
			}
			comments = append(comments, &comment)
		}
		if len(comments) == 0 {
			return nil
		}

		post, err := getPost(txn, n)
		if err == ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		for _, c := range comments {
			if err := c.SetPost(post); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing comments")
	}

	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	return comments, nil
}

// InsertComment stores a comment under an existing post.
func (s *BadgerStore) InsertComment(ctx context.Context, comment *models.Comment) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	err := s.update(func(txn *badger.Txn) error {
		if _, err := getPost(txn, comment.PostID); err != nil {
			return err
		}

		id, err := getNextID(txn, CommentSeqKey)
		if err != nil {
			return err
		}
		comment.ID = id
		comment.BeforeCreate()

		// The parent title is resolved on read.
		stored := *comment
		stored.Post = ""
		data, err := marshalEntity(&stored)
		if err != nil {
			return err
		}
		return txn.Set(commentKey(comment.PostID, id), data)
	})
	if err == ErrNotFound {
		return 0, err
	}
	if err != nil {
		return 0, errors.Wrap(err, "inserting comment")
	}
	return comment.ID, nil
}

func getPost(txn *badger.Txn, id int64) (*models.Post, error) {
	item, err := txn.Get(postKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var post models.Post
	if err := item.Value(func(val []byte) error {
		return unmarshalEntity(val, &post)
	}); err != nil {
		return nil, err
	}
	return &post, nil
}

// maxConflictRetries bounds how often a write transaction is replayed after
// losing an optimistic-concurrency race.
const maxConflictRetries = 16

// update runs fn in a read-write transaction, replaying it on conflict.
func (s *BadgerStore) update(fn func(txn *badger.Txn) error) error {
	for attempt := 0; ; attempt++ {
		err := s.db.Update(fn)
		if errors.Is(err, badger.ErrConflict) && attempt < maxConflictRetries {
			continue
		}
		return err
	}
}
