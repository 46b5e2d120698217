package mock

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"postsapi/app/models"
	"postsapi/app/repositories"
)

// Operation names accepted by FailOn.
const (
	OpFind             = "find"
	OpFindByID         = "findById"
	OpInsert           = "insert"
	OpUpdate           = "update"
	OpRemove           = "remove"
	OpFindPostComments = "findPostComments"
)

// Store is an in-memory PostStore. It does not implement PostTaker, so
// callers exercise the read-then-delete path against it.
type Store struct {
	posts    map[int64]*models.Post
	comments map[int64]*models.Comment
	nextID   int64
	nextCID  int64
	failures map[string]error
	calls    map[string]int
	mutex    sync.RWMutex
}

func NewStore() *Store {
	return &Store{
		posts:    make(map[int64]*models.Post),
		comments: make(map[int64]*models.Comment),
		nextID:   1,
		nextCID:  1,
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

// FailOn makes every later call of op return err. A nil err clears it.
func (m *Store) FailOn(op string, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// Calls reports how many times op was invoked.
func (m *Store) Calls(op string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.calls[op]
}

// enter records the call and returns the injected failure, if any.
// Callers hold the lock.
func (m *Store) enter(op string) error {
	m.calls[op]++
	return m.failures[op]
}

func (m *Store) Find(ctx context.Context) ([]*models.Post, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.enter(OpFind); err != nil {
		return nil, err
	}

	posts := make([]*models.Post, 0, len(m.posts))
	for _, post := range m.posts {
		p := *post
		posts = append(posts, &p)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	return posts, nil
}

func (m *Store) FindByID(ctx context.Context, id string) (*models.Post, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.enter(OpFindByID); err != nil {
		return nil, err
	}

	post, exists := m.lookup(id)
	if !exists {
		return nil, repositories.ErrNotFound
	}
	p := *post
	return &p, nil
}

func (m *Store) Insert(ctx context.Context, in models.PostInput) (int64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.enter(OpInsert); err != nil {
		return 0, err
	}
	if err := in.Validate(); err != nil {
		return 0, err
	}

	id := m.nextID
	m.nextID++
	m.posts[id] = models.NewPost(id, in)
	return id, nil
}

func (m *Store) Update(ctx context.Context, id string, in models.PostInput) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.enter(OpUpdate); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}

	post, exists := m.lookup(id)
	if !exists {
		return repositories.ErrNotFound
	}
	post.Apply(in)
	return nil
}

func (m *Store) Remove(ctx context.Context, id string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.enter(OpRemove); err != nil {
		return err
	}

	post, exists := m.lookup(id)
	if !exists {
		return repositories.ErrNotFound
	}
	for cid, comment := range m.comments {
		if comment.PostID == post.ID {
			delete(m.comments, cid)
		}
	}
	delete(m.posts, post.ID)
	return nil
}

func (m *Store) FindPostComments(ctx context.Context, id string) ([]*models.Comment, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.enter(OpFindPostComments); err != nil {
		return nil, err
	}

	comments := []*models.Comment{}
	post, exists := m.lookup(id)
	if !exists {
		return comments, nil
	}
	for _, comment := range m.comments {
		if comment.PostID == post.ID {
			c := *comment
			if err := c.SetPost(post); err != nil {
				return nil, err
			}
			comments = append(comments, &c)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	return comments, nil
}

func (m *Store) InsertComment(ctx context.Context, comment *models.Comment) (int64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.posts[comment.PostID]; !exists {
		return 0, repositories.ErrNotFound
	}
	comment.ID = m.nextCID
	m.nextCID++
	comment.BeforeCreate()
	c := *comment
	m.comments[c.ID] = &c
	return c.ID, nil
}

func (m *Store) lookup(id string) (*models.Post, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, false
	}
	post, exists := m.posts[n]
	return post, exists
}
