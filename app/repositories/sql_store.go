package repositories

import (
	"context"
	"fmt"
	"time"

	"postsapi/app/models"

	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// postRow mirrors the posts table. The schema is owned outside this service.
type postRow struct {
	ID        int64 `gorm:"primaryKey"`
	Title     string
	Contents  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (postRow) TableName() string { return "posts" }

type commentRow struct {
	ID        int64 `gorm:"primaryKey"`
	PostID    int64
	Text      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (commentRow) TableName() string { return "comments" }

// commentView is a comment joined with its post's title.
type commentView struct {
	ID        int64
	PostID    int64
	Text      string
	Post      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SQLStore implements PostStore, PostTaker and CommentWriter on a relational
// database through GORM.
type SQLStore struct {
	db *gorm.DB
}

// OpenSQL connects to a postgres or mysql database.
func OpenSQL(driver, dsn string, logger gormlogger.Interface) (*SQLStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger})
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %s", driver)
	}
	return NewSQLStore(db), nil
}

// NewSQLStore wraps an existing GORM handle.
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLStore) Find(ctx context.Context) ([]*models.Post, error) {
	var rows []postRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "listing posts")
	}

	posts := make([]*models.Post, 0, len(rows))
	for i := range rows {
		post, err := toPost(&rows[i])
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *SQLStore) FindByID(ctx context.Context, id string) (*models.Post, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, ErrNotFound
	}

	var row postRow
	err := s.db.WithContext(ctx).First(&row, n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "finding post")
	}
	return toPost(&row)
}

func (s *SQLStore) Insert(ctx context.Context, in models.PostInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}

	row := postRow{Title: in.Title, Contents: in.Contents}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, errors.Wrap(err, "inserting post")
	}
	return row.ID, nil
}

func (s *SQLStore) Update(ctx context.Context, id string, in models.PostInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	n, ok := parseID(id)
	if !ok {
		return ErrNotFound
	}

	res := s.db.WithContext(ctx).
		Model(&postRow{}).
		Where("id = ?", n).
		Updates(map[string]interface{}{
			"title":      in.Title,
			"contents":   in.Contents,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "updating post")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Remove(ctx context.Context, id string) error {
	_, err := s.Take(ctx, id)
	return err
}

// Take removes a post and its comments in one transaction, returning the
// deleted post.
func (s *SQLStore) Take(ctx context.Context, id string) (*models.Post, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, ErrNotFound
	}

	var row postRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, n).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Where("post_id = ?", n).Delete(&commentRow{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&postRow{}, n)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err == ErrNotFound {
		return nil, err
	}
	if err != nil {
		return nil, errors.Wrap(err, "removing post")
	}
	return toPost(&row)
}

func (s *SQLStore) FindPostComments(ctx context.Context, id string) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	n, ok := parseID(id)
	if !ok {
		return comments, nil
	}

	var rows []commentView
	err := s.db.WithContext(ctx).
		Table("comments AS c").
		Select("c.id, c.post_id, c.text, c.created_at, c.updated_at, p.title AS post").
		Joins("JOIN posts AS p ON p.id = c.post_id").
		Where("c.post_id = ?", n).
		Order("c.id").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "listing comments")
	}

	for i := range rows {
		var comment models.Comment
		if err := copier.Copy(&comment, &rows[i]); err != nil {
			return nil, errors.Wrap(err, "mapping comment")
		}
		comments = append(comments, &comment)
	}
	return comments, nil
}

func (s *SQLStore) InsertComment(ctx context.Context, comment *models.Comment) (int64, error) {
	if _, err := s.FindByID(ctx, fmt.Sprint(comment.PostID)); err != nil {
		return 0, err
	}

	row := commentRow{PostID: comment.PostID, Text: comment.Text}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, errors.Wrap(err, "inserting comment")
	}
	comment.ID = row.ID
	comment.CreatedAt = row.CreatedAt
	comment.UpdatedAt = row.UpdatedAt
	return row.ID, nil
}

func toPost(row *postRow) (*models.Post, error) {
	var post models.Post
	if err := copier.Copy(&post, row); err != nil {
		return nil, errors.Wrap(err, "mapping post")
	}
	return &post, nil
}
