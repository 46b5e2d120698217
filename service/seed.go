package service

import (
	"context"
	"fmt"
	"strconv"

	"postsapi/app/models"
	"postsapi/app/repositories"

	"github.com/brianvoe/gofakeit/v7"
)

// maxSeedComments is the most comments attached to one seeded post.
const maxSeedComments = 3

// Seed inserts n fake posts, each with up to maxSeedComments comments when
// the store can write comments. It returns the number of comments written.
func Seed(ctx context.Context, st repositories.PostStore, faker *gofakeit.Faker, n int) (int, error) {
	writer, canComment := st.(repositories.CommentWriter)

	comments := 0
	for i := 0; i < n; i++ {
		in := models.PostInput{
			Title:    faker.Paragraph(1, 1, 6, ""),
			Contents: faker.Paragraph(1, 4, 10, " "),
		}
		id, err := st.Insert(ctx, in)
		if err != nil {
			return comments, fmt.Errorf("seeding post %d: %w", i+1, err)
		}
		if !canComment {
			continue
		}

		for j := faker.IntRange(0, maxSeedComments); j > 0; j-- {
			comment := &models.Comment{
				PostID: id,
				Text:   faker.Username() + ": " + faker.Paragraph(1, 1, 8, ""),
			}
			if _, err := writer.InsertComment(ctx, comment); err != nil {
				return comments, fmt.Errorf("seeding comment on post %s: %w", strconv.FormatInt(id, 10), err)
			}
			comments++
		}
	}
	return comments, nil
}
