package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/quillhq/quill/internal/model"
	"github.com/quillhq/quill/internal/store"
)

// ListPosts returns a page of posts, newest first, without comments.
func (s *Store) ListPosts(ctx context.Context, page model.Pagination) ([]*model.Post, error) {
	query := `
		SELECT id, title, content, publication_date, nb_views
		FROM posts
		ORDER BY publication_date DESC, id DESC
		OFFSET $1 LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, page.Skip, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*model.Post, 0, page.Limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}

// GetPost retrieves a post and its comments.
func (s *Store) GetPost(ctx context.Context, id string) (*model.Post, error) {
	key, ok := parseID(id)
	if !ok {
		return nil, store.ErrNotFound
	}

	query := `
		SELECT id, title, content, publication_date, nb_views
		FROM posts
		WHERE id = $1
	`

	post, err := scanPost(s.pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	comments, err := s.listComments(ctx, key)
	if err != nil {
		return nil, err
	}
	post.Comments = comments

	return post, nil
}

func (s *Store) listComments(ctx context.Context, postID int64) ([]*model.Comment, error) {
	query := `
		SELECT id, post_id, content, publication_date
		FROM comments
		WHERE post_id = $1
		ORDER BY publication_date, id
	`

	rows, err := s.pool.Query(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]*model.Comment, 0)
	for rows.Next() {
		var (
			c          model.Comment
			id, postID int64
		)
		if err := rows.Scan(&id, &postID, &c.Content, &c.PublicationDate); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		c.ID = formatID(id)
		c.PostID = formatID(postID)
		comments = append(comments, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}

	return comments, nil
}

// CreatePost inserts a new post and fills in its ID.
func (s *Store) CreatePost(ctx context.Context, post *model.Post) error {
	query := `
		INSERT INTO posts (title, content, publication_date, nb_views)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	err := s.pool.QueryRow(ctx, query,
		post.Title,
		post.Content,
		post.PublicationDate,
		post.NbViews,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	post.ID = formatID(id)
	if post.Comments == nil {
		post.Comments = []*model.Comment{}
	}
	return nil
}

// UpdatePost applies a partial update and returns the stored post.
func (s *Store) UpdatePost(ctx context.Context, id string, update model.PostUpdate) (*model.Post, error) {
	key, ok := parseID(id)
	if !ok {
		return nil, store.ErrNotFound
	}

	query := `
		UPDATE posts SET
			title = COALESCE($2, title),
			content = COALESCE($3, content),
			publication_date = COALESCE($4, publication_date)
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query, key, update.Title, update.Content, update.PublicationDate)
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, store.ErrNotFound
	}

	return s.GetPost(ctx, id)
}

// DeletePost removes a post. Comments go with it through ON DELETE CASCADE.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	key, ok := parseID(id)
	if !ok {
		return store.ErrNotFound
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return nil
}

// IncrementViews atomically bumps the view counter.
func (s *Store) IncrementViews(ctx context.Context, id string) error {
	key, ok := parseID(id)
	if !ok {
		return store.ErrNotFound
	}

	tag, err := s.pool.Exec(ctx, `UPDATE posts SET nb_views = nb_views + 1 WHERE id = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return nil
}

// CreateComment inserts a comment for an existing post.
func (s *Store) CreateComment(ctx context.Context, comment *model.Comment) error {
	postID, ok := parseID(comment.PostID)
	if !ok {
		return store.ErrNotFound
	}

	// The INSERT ... SELECT yields no row when the post is missing,
	// which avoids a separate existence check.
	query := `
		INSERT INTO comments (post_id, content, publication_date)
		SELECT id, $2, $3 FROM posts WHERE id = $1
		RETURNING id
	`

	var id int64
	err := s.pool.QueryRow(ctx, query, postID, comment.Content, comment.PublicationDate).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrNotFound
		}
		return fmt.Errorf("failed to create comment: %w", err)
	}

	comment.ID = formatID(id)
	return nil
}

func scanPost(row pgx.Row) (*model.Post, error) {
	var (
		p  model.Post
		id int64
	)
	if err := row.Scan(&id, &p.Title, &p.Content, &p.PublicationDate, &p.NbViews); err != nil {
		return nil, err
	}
	p.ID = formatID(id)
	p.PublicationDate = p.PublicationDate.UTC()
	return &p, nil
}
