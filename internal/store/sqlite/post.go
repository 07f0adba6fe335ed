package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/quillhq/quill/internal/model"
	"github.com/quillhq/quill/internal/store"
)

// ListPosts returns a page of posts, newest first, without comments.
func (s *Store) ListPosts(ctx context.Context, page model.Pagination) ([]*model.Post, error) {
	query := `
		SELECT id, title, content, publication_date, nb_views
		FROM posts
		ORDER BY publication_date DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, page.Limit, page.Skip)
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
		WHERE id = ?
	`

	post, err := scanPost(s.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	// Runs after the post row is fully consumed; in-memory databases
	// have a single connection.
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
		WHERE post_id = ?
		ORDER BY publication_date, id
	`

	rows, err := s.db.QueryContext(ctx, query, postID)
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
		c.PublicationDate = c.PublicationDate.UTC()
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
		VALUES (?, ?, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query,
		post.Title,
		post.Content,
		post.PublicationDate.UTC(),
		post.NbViews,
	)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read post id: %w", err)
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
			title = COALESCE(?, title),
			content = COALESCE(?, content),
			publication_date = COALESCE(?, publication_date)
		WHERE id = ?
	`

	var date any
	if update.PublicationDate != nil {
		date = update.PublicationDate.UTC()
	}

	res, err := s.db.ExecContext(ctx, query, nullString(update.Title), nullString(update.Content), date, key)
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, store.ErrNotFound
	}

	return s.GetPost(ctx, id)
}

// DeletePost removes a post and its comments in one transaction.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	key, ok := parseID(id)
	if !ok {
		return store.ErrNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE post_id = ?`, key); err != nil {
		return fmt.Errorf("failed to delete comments: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

// IncrementViews atomically bumps the view counter.
func (s *Store) IncrementViews(ctx context.Context, id string) error {
	key, ok := parseID(id)
	if !ok {
		return store.ErrNotFound
	}

	res, err := s.db.ExecContext(ctx, `UPDATE posts SET nb_views = nb_views + 1 WHERE id = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
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

	query := `
		INSERT INTO comments (post_id, content, publication_date)
		SELECT id, ?, ? FROM posts WHERE id = ?
	`

	res, err := s.db.ExecContext(ctx, query, comment.Content, comment.PublicationDate.UTC(), postID)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read comment id: %w", err)
	}

	comment.ID = formatID(id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*model.Post, error) {
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

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
