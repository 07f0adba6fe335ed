// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"bytes"
	"encoding/json"
	"reflect"
	"time"

	"github.com/quillhq/quill/internal/model"
)

// ID accepts a post identifier written either as a JSON string or a number.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return &json.UnmarshalTypeError{Value: string(data), Type: reflect.TypeOf("")}
	}
	if _, err := n.Int64(); err != nil {
		return &json.UnmarshalTypeError{Value: "number " + n.String(), Type: reflect.TypeOf("")}
	}
	*id = ID(n.String())
	return nil
}

// CreatePostRequest represents the request body for creating a post.
type CreatePostRequest struct {
	Title           *string    `json:"title" validate:"required"`
	Content         *string    `json:"content" validate:"required"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
}

// UpdatePostRequest carries a partial update; absent fields are kept.
type UpdatePostRequest struct {
	Title           *string    `json:"title,omitempty"`
	Content         *string    `json:"content,omitempty"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
}

// ToUpdate converts the request into a model.PostUpdate.
func (r UpdatePostRequest) ToUpdate() model.PostUpdate {
	return model.PostUpdate{
		Title:           r.Title,
		Content:         r.Content,
		PublicationDate: r.PublicationDate,
	}
}

// CreateCommentRequest represents the body of POST /comments.
type CreateCommentRequest struct {
	PostID          ID         `json:"post_id" validate:"required"`
	Content         *string    `json:"content" validate:"required"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
}

// PostCommentRequest represents the body of POST /posts/{id}/comments.
type PostCommentRequest struct {
	Content         *string    `json:"content" validate:"required"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
}

// PostSummary is a post as it appears in listings.
type PostSummary struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	Excerpt         string    `json:"excerpt"`
	PublicationDate time.Time `json:"publication_date"`
	NbViews         int64     `json:"nb_views"`
}

// PostResponse is a single post with its comments.
type PostResponse struct {
	PostSummary
	Comments []CommentResponse `json:"comments"`
}

// CommentResponse represents a comment in API responses.
type CommentResponse struct {
	ID              string    `json:"id"`
	PostID          string    `json:"post_id"`
	Content         string    `json:"content"`
	PublicationDate time.Time `json:"publication_date"`
}

// ToPostSummary converts a model.Post to a PostSummary.
func ToPostSummary(p *model.Post) PostSummary {
	return PostSummary{
		ID:              p.ID,
		Title:           p.Title,
		Content:         p.Content,
		Excerpt:         p.Excerpt(),
		PublicationDate: p.PublicationDate,
		NbViews:         p.NbViews,
	}
}

// ToPostSummaries converts a slice of posts, never returning nil.
func ToPostSummaries(posts []*model.Post) []PostSummary {
	out := make([]PostSummary, 0, len(posts))
	for _, p := range posts {
		out = append(out, ToPostSummary(p))
	}
	return out
}

// ToPostResponse converts a model.Post including its comments.
func ToPostResponse(p *model.Post) PostResponse {
	comments := make([]CommentResponse, 0, len(p.Comments))
	for _, c := range p.Comments {
		comments = append(comments, ToCommentResponse(c))
	}
	return PostResponse{PostSummary: ToPostSummary(p), Comments: comments}
}

// ToCommentResponse converts a model.Comment.
func ToCommentResponse(c *model.Comment) CommentResponse {
	return CommentResponse{
		ID:              c.ID,
		PostID:          c.PostID,
		Content:         c.Content,
		PublicationDate: c.PublicationDate,
	}
}
