package model

import "time"

// Comment is a reader comment attached to a post.
type Comment struct {
	ID              string    `json:"id"`
	PostID          string    `json:"post_id"`
	Content         string    `json:"content"`
	PublicationDate time.Time `json:"publication_date"`
}
