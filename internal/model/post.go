// Package model defines domain entities for the application.
package model

import (
	"time"
	"unicode/utf8"
)

// ExcerptLength is the number of content characters kept in an excerpt.
const ExcerptLength = 140

// Post represents a blog post entity.
// IDs are opaque strings: decimal integers on SQL backends, hex ObjectIDs on Mongo.
type Post struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Content         string     `json:"content"`
	PublicationDate time.Time  `json:"publication_date"`
	NbViews         int64      `json:"nb_views"`
	Comments        []*Comment `json:"comments"`
}

// Excerpt returns the first ExcerptLength characters of the content followed by "...".
func (p *Post) Excerpt() string {
	return Excerpt(p.Content)
}

// Excerpt truncates content on a rune boundary and appends an ellipsis.
func Excerpt(content string) string {
	if utf8.RuneCountInString(content) <= ExcerptLength {
		return content + "..."
	}
	runes := []rune(content)
	return string(runes[:ExcerptLength]) + "..."
}

// PostUpdate carries a partial update. Nil fields are left untouched.
type PostUpdate struct {
	Title           *string
	Content         *string
	PublicationDate *time.Time
}

// IsEmpty reports whether the update changes nothing.
func (u PostUpdate) IsEmpty() bool {
	return u.Title == nil && u.Content == nil && u.PublicationDate == nil
}

// Apply copies the set fields of the update onto the post.
func (u PostUpdate) Apply(p *Post) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Content != nil {
		p.Content = *u.Content
	}
	if u.PublicationDate != nil {
		p.PublicationDate = *u.PublicationDate
	}
}
