// Package mongo implements store.PostStore on MongoDB. Comments are embedded
// in their post document.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quillhq/quill/internal/model"
	"github.com/quillhq/quill/internal/store"
)

const postsCollection = "posts"

type commentDocument struct {
	ID              primitive.ObjectID `bson:"_id"`
	Content         string             `bson:"content"`
	PublicationDate time.Time          `bson:"publication_date"`
}

type postDocument struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Title           string             `bson:"title"`
	Content         string             `bson:"content"`
	PublicationDate time.Time          `bson:"publication_date"`
	NbViews         int64              `bson:"nb_views"`
	Comments        []commentDocument  `bson:"comments"`
}

func (d *postDocument) toModel() *model.Post {
	p := &model.Post{
		ID:              d.ID.Hex(),
		Title:           d.Title,
		Content:         d.Content,
		PublicationDate: d.PublicationDate.UTC(),
		NbViews:         d.NbViews,
		Comments:        make([]*model.Comment, 0, len(d.Comments)),
	}
	for _, c := range d.Comments {
		p.Comments = append(p.Comments, &model.Comment{
			ID:              c.ID.Hex(),
			PostID:          p.ID,
			Content:         c.Content,
			PublicationDate: c.PublicationDate.UTC(),
		})
	}
	return p
}

// Store is a MongoDB-backed post store.
type Store struct {
	client *mongo.Client
	posts  *mongo.Collection
}

// New connects to uri and returns a store over database.
func New(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	s := &Store{client: client, posts: client.Database(database).Collection(postsCollection)}

	_, err = s.posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "publication_date", Value: -1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create posts index: %w", err)
	}

	return s, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Drop removes the posts collection. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.posts.Drop(ctx)
}

// ListPosts returns a page of posts, newest first, without comments.
func (s *Store) ListPosts(ctx context.Context, page model.Pagination) ([]*model.Post, error) {
	posts := make([]*model.Post, 0, page.Limit)
	if page.Limit == 0 {
		// Mongo treats limit 0 as "no limit".
		return posts, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "publication_date", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(page.Skip)).
		SetLimit(int64(page.Limit)).
		SetProjection(bson.M{"comments": 0})

	cur, err := s.posts.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc postDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode post: %w", err)
		}
		p := doc.toModel()
		p.Comments = nil
		posts = append(posts, p)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}

// GetPost retrieves a post with its embedded comments.
func (s *Store) GetPost(ctx context.Context, id string) (*model.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}

	var doc postDocument
	if err := s.posts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return doc.toModel(), nil
}

// CreatePost inserts a post and fills in its ID.
func (s *Store) CreatePost(ctx context.Context, post *model.Post) error {
	doc := postDocument{
		ID:              primitive.NewObjectID(),
		Title:           post.Title,
		Content:         post.Content,
		PublicationDate: post.PublicationDate.UTC(),
		NbViews:         post.NbViews,
		Comments:        []commentDocument{},
	}

	res, err := s.posts.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	post.ID = res.InsertedID.(primitive.ObjectID).Hex()
	if post.Comments == nil {
		post.Comments = []*model.Comment{}
	}
	return nil
}

// UpdatePost applies a partial update and returns the updated post.
func (s *Store) UpdatePost(ctx context.Context, id string, update model.PostUpdate) (*model.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}

	set := bson.M{}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Content != nil {
		set["content"] = *update.Content
	}
	if update.PublicationDate != nil {
		set["publication_date"] = update.PublicationDate.UTC()
	}
	if len(set) == 0 {
		return s.GetPost(ctx, id)
	}

	var doc postDocument
	err = s.posts.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	return doc.toModel(), nil
}

// DeletePost removes the post document, comments included.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrNotFound
	}

	res, err := s.posts.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// IncrementViews atomically bumps the view counter.
func (s *Store) IncrementViews(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrNotFound
	}

	res, err := s.posts.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"nb_views": 1}})
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CreateComment pushes a comment onto an existing post.
func (s *Store) CreateComment(ctx context.Context, comment *model.Comment) error {
	oid, err := primitive.ObjectIDFromHex(comment.PostID)
	if err != nil {
		return store.ErrNotFound
	}

	doc := commentDocument{
		ID:              primitive.NewObjectID(),
		Content:         comment.Content,
		PublicationDate: comment.PublicationDate.UTC(),
	}

	res, err := s.posts.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$push": bson.M{"comments": doc}})
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}

	comment.ID = doc.ID.Hex()
	return nil
}
