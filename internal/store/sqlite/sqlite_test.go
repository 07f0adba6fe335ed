package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhq/quill/internal/model"
	"github.com/quillhq/quill/internal/store"
)

// Compile-time interface checks.
var (
	_ store.PostStore = (*Store)(nil)
	_ store.UserStore = (*Store)(nil)
)

func newTestStore(t *testing.T) (context.Context, *Store) {
	t.Helper()
	ctx := context.Background()

	s, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return ctx, s
}

func createPost(t *testing.T, ctx context.Context, s *Store, title string, at time.Time) *model.Post {
	t.Helper()
	p := &model.Post{Title: title, Content: "content of " + title, PublicationDate: at}
	require.NoError(t, s.CreatePost(ctx, p))
	return p
}

func TestPosts_CreateAndGet(t *testing.T) {
	ctx, s := newTestStore(t)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	p := createPost(t, ctx, s, "Hello", at)
	assert.Equal(t, "1", p.ID)
	assert.NotNil(t, p.Comments)

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)
	assert.True(t, got.PublicationDate.Equal(at))
	assert.Empty(t, got.Comments)
	assert.Zero(t, got.NbViews)
}

func TestPosts_GetUnknownOrMalformed(t *testing.T) {
	ctx, s := newTestStore(t)

	for _, id := range []string{"42", "abc", "0", "-1", ""} {
		_, err := s.GetPost(ctx, id)
		assert.ErrorIs(t, err, store.ErrNotFound, "id %q", id)
	}
}

func TestPosts_ListOrderAndWindow(t *testing.T) {
	ctx, s := newTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	createPost(t, ctx, s, "oldest", base)
	createPost(t, ctx, s, "newest", base.Add(48*time.Hour))
	createPost(t, ctx, s, "middle", base.Add(24*time.Hour))

	posts, err := s.ListPosts(ctx, model.Pagination{Skip: 0, Limit: 10})
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "newest", posts[0].Title)
	assert.Equal(t, "middle", posts[1].Title)
	assert.Equal(t, "oldest", posts[2].Title)

	posts, err = s.ListPosts(ctx, model.Pagination{Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "middle", posts[0].Title)

	posts, err = s.ListPosts(ctx, model.Pagination{Skip: 0, Limit: 0})
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestPosts_UpdatePartial(t *testing.T) {
	ctx, s := newTestStore(t)
	p := createPost(t, ctx, s, "Draft", time.Now().UTC())

	title := "Final"
	got, err := s.UpdatePost(ctx, p.ID, model.PostUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Title)
	assert.Equal(t, p.Content, got.Content, "content must be untouched")

	_, err = s.UpdatePost(ctx, "999", model.PostUpdate{Title: &title})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPosts_IncrementViews(t *testing.T) {
	ctx, s := newTestStore(t)
	p := createPost(t, ctx, s, "Viewed", time.Now().UTC())

	require.NoError(t, s.IncrementViews(ctx, p.ID))
	require.NoError(t, s.IncrementViews(ctx, p.ID))

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.NbViews)

	assert.ErrorIs(t, s.IncrementViews(ctx, "999"), store.ErrNotFound)
}

func TestComments_CreateAndDeleteWithPost(t *testing.T) {
	ctx, s := newTestStore(t)
	p := createPost(t, ctx, s, "Commented", time.Now().UTC())

	c := &model.Comment{PostID: p.ID, Content: "nice", PublicationDate: time.Now().UTC()}
	require.NoError(t, s.CreateComment(ctx, c))
	assert.NotEmpty(t, c.ID)

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "nice", got.Comments[0].Content)
	assert.Equal(t, p.ID, got.Comments[0].PostID)

	require.NoError(t, s.DeletePost(ctx, p.ID))
	_, err = s.GetPost(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	var n int
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM comments`).Scan(&n))
	assert.Zero(t, n, "comments must be removed with their post")

	assert.ErrorIs(t, s.DeletePost(ctx, p.ID), store.ErrNotFound)
}

func TestComments_UnknownPost(t *testing.T) {
	ctx, s := newTestStore(t)

	err := s.CreateComment(ctx, &model.Comment{PostID: "7", Content: "orphan", PublicationDate: time.Now()})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsers_CreateAndLookup(t *testing.T) {
	ctx, s := newTestStore(t)

	u := &model.User{ID: "01HZX", Email: "a@example.com", HashedPassword: "h", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.CreateUser(ctx, u))

	byEmail, err := s.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, "h", byEmail.HashedPassword)

	dup := &model.User{ID: "01HZY", Email: "a@example.com", HashedPassword: "h", CreatedAt: time.Now()}
	assert.ErrorIs(t, s.CreateUser(ctx, dup), store.ErrEmailExists)

	_, err = s.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	updated, err := s.UpdateUserEmail(ctx, u.ID, "b@example.com")
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", updated.Email)
}

func TestAccessTokens_Lifecycle(t *testing.T) {
	ctx, s := newTestStore(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	u := &model.User{ID: "u1", Email: "t@example.com", HashedPassword: "h", CreatedAt: now}
	require.NoError(t, s.CreateUser(ctx, u))

	live := &model.AccessToken{Token: "live", UserID: u.ID, ExpirationDate: now.Add(time.Hour)}
	dead := &model.AccessToken{Token: "dead", UserID: u.ID, ExpirationDate: now.Add(-time.Hour)}
	require.NoError(t, s.CreateAccessToken(ctx, live))
	require.NoError(t, s.CreateAccessToken(ctx, dead))

	got, err := s.GetAccessToken(ctx, "live", now)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.UserID)

	_, err = s.GetAccessToken(ctx, "dead", now)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetAccessToken(ctx, "unknown", now)
	assert.ErrorIs(t, err, store.ErrNotFound)

	n, err := s.DeleteExpiredAccessTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.GetAccessToken(ctx, "live", now)
	assert.NoError(t, err)
}
