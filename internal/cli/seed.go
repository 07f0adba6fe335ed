package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/quillhq/quill/internal/app"
	"github.com/quillhq/quill/internal/service"
)

// Fixtures is the seed file layout.
type Fixtures struct {
	Users []UserFixture `yaml:"users"`
	Posts []PostFixture `yaml:"posts"`
}

// UserFixture is an account to register.
type UserFixture struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// PostFixture is a post and its comments.
type PostFixture struct {
	Title           string           `yaml:"title"`
	Content         string           `yaml:"content"`
	PublicationDate *time.Time       `yaml:"publication_date"`
	Comments        []CommentFixture `yaml:"comments"`
}

// CommentFixture is a comment on the enclosing post.
type CommentFixture struct {
	Content         string     `yaml:"content"`
	PublicationDate *time.Time `yaml:"publication_date"`
}

// ReadFixtures parses a YAML fixtures document. Unknown keys are rejected.
func ReadFixtures(r io.Reader) (*Fixtures, error) {
	var f Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	for i, p := range f.Posts {
		if p.Title == "" || p.Content == "" {
			return nil, fmt.Errorf("post %d: title and content are required", i+1)
		}
	}
	for i, u := range f.Users {
		if u.Email == "" || u.Password == "" {
			return nil, fmt.Errorf("user %d: email and password are required", i+1)
		}
	}
	return &f, nil
}

// SeedReport counts what Seed created.
type SeedReport struct {
	Users        int
	SkippedUsers int
	Posts        int
	Comments     int
}

// Registrar registers accounts. *service.AuthService implements it.
type Registrar interface {
	Register(ctx context.Context, email, password string) error
}

type registrarFunc func(ctx context.Context, email, password string) error

func (f registrarFunc) Register(ctx context.Context, email, password string) error {
	return f(ctx, email, password)
}

// Seed loads fixtures through the services so hashing and defaults apply.
// Users whose email already exists are skipped.
func Seed(ctx context.Context, f *Fixtures, users Registrar, posts *service.PostService, p printer) (SeedReport, error) {
	var report SeedReport

	for _, u := range f.Users {
		err := users.Register(ctx, u.Email, u.Password)
		if errors.Is(err, service.ErrEmailExists) {
			p.skip("user %s already exists", u.Email)
			report.SkippedUsers++
			continue
		}
		if err != nil {
			return report, fmt.Errorf("register %s: %w", u.Email, err)
		}
		p.ok("user %s", u.Email)
		report.Users++
	}

	for _, fp := range f.Posts {
		post, err := posts.Create(ctx, service.CreatePostInput{
			Title:           fp.Title,
			Content:         fp.Content,
			PublicationDate: fp.PublicationDate,
		})
		if err != nil {
			return report, fmt.Errorf("create post %q: %w", fp.Title, err)
		}
		report.Posts++

		for _, fc := range fp.Comments {
			if _, err := posts.AddComment(ctx, service.CreateCommentInput{
				PostID:          post.ID,
				Content:         fc.Content,
				PublicationDate: fc.PublicationDate,
			}); err != nil {
				return report, fmt.Errorf("comment on post %s: %w", post.ID, err)
			}
			report.Comments++
		}
		p.ok("post %s %q (%d comments)", post.ID, post.Title, len(fp.Comments))
	}

	return report, nil
}

func seedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users, posts and comments from a YAML fixtures file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open fixtures: %w", err)
			}
			fixtures, err := ReadFixtures(f)
			f.Close()
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			stores, err := app.OpenStores(ctx, cfg)
			if err != nil {
				return err
			}
			defer stores.Close(context.Background())

			logger := quietLogger(cmd.ErrOrStderr())
			authSvc := service.NewAuthService(stores.Users, nil, service.AuthConfig{TokenTTL: cfg.TokenTTL}, logger, nil)
			register := registrarFunc(func(ctx context.Context, email, password string) error {
				_, err := authSvc.Register(ctx, email, password)
				return err
			})

			p := newPrinter(cmd.OutOrStdout())
			report, err := Seed(ctx, fixtures, register, service.NewPostService(stores.Posts, nil), p)
			if err != nil {
				return err
			}
			p.note("%d users (%d skipped), %d posts, %d comments",
				report.Users, report.SkippedUsers, report.Posts, report.Comments)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "fixtures.yaml", "fixtures file")
	return cmd
}
