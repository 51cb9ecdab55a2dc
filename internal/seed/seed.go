// Package seed fills a development store with fake students, posts, answers
// and reports. It is intended for development only.
package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/anonto42/campus-p2p/backend/internal/models"
	"github.com/anonto42/campus-p2p/backend/internal/observability"
	"github.com/anonto42/campus-p2p/backend/internal/service"
	"github.com/brianvoe/gofakeit/v6"
)

// Posts is the part of the post lifecycle the seeder drives.
type Posts interface {
	CreatePost(ctx context.Context, actor models.Actor, in service.CreatePostInput) (*models.Post, error)
	SubmitAnswer(ctx context.Context, actor models.Actor, postID, text string) (*models.Answer, error)
	MarkHelpful(ctx context.Context, actor models.Actor, postID, answerID string) error
	SubmitReport(ctx context.Context, actor models.Actor, postID string, in service.ReportInput) (*models.Report, error)
}

// Profiles creates and completes student profiles.
type Profiles interface {
	Ensure(ctx context.Context, actor models.Actor) error
	Save(ctx context.Context, actor models.Actor, req models.UpdateProfileRequest) (*models.User, error)
}

// Options configuration for the seeder
type Options struct {
	NumUsers int
	NumPosts int
	// MaxAnswers caps the answers generated per question.
	MaxAnswers int
	// ReportPercent is the chance, 0-100, that a post gets reported.
	ReportPercent int
	Domain        string
	Batches       []string
	// Seed makes runs reproducible. Zero picks a random seed.
	Seed int64
}

// Summary counts what a run created.
type Summary struct {
	Users    int
	Posts    int
	Answers  int
	Resolved int
	Reports  int
}

// Seeder generates data through the service layer so every record goes
// through the same validation and state transitions as real traffic.
type Seeder struct {
	posts    Posts
	profiles Profiles
	opts     Options
	faker    *gofakeit.Faker
}

// New creates a Seeder.
func New(posts Posts, profiles Profiles, opts Options) *Seeder {
	if opts.NumUsers < 2 {
		opts.NumUsers = 2
	}
	if opts.MaxAnswers <= 0 {
		opts.MaxAnswers = 3
	}
	if opts.Domain == "" {
		opts.Domain = "example.edu"
	}
	if len(opts.Batches) == 0 {
		opts.Batches = []string{"23-27"}
	}
	return &Seeder{posts: posts, profiles: profiles, opts: opts, faker: gofakeit.New(opts.Seed)}
}

// Run creates the users first, then spreads posts across them.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{}
	users := make([]models.Actor, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		actor, err := s.createUser(ctx, i)
		if err != nil {
			return sum, fmt.Errorf("create user %d: %w", i, err)
		}
		users = append(users, actor)
		sum.Users++
	}

	for i := 0; i < s.opts.NumPosts; i++ {
		author := users[s.faker.Number(0, len(users)-1)]
		post, err := s.posts.CreatePost(ctx, author, s.BuildPost())
		if err != nil {
			return sum, fmt.Errorf("create post %d: %w", i, err)
		}
		sum.Posts++

		if post.Category == models.CategoryQA {
			if err := s.answer(ctx, post, author, users, sum); err != nil {
				return sum, err
			}
		}
		if s.faker.Number(1, 100) <= s.opts.ReportPercent {
			reporter := s.other(users, author)
			if _, err := s.posts.SubmitReport(ctx, reporter, post.ID, s.BuildReport()); err != nil {
				return sum, fmt.Errorf("report post %s: %w", post.ID, err)
			}
			sum.Reports++
		}
	}

	observability.GlobalLogger.Info("Seeding complete",
		"users", sum.Users, "posts", sum.Posts, "answers", sum.Answers,
		"resolved", sum.Resolved, "reports", sum.Reports)
	return sum, nil
}

func (s *Seeder) createUser(ctx context.Context, i int) (models.Actor, error) {
	first, last := s.faker.FirstName(), s.faker.LastName()
	actor := models.Actor{
		UID:   fmt.Sprintf("seed-%04d", i),
		Email: strings.ToLower(fmt.Sprintf("%s.%s%d@%s", first, last, i, s.opts.Domain)),
		Name:  first + " " + last,
	}
	if err := s.profiles.Ensure(ctx, actor); err != nil {
		return actor, err
	}
	_, err := s.profiles.Save(ctx, actor, models.UpdateProfileRequest{
		FullName:       actor.Name,
		RegisterNumber: s.faker.Numerify("2117########"),
		Batch:          s.faker.RandomString(s.opts.Batches),
		ContactNumber:  s.faker.Numerify("9#########"),
	})
	return actor, err
}

func (s *Seeder) answer(ctx context.Context, post *models.Post, author models.Actor, users []models.Actor, sum *Summary) error {
	n := s.faker.Number(0, s.opts.MaxAnswers)
	var last *models.Answer
	for j := 0; j < n; j++ {
		a, err := s.posts.SubmitAnswer(ctx, s.other(users, author), post.ID, clip(s.faker.Paragraph(1, 2, 10, " "), models.MaxAnswerLength))
		if err != nil {
			return fmt.Errorf("answer post %s: %w", post.ID, err)
		}
		last = a
		sum.Answers++
	}
	if last != nil && s.faker.Bool() {
		if err := s.posts.MarkHelpful(ctx, author, post.ID, last.ID); err != nil {
			return fmt.Errorf("resolve post %s: %w", post.ID, err)
		}
		sum.Resolved++
	}
	return nil
}

// other picks a user different from not.
func (s *Seeder) other(users []models.Actor, not models.Actor) models.Actor {
	for {
		u := users[s.faker.Number(0, len(users)-1)]
		if u.UID != not.UID {
			return u
		}
	}
}

// BuildPost generates a post form for a random category.
func (s *Seeder) BuildPost() service.CreatePostInput {
	category := models.Categories[s.faker.Number(0, len(models.Categories)-1)]
	var title string
	switch category {
	case models.CategoryQA:
		title = s.faker.Question()
	case models.CategorySell:
		title = "Selling " + s.faker.ProductName()
	case models.CategoryBuy:
		title = "Looking to buy " + s.faker.ProductName()
	case models.CategoryNeed:
		title = "Need a " + s.faker.NounCommon() + " for " + s.faker.WeekDay()
	case models.CategoryLost:
		title = "Lost my " + s.faker.Color() + " " + s.faker.NounCommon()
	case models.CategoryFound:
		title = "Found a " + s.faker.Color() + " " + s.faker.NounCommon()
	default:
		title = "Team-up for " + s.faker.AppName()
	}
	return service.CreatePostInput{
		Category:    string(category),
		Title:       clip(title, models.MaxTitleLength),
		Description: clip(s.faker.Paragraph(1, 3, 12, " "), models.MaxDescriptionLength),
	}
}

// BuildReport generates a report with a random reason.
func (s *Seeder) BuildReport() service.ReportInput {
	return service.ReportInput{
		Reason:  string(models.ReportReasons[s.faker.Number(0, len(models.ReportReasons)-1)]),
		Details: s.faker.Sentence(8),
	}
}

func clip(s string, max int) string {
	if r := []rune(s); len(r) > max {
		return strings.TrimSpace(string(r[:max]))
	}
	return s
}
