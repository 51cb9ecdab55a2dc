package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/anonto42/campus-p2p/backend/internal/models"
	"github.com/anonto42/campus-p2p/backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProfiles struct {
	saved []models.UpdateProfileRequest
}

func (f *fakeProfiles) Ensure(context.Context, models.Actor) error { return nil }

func (f *fakeProfiles) Save(_ context.Context, actor models.Actor, req models.UpdateProfileRequest) (*models.User, error) {
	f.saved = append(f.saved, req)
	return &models.User{UID: actor.UID, FullName: req.FullName}, nil
}

type fakePosts struct {
	posts    map[string]*models.Post
	answers  int
	reports  []string
	resolved []string
	failErr  error
}

func newFakePosts() *fakePosts { return &fakePosts{posts: map[string]*models.Post{}} }

func (f *fakePosts) CreatePost(_ context.Context, actor models.Actor, in service.CreatePostInput) (*models.Post, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	category, err := models.ParseCategory(in.Category)
	if err != nil {
		return nil, err
	}
	p := models.NewPost(category, in.Title, in.Description, "", actor, actor.Name)
	p.ID = fmt.Sprintf("p%d", len(f.posts)+1)
	f.posts[p.ID] = p
	return p, nil
}

func (f *fakePosts) SubmitAnswer(_ context.Context, actor models.Actor, postID, text string) (*models.Answer, error) {
	if f.posts[postID].AuthorID == actor.UID {
		return nil, errors.New("author answered own question")
	}
	f.answers++
	return &models.Answer{ID: fmt.Sprintf("a%d", f.answers), PostID: postID, Text: text}, nil
}

func (f *fakePosts) MarkHelpful(_ context.Context, actor models.Actor, postID, answerID string) error {
	if err := f.posts[postID].CheckResolvableBy(actor); err != nil {
		return err
	}
	f.posts[postID].Status = models.StatusResolved
	f.resolved = append(f.resolved, postID)
	return nil
}

func (f *fakePosts) SubmitReport(_ context.Context, actor models.Actor, postID string, in service.ReportInput) (*models.Report, error) {
	if f.posts[postID].AuthorID == actor.UID {
		return nil, errors.New("author reported own post")
	}
	if _, err := models.ParseReportReason(in.Reason); err != nil {
		return nil, err
	}
	f.reports = append(f.reports, postID)
	return &models.Report{PostID: postID}, nil
}

func TestRun_CreatesEverything(t *testing.T) {
	posts, profiles := newFakePosts(), &fakeProfiles{}
	s := New(posts, profiles, Options{
		NumUsers: 5, NumPosts: 40, ReportPercent: 100,
		Domain: "ritchennai.edu.in", Batches: []string{"22-26", "23-27"}, Seed: 42,
	})

	sum, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, sum.Users)
	assert.Equal(t, 40, sum.Posts)
	assert.Equal(t, 40, sum.Reports)
	assert.Equal(t, posts.answers, sum.Answers)
	assert.Len(t, posts.resolved, sum.Resolved)
	require.Len(t, profiles.saved, 5)
	for _, req := range profiles.saved {
		assert.Contains(t, []string{"22-26", "23-27"}, req.Batch)
		assert.NotEmpty(t, req.FullName)
	}
}

func TestRun_Deterministic(t *testing.T) {
	run := func() *Summary {
		s := New(newFakePosts(), &fakeProfiles{}, Options{NumUsers: 3, NumPosts: 20, ReportPercent: 30, Seed: 7})
		sum, err := s.Run(context.Background())
		require.NoError(t, err)
		return sum
	}
	assert.Equal(t, run(), run())
}

func TestRun_StopsOnError(t *testing.T) {
	posts := newFakePosts()
	posts.failErr = models.NewValidationError("This portal is currently disabled")
	s := New(posts, &fakeProfiles{}, Options{NumUsers: 2, NumPosts: 3, Seed: 1})

	sum, err := s.Run(context.Background())
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeValidation))
	assert.Equal(t, 0, sum.Posts)
}

func TestBuildPost_WithinLimits(t *testing.T) {
	s := New(newFakePosts(), &fakeProfiles{}, Options{Seed: 3})
	for i := 0; i < 200; i++ {
		in := s.BuildPost()
		_, err := models.ParseCategory(in.Category)
		require.NoError(t, err)
		assert.NotEmpty(t, strings.TrimSpace(in.Title))
		assert.LessOrEqual(t, utf8.RuneCountInString(in.Title), models.MaxTitleLength)
		assert.LessOrEqual(t, utf8.RuneCountInString(in.Description), models.MaxDescriptionLength)
	}
}
