package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	t.Parallel()

	c, err := ParseCategory(" QA ")
	require.NoError(t, err)
	assert.Equal(t, CategoryQA, c)

	_, err = ParseCategory("events")
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeValidation))
}

func TestNewPost_InitialState(t *testing.T) {
	t.Parallel()

	p := NewPost(CategorySell, "Bike", "Barely used", "", Actor{UID: "u1"}, "Asha")
	assert.Equal(t, StatusActive, p.Status)
	assert.Nil(t, p.HelpfulAnswerID)
	assert.Zero(t, p.AnswerCount)
	assert.Equal(t, "u1", p.AuthorID)
	assert.Equal(t, "Asha", p.AuthorName)
}

func TestPost_CheckResolvableBy(t *testing.T) {
	t.Parallel()

	owner := Actor{UID: "owner"}
	answerID := "a1"

	tests := []struct {
		name  string
		post  Post
		actor Actor
		code  string
	}{
		{"owner on open question", Post{AuthorID: "owner", Category: CategoryQA, Status: StatusActive}, owner, ""},
		{"stranger", Post{AuthorID: "owner", Category: CategoryQA, Status: StatusActive}, Actor{UID: "x"}, CodePermissionDenied},
		{"admin is not the owner", Post{AuthorID: "owner", Category: CategoryQA, Status: StatusActive}, Actor{UID: "adm", IsAdmin: true}, CodePermissionDenied},
		{"not a question", Post{AuthorID: "owner", Category: CategorySell, Status: StatusActive}, owner, CodeValidation},
		{"already resolved", Post{AuthorID: "owner", Category: CategoryQA, Status: StatusResolved, HelpfulAnswerID: &answerID}, owner, CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.post.CheckResolvableBy(tt.actor)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestPost_CheckAcceptsAnswer(t *testing.T) {
	t.Parallel()

	assert.NoError(t, (&Post{Status: StatusActive}).CheckAcceptsAnswer())
	assert.NoError(t, (&Post{Status: StatusReported}).CheckAcceptsAnswer())
	assert.Error(t, (&Post{Status: StatusResolved}).CheckAcceptsAnswer())
}

func TestPost_ModerationGuards(t *testing.T) {
	t.Parallel()

	assert.NoError(t, (&Post{Status: StatusReported}).CheckUnderReview())
	assert.NoError(t, (&Post{Status: StatusHidden}).CheckUnderReview())
	assert.Error(t, (&Post{Status: StatusActive}).CheckUnderReview())

	assert.NoError(t, (&Post{Status: StatusActive}).CheckHideable())
	assert.NoError(t, (&Post{Status: StatusReported}).CheckHideable())
	assert.Error(t, (&Post{Status: StatusHidden}).CheckHideable())
	assert.Error(t, (&Post{Status: StatusResolved}).CheckHideable())
}

func TestPost_VisibleTo(t *testing.T) {
	t.Parallel()

	reported := &Post{AuthorID: "a", Status: StatusReported}
	assert.True(t, reported.VisibleTo(Actor{UID: "a"}))
	assert.True(t, reported.VisibleTo(Actor{UID: "m", IsAdmin: true}))
	assert.False(t, reported.VisibleTo(Actor{UID: "b"}))
	assert.True(t, (&Post{Status: StatusResolved}).VisibleTo(Actor{UID: "b"}))
}

func TestConversationID_IsOrderIndependent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc_xyz", ConversationID("xyz", "abc"))
	assert.Equal(t, ConversationID("u2", "u1"), ConversationID("u1", "u2"))

	c := Conversation{Participants: []string{"u1", "u2"}}
	assert.True(t, c.HasParticipant("u2"))
	assert.False(t, c.HasParticipant("u3"))
	assert.Equal(t, "u1", c.OtherParticipant("u2"))
}

func TestAppError_Classification(t *testing.T) {
	t.Parallel()

	wrapped := AsPersistence("save post", assert.AnError)
	assert.True(t, IsCode(wrapped, CodePersistence))
	assert.ErrorIs(t, wrapped, assert.AnError)

	already := NewNotFoundError("Post", "p1")
	assert.Same(t, already, AsPersistence("load", already))
	assert.Equal(t, "", ErrorCode(assert.AnError))
	assert.Nil(t, AsPersistence("noop", nil))
}

func TestParseReportReason(t *testing.T) {
	t.Parallel()

	r, err := ParseReportReason("Scam")
	require.NoError(t, err)
	assert.Equal(t, ReasonScam, r)

	_, err = ParseReportReason("")
	assert.True(t, IsCode(err, CodeValidation))
	_, err = ParseReportReason("boring")
	assert.True(t, IsCode(err, CodeValidation))
}

func TestPost_StatusTransitionsAroundReview(t *testing.T) {
	t.Parallel()

	assert.Equal(t, StatusReported, (&Post{Status: StatusActive}).StatusAfterReport())
	assert.Equal(t, StatusReported, (&Post{Status: StatusReported}).StatusAfterReport())

	assert.Equal(t, StatusActive, (&Post{Status: StatusReported}).StatusAfterReview())
	assert.Equal(t, StatusActive, (&Post{Status: StatusHidden}).StatusAfterReview())
}

func TestPost_ReportOnHiddenPostReopensReview(t *testing.T) {
	t.Parallel()

	assert.Equal(t, StatusReported, (&Post{Status: StatusHidden}).StatusAfterReport())
}

func TestPost_ReportOnResolvedPostIsReported(t *testing.T) {
	t.Parallel()

	answerID := "a1"
	assert.Equal(t, StatusReported, (&Post{Status: StatusResolved, HelpfulAnswerID: &answerID}).StatusAfterReport())
}

// Deny on a resolved post restores resolved, not active.
func TestPost_DenyOnResolvedThenReportedPostRestoresResolved(t *testing.T) {
	t.Parallel()

	answerID := "a1"
	p := &Post{Category: CategoryQA, Status: StatusResolved, HelpfulAnswerID: &answerID}
	p.Status = p.StatusAfterReport()
	require.Equal(t, StatusReported, p.Status)

	assert.Equal(t, StatusResolved, p.StatusAfterReview())
}
