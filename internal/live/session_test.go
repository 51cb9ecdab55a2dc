package live

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/campus-p2p/backend/internal/feed"
	"github.com/anonto42/campus-p2p/backend/internal/models"
	"github.com/anonto42/campus-p2p/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSub is a stoppable subscription handle.
type fakeSub struct {
	mu      sync.Mutex
	stopped bool
}

func (f *fakeSub) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeSub) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

// fakeStore lets tests push snapshots into whichever callback subscribed.
// Methods the session never calls panic through the nil embedded interface.
type fakeStore struct {
	repositories.DocumentStore

	mu            sync.Mutex
	portals       models.Portals
	conversations map[string]*models.Conversation
	postFns       []repositories.SnapshotFunc[models.Post]
	mineFns       []repositories.SnapshotFunc[models.Post]
	reportFns     []repositories.SnapshotFunc[models.Report]
	convFns       []repositories.SnapshotFunc[models.Conversation]
	messageFns    map[string][]repositories.SnapshotFunc[models.Message]
	errFns        map[string]repositories.ErrorFunc
	subs          map[string][]*fakeSub
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		portals:       models.DefaultPortals(),
		conversations: map[string]*models.Conversation{},
		messageFns:    map[string][]repositories.SnapshotFunc[models.Message]{},
		errFns:        map[string]repositories.ErrorFunc{},
		subs:          map[string][]*fakeSub{},
	}
}

func (f *fakeStore) track(key string, onErr repositories.ErrorFunc) *fakeSub {
	sub := &fakeSub{}
	f.subs[key] = append(f.subs[key], sub)
	f.errFns[key] = onErr
	return sub
}

func (f *fakeStore) GetPortals(ctx context.Context) (models.Portals, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.portals, nil
}

func (f *fakeStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[id]
	if !ok {
		return nil, models.NewNotFoundError("Conversation", id)
	}
	return c, nil
}

func (f *fakeStore) SubscribePosts(ctx context.Context, limit int, fn repositories.SnapshotFunc[models.Post], onErr repositories.ErrorFunc) (repositories.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.postFns = append(f.postFns, fn)
	return f.track("posts", onErr), nil
}

func (f *fakeStore) SubscribeAuthorPosts(ctx context.Context, authorID string, fn repositories.SnapshotFunc[models.Post], onErr repositories.ErrorFunc) (repositories.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mineFns = append(f.mineFns, fn)
	return f.track("myposts:"+authorID, onErr), nil
}

func (f *fakeStore) SubscribeReports(ctx context.Context, fn repositories.SnapshotFunc[models.Report], onErr repositories.ErrorFunc) (repositories.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reportFns = append(f.reportFns, fn)
	return f.track("reports", onErr), nil
}

func (f *fakeStore) SubscribeConversations(ctx context.Context, uid string, fn repositories.SnapshotFunc[models.Conversation], onErr repositories.ErrorFunc) (repositories.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.convFns = append(f.convFns, fn)
	return f.track("conversations", onErr), nil
}

func (f *fakeStore) SubscribeMessages(ctx context.Context, conversationID string, fn repositories.SnapshotFunc[models.Message], onErr repositories.ErrorFunc) (repositories.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messageFns[conversationID] = append(f.messageFns[conversationID], fn)
	return f.track("messages:"+conversationID, onErr), nil
}

func (f *fakeStore) pushPosts(posts []models.Post) {
	f.mu.Lock()
	fns := append([]repositories.SnapshotFunc[models.Post](nil), f.postFns...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(posts)
	}
}

func (f *fakeStore) pushMyPosts(posts []models.Post) {
	f.mu.Lock()
	fns := append([]repositories.SnapshotFunc[models.Post](nil), f.mineFns...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(posts)
	}
}

func (f *fakeStore) pushReports(reports []models.Report) {
	f.mu.Lock()
	fns := append([]repositories.SnapshotFunc[models.Report](nil), f.reportFns...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(reports)
	}
}

func (f *fakeStore) pushMessages(id string, msgs []models.Message) {
	f.mu.Lock()
	fns := append([]repositories.SnapshotFunc[models.Message](nil), f.messageFns[id]...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(msgs)
	}
}

// fakeUsers satisfies the user count lookup.
type fakeUsers struct {
	repositories.UserRepository
	count int64
}

func (f *fakeUsers) CountUsers(ctx context.Context) (int64, error) { return f.count, nil }

type recorder struct {
	mu     sync.Mutex
	frames []Frame
}

func (r *recorder) Send(f Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	return nil
}

func (r *recorder) last(kind string) (Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.frames) - 1; i >= 0; i-- {
		if r.frames[i].Type == kind {
			return r.frames[i], true
		}
	}
	return Frame{}, false
}

func (r *recorder) count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, f := range r.frames {
		if f.Type == kind {
			n++
		}
	}
	return n
}

var (
	student = models.Actor{UID: "alice"}
	admin   = models.Actor{UID: "root", IsAdmin: true}
)

func samplePosts() []models.Post {
	return []models.Post{
		{ID: "p1", Category: models.CategoryQA, Status: models.StatusActive, AuthorID: "alice", Title: "Exam tips"},
		{ID: "p2", Category: models.CategorySell, Status: models.StatusActive, AuthorID: "bob", Title: "Bike"},
		{ID: "p3", Category: models.CategoryBuy, Status: models.StatusReported, AuthorID: "alice", Title: "Phone"},
	}
}

func startSession(t *testing.T, actor models.Actor) (*Session, *fakeStore, *recorder) {
	t.Helper()
	store := newFakeStore()
	rec := &recorder{}
	s := NewSession(actor, Deps{Store: store, Users: &fakeUsers{count: 3}, FeedWindow: 100}, rec)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Close)
	return s, store, rec
}

func feedData(t *testing.T, rec *recorder) FeedData {
	t.Helper()
	f, ok := rec.last(FrameFeed)
	require.True(t, ok, "no feed frame")
	return f.Data.(FeedData)
}

func postIDs(posts []models.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func TestSession_FeedFollowsView(t *testing.T) {
	ctx := context.Background()
	s, store, rec := startSession(t, student)

	store.pushPosts(samplePosts())
	store.pushMyPosts(myPosts(samplePosts()))
	data := feedData(t, rec)
	assert.Equal(t, []string{"p1", "p2"}, postIDs(data.Posts))
	assert.Equal(t, []string{"p1", "p3"}, postIDs(data.MyPosts))

	require.NoError(t, s.Handle(ctx, Command{Type: CommandNavigate, Page: "marketplace"}))
	assert.Equal(t, []string{"p2"}, postIDs(feedData(t, rec).Posts))

	require.NoError(t, s.Handle(ctx, Command{Type: CommandSearch, Search: "nothing"}))
	assert.Empty(t, feedData(t, rec).Posts)

	require.NoError(t, s.Handle(ctx, Command{Type: CommandNavigate, Page: "qa"}))
	view := s.View()
	assert.Equal(t, feed.PageQA, view.Page)
	assert.Equal(t, feed.FilterAll, view.FilterTab)
	assert.Empty(t, view.Search)
	assert.Equal(t, []string{"p1"}, postIDs(feedData(t, rec).Posts))
}

func myPosts(posts []models.Post) []models.Post {
	return feed.MyPosts(posts, student.UID)
}

func TestSession_MyPostsReachBeyondFeedWindow(t *testing.T) {
	_, store, rec := startSession(t, student)
	old := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	recent := old.AddDate(1, 0, 0)

	store.pushPosts([]models.Post{{ID: "p2", Category: models.CategorySell, Status: models.StatusActive, AuthorID: "bob", CreatedAt: recent}})
	assert.Empty(t, feedData(t, rec).MyPosts)

	store.pushMyPosts([]models.Post{
		{ID: "old", Category: models.CategoryQA, Status: models.StatusHidden, AuthorID: "alice", CreatedAt: old},
		{ID: "new", Category: models.CategoryQA, Status: models.StatusActive, AuthorID: "alice", CreatedAt: recent},
	})

	data := feedData(t, rec)
	assert.Equal(t, []string{"new", "old"}, postIDs(data.MyPosts))
	assert.Equal(t, []string{"p2"}, postIDs(data.Posts))
	require.Len(t, store.subs["myposts:alice"], 1)
}

func TestSession_NavigateRefreshesPortals(t *testing.T) {
	ctx := context.Background()
	s, store, rec := startSession(t, student)
	store.pushPosts(samplePosts())

	store.mu.Lock()
	store.portals.QA = false
	store.mu.Unlock()
	require.NoError(t, s.Handle(ctx, Command{Type: CommandNavigate, Page: "home"}))

	data := feedData(t, rec)
	assert.False(t, data.Portals.QA)
	assert.Equal(t, []string{"p2"}, postIDs(data.Posts))
}

func TestSession_NonAdminGetsNoDashboard(t *testing.T) {
	_, store, rec := startSession(t, student)

	store.pushPosts(samplePosts())

	assert.Zero(t, rec.count(FrameDashboard))
	assert.Empty(t, store.subs["reports"])
}

func TestSession_AdminMyPostsComeFromFullFeed(t *testing.T) {
	_, store, rec := startSession(t, admin)
	posts := append(samplePosts(), models.Post{ID: "p9", Category: models.CategoryQA, Status: models.StatusActive, AuthorID: "root"})

	store.pushPosts(posts)

	assert.Equal(t, []string{"p9"}, postIDs(feedData(t, rec).MyPosts))
	assert.Empty(t, store.subs["myposts:root"])
}

func TestSession_AdminDashboardCombinesStreams(t *testing.T) {
	_, store, rec := startSession(t, admin)

	store.pushReports([]models.Report{{ID: "r1", PostID: "p3", Reason: models.ReasonScam}})
	store.pushPosts(samplePosts())

	f, ok := rec.last(FrameDashboard)
	require.True(t, ok)
	d := f.Data.(feed.Dashboard)
	assert.Equal(t, 3, d.Stats.TotalPosts)
	assert.EqualValues(t, 3, d.Stats.TotalUsers)
	require.Len(t, d.ReviewQueue, 1)
	assert.Equal(t, 1, d.ReviewQueue[0].ReportCount)
	assert.Len(t, d.AllPosts, 3)
	require.Len(t, d.Leaderboard, 1)
	assert.Equal(t, "alice", d.Leaderboard[0].UserID)
}

func TestSession_OpenChatReplacesMessageSubscription(t *testing.T) {
	ctx := context.Background()
	s, store, rec := startSession(t, student)
	store.conversations["alice_bob"] = &models.Conversation{ID: "alice_bob", Participants: []string{"alice", "bob"}}
	store.conversations["alice_carol"] = &models.Conversation{ID: "alice_carol", Participants: []string{"alice", "carol"}}

	require.NoError(t, s.Handle(ctx, Command{Type: CommandOpenChat, ConversationID: "alice_bob"}))
	require.NoError(t, s.Handle(ctx, Command{Type: CommandOpenChat, ConversationID: "alice_carol"}))

	require.Len(t, store.subs["messages:alice_bob"], 1)
	assert.True(t, store.subs["messages:alice_bob"][0].isStopped())
	assert.False(t, store.subs["messages:alice_carol"][0].isStopped())

	store.pushMessages("alice_bob", []models.Message{{ID: "stale"}})
	assert.Zero(t, rec.count(FrameMessages))

	store.pushMessages("alice_carol", []models.Message{{ID: "m1", Text: "hi"}})
	f, ok := rec.last(FrameMessages)
	require.True(t, ok)
	data := f.Data.(MessagesData)
	assert.Equal(t, "alice_carol", data.ConversationID)
	require.Len(t, data.Messages, 1)

	require.NoError(t, s.Handle(ctx, Command{Type: CommandCloseChat}))
	assert.True(t, store.subs["messages:alice_carol"][0].isStopped())
	assert.Empty(t, s.View().ChatID)
}

func TestSession_OpenChatRequiresParticipant(t *testing.T) {
	ctx := context.Background()
	s, store, _ := startSession(t, student)
	store.conversations["bob_carol"] = &models.Conversation{ID: "bob_carol", Participants: []string{"bob", "carol"}}

	err := s.Handle(ctx, Command{Type: CommandOpenChat, ConversationID: "bob_carol"})
	assert.True(t, models.IsCode(err, models.CodePermissionDenied))

	err = s.Handle(ctx, Command{Type: CommandOpenChat, ConversationID: "missing"})
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	assert.Empty(t, store.subs["messages:bob_carol"])
}

func TestSession_ConversationsSortedByActivity(t *testing.T) {
	_, store, rec := startSession(t, student)
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	store.mu.Lock()
	fn := store.convFns[0]
	store.mu.Unlock()
	fn([]models.Conversation{
		{ID: "a", LastMessageTime: &t0},
		{ID: "b", LastMessageTime: &t1},
	})

	f, ok := rec.last(FrameConversations)
	require.True(t, ok)
	convs := f.Data.([]models.Conversation)
	assert.Equal(t, "b", convs[0].ID)
}

func TestSession_CloseStopsEverythingAndIgnoresLateSnapshots(t *testing.T) {
	s, store, rec := startSession(t, admin)

	s.Close()
	s.Close()

	for _, key := range []string{"posts", "reports", "conversations"} {
		require.Len(t, store.subs[key], 1, key)
		assert.True(t, store.subs[key][0].isStopped(), key)
	}

	store.pushPosts(samplePosts())
	assert.Zero(t, rec.count(FrameFeed))
	assert.ErrorIs(t, s.Handle(context.Background(), Command{Type: CommandFilter, Filter: "qa"}), ErrClosed)
}

func TestSession_StreamErrorsBecomeFrames(t *testing.T) {
	_, store, rec := startSession(t, student)

	store.mu.Lock()
	onErr := store.errFns["posts"]
	store.mu.Unlock()
	onErr(models.NewPermissionDeniedError("Missing or insufficient permissions"))

	f, ok := rec.last(FrameError)
	require.True(t, ok)
	assert.Equal(t, models.CodePermissionDenied, f.Data.(models.ErrorResponse).Code)
}

func TestSession_UnknownCommand(t *testing.T) {
	s, _, _ := startSession(t, student)

	err := s.Handle(context.Background(), Command{Type: "dance"})

	assert.True(t, models.IsCode(err, models.CodeValidation))
}

func TestSession_CloseStopsOwnPostsStream(t *testing.T) {
	s, store, rec := startSession(t, student)

	s.Close()

	require.Len(t, store.subs["myposts:alice"], 1)
	assert.True(t, store.subs["myposts:alice"][0].isStopped())
	store.pushMyPosts(myPosts(samplePosts()))
	assert.Zero(t, rec.count(FrameFeed))
}
