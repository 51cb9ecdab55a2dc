package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/campus-p2p/backend/internal/models"
	"github.com/anonto42/campus-p2p/backend/internal/repositories"
)

// memStore is an in-memory DocumentStore and UserRepository. Every method
// holds the lock for its whole duration, so multi-document writes are atomic
// unless a failure is injected between steps.
type memStore struct {
	mu            sync.Mutex
	seq           int
	clock         time.Time
	posts         map[string]*models.Post
	answers       map[string][]models.Answer
	reports       map[string]*models.Report
	conversations map[string]*models.Conversation
	messages      map[string][]models.Message
	portals       *models.Portals
	announcements []models.Announcement
	users         map[string]*models.User
	fail          map[string]error
}

var (
	_ repositories.DocumentStore  = (*memStore)(nil)
	_ repositories.UserRepository = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		clock:         time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		posts:         map[string]*models.Post{},
		answers:       map[string][]models.Answer{},
		reports:       map[string]*models.Report{},
		conversations: map[string]*models.Conversation{},
		messages:      map[string][]models.Message{},
		users:         map[string]*models.User{},
		fail:          map[string]error{},
	}
}

// failOn makes the named step return err until cleared.
func (m *memStore) failOn(step string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[step] = err
}

func (m *memStore) injected(step string) error {
	if err, ok := m.fail[step]; ok {
		return models.NewPersistenceError(step, err)
	}
	return nil
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%d", prefix, m.seq)
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

type noopSubscription struct{}

func (noopSubscription) Stop() {}

// posts

func (m *memStore) CreatePost(ctx context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("CreatePost"); err != nil {
		return err
	}
	post.ID = m.nextID("post")
	post.CreatedAt = m.tick()
	cp := *post
	m.posts[post.ID] = &cp
	return nil
}

func (m *memStore) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, models.NewNotFoundError("Post", id)
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) ListPosts(ctx context.Context, limit int) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("ListPosts"); err != nil {
		return nil, err
	}
	out := make([]models.Post, 0, len(m.posts))
	for _, p := range m.posts {
		out = append(out, *p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ListAnswers(ctx context.Context, postID string) ([]models.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Answer(nil), m.answers[postID]...), nil
}

func (m *memStore) AddAnswer(ctx context.Context, postID string, answer *models.Answer, check repositories.PostCheck) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.checked(postID, check)
	if err != nil {
		return err
	}
	answer.ID = m.nextID("answer")
	answer.PostID = postID
	answer.CreatedAt = m.tick()
	m.answers[postID] = append(m.answers[postID], *answer)
	p.AnswerCount++
	return nil
}

func (m *memStore) ResolvePost(ctx context.Context, postID, answerID string, check repositories.PostCheck) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.checked(postID, check)
	if err != nil {
		return err
	}
	found := false
	for _, a := range m.answers[postID] {
		if a.ID == answerID {
			found = true
		}
	}
	if !found {
		return models.NewNotFoundError("Answer", answerID)
	}
	now := m.tick()
	id := answerID
	p.HelpfulAnswerID = &id
	p.Status = models.StatusResolved
	p.UpdatedAt = &now
	return nil
}

func (m *memStore) SubscribePosts(ctx context.Context, limit int, fn repositories.SnapshotFunc[models.Post], onErr repositories.ErrorFunc) (repositories.Subscription, error) {
	posts, err := m.ListPosts(ctx, limit)
	if err != nil {
		return nil, err
	}
	fn(posts)
	return noopSubscription{}, nil
}

func (m *memStore) SubscribeAuthorPosts(ctx context.Context, authorID string, fn repositories.SnapshotFunc[models.Post], onErr repositories.ErrorFunc) (repositories.Subscription, error) {
	posts, err := m.ListPosts(ctx, 0)
	if err != nil {
		return nil, err
	}
	mine := make([]models.Post, 0)
	for _, p := range posts {
		if p.AuthorID == authorID {
			mine = append(mine, p)
		}
	}
	fn(mine)
	return noopSubscription{}, nil
}

func (m *memStore) checked(postID string, check repositories.PostCheck) (*models.Post, error) {
	p, ok := m.posts[postID]
	if !ok {
		return nil, models.NewNotFoundError("Post", postID)
	}
	if check != nil {
		cp := *p
		if err := check(&cp); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// reports

func (m *memStore) ListReports(ctx context.Context) ([]models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Report, 0, len(m.reports))
	for _, r := range m.reports {
		out = append(out, *r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) ListReportsForPost(ctx context.Context, postID string) ([]models.Report, error) {
	all, _ := m.ListReports(ctx)
	out := make([]models.Report, 0)
	for _, r := range all {
		if r.PostID == postID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) DeleteReports(ctx context.Context, ids []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range ids {
		if _, ok := m.reports[id]; ok {
			delete(m.reports, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) SubscribeReports(ctx context.Context, fn repositories.SnapshotFunc[models.Report], onErr repositories.ErrorFunc) (repositories.Subscription, error) {
	reports, _ := m.ListReports(ctx)
	fn(reports)
	return noopSubscription{}, nil
}

// addReport stores a report directly, bypassing the post transition.
func (m *memStore) addReport(postID string, createdAt time.Time) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID("report")
	m.reports[id] = &models.Report{ID: id, PostID: postID, Reason: models.ReasonSpam, CreatedAt: createdAt}
	return id
}

// moderation

func (m *memStore) FlagPost(ctx context.Context, report *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[report.PostID]
	if !ok {
		return models.NewNotFoundError("Post", report.PostID)
	}
	report.ID = m.nextID("report")
	report.CreatedAt = m.tick()
	cp := *report
	m.reports[report.ID] = &cp
	if err := m.injected("FlagPost.status"); err != nil {
		return models.NewPartialFailureError("post status", err)
	}
	p.Status = p.StatusAfterReport()
	return nil
}

func (m *memStore) ReinstatePost(ctx context.Context, postID string, check repositories.PostCheck) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.checked(postID, check)
	if err != nil {
		return 0, err
	}
	p.Status = p.StatusAfterReview()
	p.UpdatedAt = nil
	return m.dropReports(postID), nil
}

func (m *memStore) HidePost(ctx context.Context, postID string, check repositories.PostCheck) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.checked(postID, check)
	if err != nil {
		return err
	}
	now := m.tick()
	p.Status = models.StatusHidden
	p.UpdatedAt = &now
	return nil
}

func (m *memStore) PurgePost(ctx context.Context, postID string, check repositories.PostCheck) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.checked(postID, check); err != nil {
		return 0, err
	}
	delete(m.posts, postID)
	delete(m.answers, postID)
	return m.dropReports(postID), nil
}

func (m *memStore) PurgeAllPosts(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.posts)
	m.posts = map[string]*models.Post{}
	m.answers = map[string][]models.Answer{}
	m.reports = map[string]*models.Report{}
	return n, nil
}

func (m *memStore) dropReports(postID string) int {
	n := 0
	for id, r := range m.reports {
		if r.PostID == postID {
			delete(m.reports, id)
			n++
		}
	}
	return n
}

// conversations

func (m *memStore) CreateConversation(ctx context.Context, conv *models.Conversation) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.conversations[conv.ID]; ok {
		return false, nil
	}
	conv.CreatedAt = m.tick()
	cp := *conv
	m.conversations[conv.ID] = &cp
	return true, nil
}

func (m *memStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok {
		return nil, models.NewNotFoundError("Conversation", id)
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) ListConversations(ctx context.Context, uid string) ([]models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Conversation, 0)
	for _, c := range m.conversations {
		if c.HasParticipant(uid) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) AppendMessage(ctx context.Context, conversationID string, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("AppendMessage"); err != nil {
		return err
	}
	msg.ID = m.nextID("msg")
	msg.CreatedAt = m.tick()
	m.messages[conversationID] = append(m.messages[conversationID], *msg)
	return nil
}

func (m *memStore) TouchConversation(ctx context.Context, conversationID, lastMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("TouchConversation"); err != nil {
		return err
	}
	c, ok := m.conversations[conversationID]
	if !ok {
		return models.NewNotFoundError("Conversation", conversationID)
	}
	now := m.tick()
	c.LastMessage = lastMessage
	c.LastMessageTime = &now
	return nil
}

func (m *memStore) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Message(nil), m.messages[conversationID]...), nil
}

func (m *memStore) SubscribeConversations(ctx context.Context, uid string, fn repositories.SnapshotFunc[models.Conversation], onErr repositories.ErrorFunc) (repositories.Subscription, error) {
	convs, _ := m.ListConversations(ctx, uid)
	fn(convs)
	return noopSubscription{}, nil
}

func (m *memStore) SubscribeMessages(ctx context.Context, conversationID string, fn repositories.SnapshotFunc[models.Message], onErr repositories.ErrorFunc) (repositories.Subscription, error) {
	msgs, _ := m.ListMessages(ctx, conversationID)
	fn(msgs)
	return noopSubscription{}, nil
}

// settings

func (m *memStore) GetPortals(ctx context.Context) (models.Portals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.portals == nil {
		p := models.DefaultPortals()
		m.portals = &p
	}
	return *m.portals, nil
}

func (m *memStore) SavePortals(ctx context.Context, portals models.Portals) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.portals = &portals
	return nil
}

func (m *memStore) LatestAnnouncement(ctx context.Context) (*models.Announcement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.announcements) == 0 {
		return nil, models.NewNotFoundError("Announcement", "latest")
	}
	a := m.announcements[len(m.announcements)-1]
	return &a, nil
}

func (m *memStore) CreateAnnouncement(ctx context.Context, a *models.Announcement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.nextID("announcement")
	a.CreatedAt = m.tick()
	m.announcements = append(m.announcements, *a)
	return nil
}

// users

func (m *memStore) EnsureUser(ctx context.Context, uid, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[uid]; !ok {
		m.users[uid] = &models.User{UID: uid, Email: email, Role: models.RoleUser, CreatedAt: m.tick()}
	}
	return nil
}

func (m *memStore) GetUserByUID(ctx context.Context, uid string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("GetUserByUID"); err != nil {
		return nil, err
	}
	u, ok := m.users[uid]
	if !ok {
		return nil, models.NewNotFoundError("User", uid)
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUsersByUIDs(ctx context.Context, uids []string) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(uids))
	for _, uid := range uids {
		if u, ok := m.users[uid]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memStore) SaveProfile(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.users[user.UID]
	cp := *user
	if ok {
		cp.CreatedAt = existing.CreatedAt
		cp.Role = existing.Role
	}
	m.users[user.UID] = &cp
	return nil
}

func (m *memStore) CountUsers(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

func (m *memStore) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(query)
	out := make([]models.User, 0)
	for _, u := range m.users {
		if strings.Contains(strings.ToLower(u.FullName), q) || strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// addUser stores a completed profile.
func (m *memStore) addUser(uid, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[uid] = &models.User{
		UID: uid, Email: uid + "@ritchennai.edu.in", FullName: name,
		RegisterNumber: strings.ToUpper(uid) + "001", Batch: "23-27", ProfileCompleted: true,
	}
}

// memBlobs records uploads.
type memBlobs struct {
	mu      sync.Mutex
	names   []string
	failErr error
}

func (b *memBlobs) Upload(ctx context.Context, name, contentType string, size int64, r io.Reader) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failErr != nil {
		return "", b.failErr
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	b.names = append(b.names, name)
	return "https://blobs.test/" + name, nil
}
