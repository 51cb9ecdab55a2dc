package live

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/campus-p2p/backend/internal/feed"
	"github.com/anonto42/campus-p2p/backend/internal/models"
	"github.com/anonto42/campus-p2p/backend/internal/observability"
	"github.com/anonto42/campus-p2p/backend/internal/repositories"
)

// Subscription keys.
const (
	keyPosts         = "posts"
	keyMyPosts       = "myposts"
	keyReports       = "reports"
	keyConversations = "conversations"
	keyMessages      = "messages"
)

// ErrClosed is returned for commands on a closed session.
var ErrClosed = errors.New("live session closed")

// Deps are the stores a session reads from.
type Deps struct {
	Store      repositories.DocumentStore
	Users      repositories.UserRepository
	FeedWindow int
	Now        func() time.Time
}

// Session is one client's live view. It owns its subscriptions: holding a
// new one under a key stops the previous holder, and Close stops them all.
type Session struct {
	actor models.Actor
	deps  Deps
	sink  Sink

	mu     sync.Mutex
	closed bool
	view   ViewState
	gen    uint64
	active map[string]uint64
	subs   map[string]repositories.Subscription

	portals   models.Portals
	userCount int64
	posts     []models.Post
	mine      []models.Post
	reports   []models.Report
	convs     []models.Conversation
	messages  []models.Message
}

// NewSession creates a session for actor. Call Start to begin streaming.
func NewSession(actor models.Actor, deps Deps, sink Sink) *Session {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Session{
		actor:   actor,
		deps:    deps,
		sink:    sink,
		view:    DefaultView(),
		active:  make(map[string]uint64),
		subs:    make(map[string]repositories.Subscription),
		portals: models.DefaultPortals(),
	}
}

// View returns the current view state.
func (s *Session) View() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Start loads portal switches and opens the feed and conversation
// subscriptions. Admins also get reports; everyone else gets a separate
// stream of their own posts, since the feed window may not reach them.
func (s *Session) Start(ctx context.Context) error {
	portals, err := s.deps.Store.GetPortals(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.portals = portals
	s.mu.Unlock()

	limit := s.deps.FeedWindow
	if s.actor.IsAdmin {
		limit = 0
		if s.deps.Users != nil {
			n, err := s.deps.Users.CountUsers(ctx)
			if err != nil {
				return err
			}
			s.mu.Lock()
			s.userCount = n
			s.mu.Unlock()
		}
	}

	if err := s.hold(ctx, keyPosts, func(gen uint64) (repositories.Subscription, error) {
		return s.deps.Store.SubscribePosts(ctx, limit, func(posts []models.Post) {
			s.apply(keyPosts, gen, func() { s.posts = posts }, s.feedFrame, s.dashboardFrame)
		}, s.onError(keyPosts, gen))
	}); err != nil {
		return err
	}

	if err := s.hold(ctx, keyConversations, func(gen uint64) (repositories.Subscription, error) {
		return s.deps.Store.SubscribeConversations(ctx, s.actor.UID, func(convs []models.Conversation) {
			s.apply(keyConversations, gen, func() { s.convs = convs }, s.conversationsFrame)
		}, s.onError(keyConversations, gen))
	}); err != nil {
		return err
	}

	if !s.actor.IsAdmin {
		return s.hold(ctx, keyMyPosts, func(gen uint64) (repositories.Subscription, error) {
			return s.deps.Store.SubscribeAuthorPosts(ctx, s.actor.UID, func(posts []models.Post) {
				mine := append([]models.Post(nil), posts...)
				feed.NewestFirst(mine)
				s.apply(keyMyPosts, gen, func() { s.mine = mine }, s.feedFrame)
			}, s.onError(keyMyPosts, gen))
		})
	}
	return s.hold(ctx, keyReports, func(gen uint64) (repositories.Subscription, error) {
		return s.deps.Store.SubscribeReports(ctx, func(reports []models.Report) {
			s.apply(keyReports, gen, func() { s.reports = reports }, s.dashboardFrame)
		}, s.onError(keyReports, gen))
	})
}

// Handle applies a client command.
func (s *Session) Handle(ctx context.Context, cmd Command) error {
	switch cmd.Type {
	case CommandNavigate:
		return s.navigate(ctx, feed.Page(strings.TrimSpace(cmd.Page)))
	case CommandFilter:
		return s.update(func(v *ViewState) { v.FilterTab = strings.TrimSpace(cmd.Filter) })
	case CommandSearch:
		return s.update(func(v *ViewState) { v.Search = cmd.Search })
	case CommandOpenChat:
		return s.openChat(ctx, cmd.ConversationID)
	case CommandCloseChat:
		return s.closeChat()
	default:
		return models.NewValidationError("Unknown command " + cmd.Type)
	}
}

func (s *Session) navigate(ctx context.Context, page feed.Page) error {
	if page == "" {
		page = feed.PageHome
	}
	portals, err := s.deps.Store.GetPortals(ctx)
	if err != nil {
		return err
	}
	return s.update(func(v *ViewState) {
		s.portals = portals
		v.Page = page
		v.FilterTab = feed.FilterAll
		v.Search = ""
	})
}

// update changes the view and pushes the recomputed feed.
func (s *Session) update(change func(v *ViewState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	change(&s.view)
	return s.sink.Send(s.feedFrame())
}

func (s *Session) openChat(ctx context.Context, conversationID string) error {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return models.NewValidationError("Conversation ID is required")
	}
	conv, err := s.deps.Store.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(s.actor.UID) {
		return models.NewPermissionDeniedError("You are not part of this conversation")
	}

	s.mu.Lock()
	s.view.ChatID = conversationID
	s.messages = nil
	s.mu.Unlock()

	return s.hold(ctx, keyMessages, func(gen uint64) (repositories.Subscription, error) {
		return s.deps.Store.SubscribeMessages(ctx, conversationID, func(msgs []models.Message) {
			s.apply(keyMessages, gen, func() { s.messages = msgs }, s.messagesFrame)
		}, s.onError(keyMessages, gen))
	})
}

func (s *Session) closeChat() error {
	s.release(keyMessages)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.view.ChatID = ""
	s.messages = nil
	return nil
}

// hold opens a subscription under key, stopping whatever held it before.
// open is called without the session lock so the store may deliver the
// first snapshot synchronously.
func (s *Session) hold(ctx context.Context, key string, open func(gen uint64) (repositories.Subscription, error)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	prev := s.subs[key]
	delete(s.subs, key)
	s.gen++
	gen := s.gen
	s.active[key] = gen
	s.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}

	sub, err := open(gen)
	if err != nil {
		s.mu.Lock()
		if s.active[key] == gen {
			delete(s.active, key)
		}
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	if s.closed || s.active[key] != gen {
		s.mu.Unlock()
		sub.Stop()
		return nil
	}
	s.subs[key] = sub
	s.mu.Unlock()
	return nil
}

// release stops the subscription under key. Late callbacks from it are ignored.
func (s *Session) release(key string) {
	s.mu.Lock()
	sub := s.subs[key]
	delete(s.subs, key)
	delete(s.active, key)
	s.mu.Unlock()
	if sub != nil {
		sub.Stop()
	}
}

// Close stops every subscription. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	subs := s.subs
	s.subs = make(map[string]repositories.Subscription)
	s.active = make(map[string]uint64)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Stop()
	}
}

// apply stores a snapshot from the subscription (key, gen) and pushes the
// frames that depend on it. Snapshots from released subscriptions are dropped.
func (s *Session) apply(key string, gen uint64, store func(), frames ...func() Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.active[key] != gen {
		return
	}
	store()
	for _, build := range frames {
		frame := build()
		if frame.Type == "" {
			continue
		}
		if err := s.sink.Send(frame); err != nil {
			observability.GlobalLogger.Warn("live frame not delivered",
				"uid", s.actor.UID, "frame", frame.Type, "error", err.Error())
			return
		}
	}
}

func (s *Session) onError(key string, gen uint64) repositories.ErrorFunc {
	return func(err error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.active[key] != gen {
			return
		}
		observability.GlobalLogger.Error("live subscription failed",
			"uid", s.actor.UID, "stream", key, "error", err.Error())
		_ = s.sink.Send(errorFrame(err))
	}
}

// Frame builders run with s.mu held.

func (s *Session) feedFrame() Frame {
	posts := feed.WithinPortals(feed.FilterForPage(s.posts, s.view.Page, s.view.FilterTab, s.view.Search), s.portals)
	// Admins stream the whole collection, so their own posts are already there.
	mine := s.mine
	if s.actor.IsAdmin {
		mine = s.posts
	}
	return Frame{Type: FrameFeed, Data: FeedData{
		View:    s.view,
		Portals: s.portals,
		Posts:   posts,
		MyPosts: feed.MyPosts(mine, s.actor.UID),
	}}
}

func (s *Session) conversationsFrame() Frame {
	convs := append([]models.Conversation(nil), s.convs...)
	feed.SortByActivity(convs)
	return Frame{Type: FrameConversations, Data: convs}
}

func (s *Session) messagesFrame() Frame {
	return Frame{Type: FrameMessages, Data: MessagesData{ConversationID: s.view.ChatID, Messages: s.messages}}
}

func (s *Session) dashboardFrame() Frame {
	if !s.actor.IsAdmin {
		return Frame{}
	}
	return Frame{Type: FrameDashboard, Data: feed.BuildDashboard(s.posts, s.reports, s.userCount, s.deps.Now())}
}

// SendError pushes an error frame for a failed command.
func (s *Session) SendError(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.sink.Send(errorFrame(err))
}
