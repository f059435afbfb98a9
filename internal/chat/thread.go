package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"pogawedka/internal/api"
	"pogawedka/internal/models"
	"pogawedka/internal/pubsub"
)

const (
	destHistory        = "/user/queue/history"
	destMessages       = "/user/queue/messages"
	destRequestHistory = "/app/chat.history"
	destSend           = "/app/chat.send"
)

var errNoChat = errors.New("no chat id or other user id to resolve")

// session is the slice of pubsub.Session the thread needs. Tests swap
// in a scripted one.
type session interface {
	Subscribe(destination string, h pubsub.Handler)
	Send(destination string, v any) error
	Close()
}

// Config describes one mounted chat view. Exactly one of ChatID and
// OtherUserID is expected; ChatID wins when both parse.
type Config struct {
	BaseURL     string
	AccessToken string
	UserID      int64
	ChatID      string
	OtherUserID string

	API *api.Client
	Log zerolog.Logger
}

// Thread holds the ordered in-memory message list for one open chat and
// the live session feeding it. History delivery replaces the list
// wholesale; live messages append. A live message that lands before the
// history response is overwritten by the replace; the client does not
// reconcile that ordering, matching the backend's delivery convention.
type Thread struct {
	cfg  Config
	dial func(ctx context.Context, baseURL, token string) (session, error)

	mu       sync.Mutex
	chatID   int64
	resolved bool
	sess     session
	messages []models.Message
	onUpdate func()
}

// OnUpdate registers the callback fired after every change to the
// message list. It runs on the session's read goroutine; callers doing
// UI work wrap it themselves.
func (t *Thread) OnUpdate(fn func()) {
	t.mu.Lock()
	t.onUpdate = fn
	t.mu.Unlock()
}

func NewThread(cfg Config) *Thread {
	return &Thread{
		cfg: cfg,
		dial: func(ctx context.Context, baseURL, token string) (session, error) {
			s, err := pubsub.Dial(ctx, baseURL, token)
			if err != nil {
				return nil, err
			}
			s.SetLogger(cfg.Log)
			return s, nil
		},
	}
}

// Open resolves the chat id and starts the live session. Failures leave
// the thread in its empty state; the caller only logs them.
func (t *Thread) Open(ctx context.Context) error {
	if id, err := strconv.ParseInt(t.cfg.ChatID, 10, 64); err == nil {
		return t.openSession(ctx, id)
	}

	other, err := strconv.ParseInt(t.cfg.OtherUserID, 10, 64)
	if err != nil {
		return errNoChat
	}

	id, err := t.cfg.API.GetOrCreateChat(ctx, t.cfg.AccessToken, t.cfg.UserID, other)
	if err != nil {
		return err
	}
	return t.openSession(ctx, id)
}

func (t *Thread) openSession(ctx context.Context, chatID int64) error {
	sess, err := t.dial(ctx, t.cfg.BaseURL, t.cfg.AccessToken)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.chatID = chatID
	t.resolved = true
	t.sess = sess
	t.mu.Unlock()

	// History first: the handler must be in place before the request
	// goes out, and the live subscription only after that.
	sess.Subscribe(destHistory, t.handleHistory)
	if err := sess.Send(destRequestHistory, map[string]int64{"id": chatID}); err != nil {
		t.cfg.Log.Error().Err(err).Int64("chat_id", chatID).Msg("history request failed")
	}
	sess.Subscribe(destMessages, t.handleIncoming)

	return nil
}

func (t *Thread) handleHistory(body json.RawMessage) {
	var history []models.Message
	if err := json.Unmarshal(body, &history); err != nil {
		t.cfg.Log.Warn().Err(err).Msg("bad history payload")
		return
	}

	t.mu.Lock()
	t.messages = history
	t.mu.Unlock()

	t.notify()
}

func (t *Thread) handleIncoming(body json.RawMessage) {
	var msg models.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		t.cfg.Log.Warn().Err(err).Msg("bad message payload")
		return
	}

	t.mu.Lock()
	t.messages = append(t.messages, msg)
	t.mu.Unlock()

	t.notify()
}

func (t *Thread) notify() {
	t.mu.Lock()
	fn := t.onUpdate
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Send publishes the text to the chat. It reports whether a publish
// actually happened: whitespace-only input, a missing session, or an
// unresolved chat id are all no-ops, and the caller keeps the input
// box untouched for those.
func (t *Thread) Send(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	t.mu.Lock()
	sess, resolved, chatID := t.sess, t.resolved, t.chatID
	t.mu.Unlock()

	if sess == nil || !resolved {
		return false
	}

	payload := struct {
		ChatID   int64  `json:"chatId"`
		SenderID int64  `json:"senderId"`
		Content  string `json:"content"`
	}{ChatID: chatID, SenderID: t.cfg.UserID, Content: text}

	if err := sess.Send(destSend, payload); err != nil {
		t.cfg.Log.Error().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
	return true
}

// Messages returns a copy of the current ordered list.
func (t *Thread) Messages() []models.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// ChatID returns the resolved chat id, 0 while unresolved.
func (t *Thread) ChatID() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.chatID
}

// Close tears down the live session, if any. Safe to call twice.
func (t *Thread) Close() {
	t.mu.Lock()
	sess := t.sess
	t.sess = nil
	t.mu.Unlock()

	if sess != nil {
		sess.Close()
	}
}
