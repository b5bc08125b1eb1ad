package chat

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/devparmar16/campus-ease/internal/auth"
	"github.com/devparmar16/campus-ease/internal/feed"
	"github.com/devparmar16/campus-ease/internal/httpx"
	"github.com/devparmar16/campus-ease/internal/session"
	"github.com/devparmar16/campus-ease/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	storeTimeout    = 5 * time.Second
)

// Store persists community messages. The ownership predicate lives in the
// store: edits and deletes match both id and sender, so the caller never
// has to trust its own authorship check.
type Store interface {
	ListMessages(ctx context.Context, college string, beforeID int64, limit int) ([]feed.Message, error)
	InsertMessage(ctx context.Context, m feed.Message) (feed.Message, error)
	UpdateMessage(ctx context.Context, id, senderID int64, content string) (feed.Message, bool, error)
	DeleteMessage(ctx context.Context, id, senderID int64) (bool, error)
	GetProfile(ctx context.Context, userID int64) (session.Profile, error)
}

// Cache holds the most recent page per college so the common "open the chat"
// load skips the store.
type Cache interface {
	RecentMessages(ctx context.Context, college string) ([]feed.Message, error)
	AddMessage(ctx context.Context, college string, m feed.Message) error
	Invalidate(ctx context.Context, college string) error
}

// Broadcaster is the hub surface the handlers need.
type Broadcaster interface {
	BroadcastEvent(college string, ev feed.Event)
}

type Service struct {
	Logger   *slog.Logger
	Store    Store
	Cache    Cache // nil disables caching
	Hub      Broadcaster
	Sessions *session.Store
}

type sendReq struct {
	Content string `json:"content" binding:"required"`
}

type editReq struct {
	Content string `json:"content" binding:"required"`
}

func Register(rg *gin.RouterGroup, s *Service) {
	rg.GET("/community/messages", s.list)
	rg.POST("/community/messages", s.send)
	rg.PUT("/community/messages/:id", s.edit)
	rg.DELETE("/community/messages/:id", s.remove)
}

// list returns an ascending window of the college feed. before_id pages
// backward; the newest page may come from the cache.
func (s *Service) list(c *gin.Context) {
	college := auth.MustCollege(c)

	beforeID, _ := strconv.ParseInt(c.Query("before_id"), 10, 64)
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	if beforeID == 0 && s.Cache != nil {
		if cached, err := s.Cache.RecentMessages(ctx, college); err == nil && len(cached) > 0 {
			if page, ok := s.completePage(ctx, college, cached, limit); ok {
				s.Logger.Debug("served feed from cache", "college", college, "cached", len(cached), "count", len(page))
				httpx.OK(c, gin.H{"messages": page})
				return
			}
		}
	}

	msgs, err := s.Store.ListMessages(ctx, college, beforeID, limit)
	if err != nil {
		s.Logger.Error("list messages", "college", college, "error", err)
		httpx.StoreErr(c, err, "Failed to fetch messages")
		return
	}
	if msgs == nil {
		msgs = []feed.Message{}
	}
	httpx.OK(c, gin.H{"messages": msgs})
}

// completePage turns a cached tail into a full page. The cache holds only
// the newest entries, and after an invalidation it may hold as little as one
// message, so any shortfall against the limit is fetched from the store and
// prepended. Returns false when the remainder fetch fails; the caller then
// serves the page from the store alone.
func (s *Service) completePage(ctx context.Context, college string, cached []feed.Message, limit int) ([]feed.Message, bool) {
	if len(cached) >= limit {
		return cached[len(cached)-limit:], true
	}
	older, err := s.Store.ListMessages(ctx, college, cached[0].ID, limit-len(cached))
	if err != nil {
		s.Logger.Warn("complete cached page", "college", college, "error", err)
		return nil, false
	}
	return append(older, cached...), true
}

// send inserts a new message. The response carries only the assigned id;
// the message reaches every feed, the sender's included, through the insert
// event alone.
func (s *Service) send(c *gin.Context) {
	uid := auth.MustUserID(c)

	var req sendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			httpx.Err(c, http.StatusBadRequest, utils.ValidationErr(validationErrors))
			return
		}
		httpx.Err(c, http.StatusBadRequest, err.Error())
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		// Rejected before any store call: empty bodies never reach the feed.
		httpx.Err(c, http.StatusBadRequest, "message content is empty")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	profile, err := s.profile(ctx, uid)
	if err != nil {
		httpx.Err(c, http.StatusUnauthorized, "unknown sender")
		return
	}

	msg, err := s.Store.InsertMessage(ctx, feed.Message{
		SenderID:   uid,
		SenderName: profile.DisplayName(),
		SenderRole: profile.Role,
		Content:    content,
		College:    profile.College,
	})
	if err != nil {
		s.Logger.Error("insert message", "user_id", uid, "error", err)
		httpx.StoreErr(c, err, "Failed to send message")
		return
	}

	s.Hub.BroadcastEvent(msg.College, feed.Inserted{Message: msg})
	if s.Cache != nil {
		if err := s.Cache.AddMessage(ctx, msg.College, msg); err != nil {
			s.Logger.Warn("cache message", "error", err)
		}
	}

	httpx.OK(c, gin.H{"message_id": msg.ID})
}

func (s *Service) edit(c *gin.Context) {
	uid := auth.MustUserID(c)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Err(c, http.StatusBadRequest, "invalid message id")
		return
	}

	var req editReq
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			httpx.Err(c, http.StatusBadRequest, utils.ValidationErr(validationErrors))
			return
		}
		httpx.Err(c, http.StatusBadRequest, err.Error())
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		httpx.Err(c, http.StatusBadRequest, "message content is empty")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	msg, ok, err := s.Store.UpdateMessage(ctx, id, uid, content)
	if err != nil {
		s.Logger.Error("edit message", "message_id", id, "error", err)
		httpx.StoreErr(c, err, "Failed to edit message")
		return
	}
	if !ok {
		httpx.Err(c, http.StatusForbidden, "not the author")
		return
	}

	s.Hub.BroadcastEvent(msg.College, feed.Updated{Message: msg})
	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx, msg.College); err != nil {
			s.Logger.Warn("invalidate cache", "error", err)
		}
	}
	httpx.OK(c, gin.H{"ok": true})
}

func (s *Service) remove(c *gin.Context) {
	uid := auth.MustUserID(c)
	college := auth.MustCollege(c)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Err(c, http.StatusBadRequest, "invalid message id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	ok, err := s.Store.DeleteMessage(ctx, id, uid)
	if err != nil {
		s.Logger.Error("delete message", "message_id", id, "error", err)
		httpx.StoreErr(c, err, "Failed to delete message")
		return
	}
	if !ok {
		httpx.Err(c, http.StatusForbidden, "not the author")
		return
	}

	s.Hub.BroadcastEvent(college, feed.Deleted{ID: id})
	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx, college); err != nil {
			s.Logger.Warn("invalidate cache", "error", err)
		}
	}
	httpx.OK(c, gin.H{"ok": true})
}

// profile prefers the session snapshot and falls back to the store when the
// server restarted under a still-valid token.
func (s *Service) profile(ctx context.Context, uid int64) (session.Profile, error) {
	if p, ok := s.Sessions.Get(uid); ok {
		return p, nil
	}
	p, err := s.Store.GetProfile(ctx, uid)
	if err != nil {
		return session.Profile{}, err
	}
	s.Sessions.Put(p)
	return p, nil
}
