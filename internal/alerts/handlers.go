package alerts

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/devparmar16/campus-ease/internal/auth"
	"github.com/devparmar16/campus-ease/internal/chat"
	"github.com/devparmar16/campus-ease/internal/httpx"
	"github.com/devparmar16/campus-ease/internal/mailer"
	"github.com/devparmar16/campus-ease/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Alert struct {
	ID        int64  `json:"id"`
	IssuedBy  int64  `json:"issued_by"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Severity  string `json:"severity"`
	College   string `json:"college_id"`
	CreatedAt string `json:"created_at"`
}

type createReq struct {
	Title    string `json:"title" binding:"required"`
	Body     string `json:"body" binding:"required"`
	Severity string `json:"severity" binding:"required,oneof=info warning critical"`
}

type Service struct {
	Logger *slog.Logger
	DB     *sql.DB
	Hub    *chat.Hub
	Mailer *mailer.Mailer
}

func Register(rg *gin.RouterGroup, s *Service) {
	rg.GET("/alerts", s.list)
}

func RegisterAdmin(rg *gin.RouterGroup, s *Service) {
	rg.POST("/alerts", s.create)
}

func (s *Service) list(c *gin.Context) {
	college := auth.MustCollege(c)
	rows, err := s.DB.Query(
		`SELECT id, issued_by, title, body, severity, college_id, created_at
		 FROM emergency_alerts WHERE college_id=? ORDER BY created_at DESC`, college)
	if err != nil {
		s.Logger.Error("list alerts", "error", err)
		httpx.Err(c, http.StatusInternalServerError, "Failed to fetch alerts")
		return
	}
	defer rows.Close()

	list := []Alert{}
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.IssuedBy, &a.Title, &a.Body, &a.Severity, &a.College, &a.CreatedAt); err != nil {
			continue
		}
		list = append(list, a)
	}
	httpx.OK(c, gin.H{"alerts": list})
}

// create persists an alert, pushes it to connected clients, and mails the
// college's users. The persist is the only step that can fail the request;
// fan-out is best effort.
func (s *Service) create(c *gin.Context) {
	uid := auth.MustUserID(c)
	college := auth.MustCollege(c)

	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			httpx.Err(c, http.StatusBadRequest, utils.ValidationErr(validationErrors))
			return
		}
		httpx.Err(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.DB.Exec(
		`INSERT INTO emergency_alerts (issued_by, title, body, severity, college_id)
		 VALUES (?, ?, ?, ?, ?)`,
		uid, req.Title, req.Body, req.Severity, college)
	if err != nil {
		httpx.Err(c, http.StatusInternalServerError, "Failed to create alert")
		return
	}
	id, _ := res.LastInsertId()

	if payload, err := chat.EncodeAlert(chat.AlertFrame{
		ID:       id,
		Title:    req.Title,
		Body:     req.Body,
		Severity: req.Severity,
		IssuedAt: time.Now().UTC().Format(time.RFC3339),
	}); err == nil {
		s.Hub.BroadcastRaw(college, payload)
	}

	if s.Mailer.Enabled() {
		go s.mailCollege(college, req.Title, req.Body)
	}

	httpx.OK(c, gin.H{"alert_id": id})
}

func (s *Service) mailCollege(college, title, body string) {
	rows, err := s.DB.Query(`SELECT email, first_name FROM users WHERE college_id=?`, college)
	if err != nil {
		s.Logger.Error("alert mail query", "error", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var email, name string
		if err := rows.Scan(&email, &name); err != nil {
			continue
		}
		if err := s.Mailer.Send(email, name, "[CampusEase Alert] "+title, body); err != nil {
			s.Logger.Warn("alert mail send", "email", email, "error", err)
		}
	}
}
