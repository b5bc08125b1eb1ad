package lostfound

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/devparmar16/campus-ease/internal/auth"
	"github.com/devparmar16/campus-ease/internal/httpx"
	"github.com/devparmar16/campus-ease/internal/uploads"
	"github.com/devparmar16/campus-ease/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	StatusOpen     = "open"
	StatusClaimed  = "claimed"
	StatusResolved = "resolved"
)

type Item struct {
	ID           int64  `json:"id"`
	ReporterID   int64  `json:"reporter_id"`
	Type         string `json:"type"`
	Title        string `json:"title"`
	Category     string `json:"category"`
	Location     string `json:"location"`
	Date         string `json:"date"`
	Description  string `json:"description,omitempty"`
	ContactName  string `json:"contactName"`
	ContactEmail string `json:"contactEmail"`
	Image        string `json:"image,omitempty"`
	Status       string `json:"status"`
}

type createReq struct {
	Type         string `form:"type" binding:"required,oneof=lost found"`
	Title        string `form:"title" binding:"required"`
	Category     string `form:"category" binding:"required"`
	Location     string `form:"location" binding:"required"`
	Date         string `form:"date" binding:"required"`
	Description  string `form:"description"`
	ContactName  string `form:"contactName" binding:"required"`
	ContactEmail string `form:"contactEmail" binding:"required,email"`
}

type statusReq struct {
	Status string `json:"status" binding:"required,oneof=claimed resolved"`
}

type Service struct {
	Logger  *slog.Logger
	DB      *sql.DB
	Uploads *uploads.Store
}

func Register(rg *gin.RouterGroup, s *Service) {
	rg.GET("/lostfound", s.list)
	rg.POST("/lostfound", s.create)
	rg.PATCH("/lostfound/:id/status", s.updateStatus)
}

func (s *Service) list(c *gin.Context) {
	q := `SELECT id, reporter_id, type, title, category, location, date, description,
	             contact_name, contact_email, image, status
	      FROM lost_found WHERE 1=1`
	var args []any
	if t := c.Query("type"); t == "lost" || t == "found" {
		q += ` AND type=?`
		args = append(args, t)
	}
	if st := c.Query("status"); st != "" && st != "all" {
		q += ` AND status=?`
		args = append(args, st)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := s.DB.Query(q, args...)
	if err != nil {
		s.Logger.Error("list lost-found", "error", err)
		httpx.Err(c, http.StatusInternalServerError, "Failed to fetch items")
		return
	}
	defer rows.Close()

	list := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ReporterID, &it.Type, &it.Title, &it.Category, &it.Location,
			&it.Date, &it.Description, &it.ContactName, &it.ContactEmail, &it.Image, &it.Status); err != nil {
			continue
		}
		list = append(list, it)
	}
	httpx.OK(c, gin.H{"items": list})
}

func (s *Service) create(c *gin.Context) {
	uid := auth.MustUserID(c)

	var req createReq
	if err := c.ShouldBind(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			httpx.Err(c, http.StatusBadRequest, utils.ValidationErr(validationErrors))
			return
		}
		httpx.Err(c, http.StatusBadRequest, err.Error())
		return
	}

	imageURL := ""
	if file, header, err := c.Request.FormFile("image"); err == nil {
		defer file.Close()
		name := fmt.Sprintf("lostfound_%d_%d_%s", uid, time.Now().UnixNano(), header.Filename)
		imageURL, err = s.Uploads.Save("lostfound-images", name, file)
		if err != nil {
			s.Logger.Error("lost-found image upload", "error", err)
			httpx.Err(c, http.StatusInternalServerError, "Image upload failed")
			return
		}
	}

	res, err := s.DB.Exec(
		`INSERT INTO lost_found (reporter_id, type, title, category, location, date, description,
		                         contact_name, contact_email, image, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uid, req.Type, req.Title, req.Category, req.Location, req.Date, req.Description,
		req.ContactName, req.ContactEmail, imageURL, StatusOpen)
	if err != nil {
		httpx.Err(c, http.StatusBadRequest, "Failed to report item")
		return
	}
	id, _ := res.LastInsertId()
	httpx.OK(c, gin.H{"item_id": id})
}

// updateStatus advances an item along open -> claimed -> resolved. The
// predicate encodes the allowed predecessor so an out-of-order transition
// matches zero rows.
func (s *Service) updateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Err(c, http.StatusBadRequest, "invalid item id")
		return
	}

	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			httpx.Err(c, http.StatusBadRequest, utils.ValidationErr(validationErrors))
			return
		}
		httpx.Err(c, http.StatusBadRequest, err.Error())
		return
	}

	prev := StatusOpen
	if req.Status == StatusResolved {
		prev = StatusClaimed
	}
	res, err := s.DB.Exec(
		`UPDATE lost_found SET status=? WHERE id=? AND status=?`, req.Status, id, prev)
	if err != nil {
		httpx.Err(c, http.StatusInternalServerError, "Failed to update item")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		httpx.Err(c, http.StatusConflict, fmt.Sprintf("item is not %s", prev))
		return
	}
	httpx.OK(c, gin.H{"ok": true})
}
