package events

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/devparmar16/campus-ease/internal/httpx"
	"github.com/devparmar16/campus-ease/internal/uploads"
	"github.com/devparmar16/campus-ease/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Event struct {
	ID          int64  `json:"id"`
	Name        string `json:"ename"`
	Type        string `json:"etype"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Photo       string `json:"ephoto"`
	Description string `json:"description,omitempty"`
}

type createReq struct {
	Name        string `form:"ename" binding:"required"`
	Type        string `form:"etype" binding:"required,oneof=academic social"`
	Date        string `form:"date" binding:"required"`
	Time        string `form:"time" binding:"required"`
	Location    string `form:"location" binding:"required"`
	Description string `form:"description"`
}

type Service struct {
	Logger  *slog.Logger
	DB      *sql.DB
	Uploads *uploads.Store
}

func Register(rg *gin.RouterGroup, s *Service) {
	rg.GET("/events", s.list)
}

func RegisterAdmin(rg *gin.RouterGroup, s *Service) {
	rg.POST("/events", s.create)
}

func (s *Service) list(c *gin.Context) {
	q := `SELECT id, ename, etype, date, time, location, ephoto, description FROM event`
	var args []any
	if etype := c.Query("type"); etype != "" && etype != "all" {
		q += ` WHERE etype=?`
		args = append(args, etype)
	}
	q += ` ORDER BY date, time`

	rows, err := s.DB.Query(q, args...)
	if err != nil {
		s.Logger.Error("list events", "error", err)
		httpx.Err(c, http.StatusInternalServerError, "Failed to fetch events")
		return
	}
	defer rows.Close()

	list := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Type, &e.Date, &e.Time, &e.Location, &e.Photo, &e.Description); err != nil {
			continue
		}
		list = append(list, e)
	}
	httpx.OK(c, gin.H{"events": list})
}

// create stores an event with its photo. The photo upload happens first so
// a storage failure never leaves a row without its image.
func (s *Service) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBind(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			httpx.Err(c, http.StatusBadRequest, utils.ValidationErr(validationErrors))
			return
		}
		httpx.Err(c, http.StatusBadRequest, err.Error())
		return
	}

	file, header, err := c.Request.FormFile("ephoto")
	if err != nil {
		httpx.Err(c, http.StatusBadRequest, "event photo missing")
		return
	}
	defer file.Close()

	name := fmt.Sprintf("event_%d_%s", time.Now().UnixNano(), header.Filename)
	photoURL, err := s.Uploads.Save("event-photos", name, file)
	if err != nil {
		s.Logger.Error("event photo upload", "error", err)
		httpx.Err(c, http.StatusInternalServerError, "Image upload failed")
		return
	}

	res, err := s.DB.Exec(
		`INSERT INTO event (ename, etype, date, time, location, ephoto, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		req.Name, req.Type, req.Date, req.Time, req.Location, photoURL, req.Description)
	if err != nil {
		httpx.Err(c, http.StatusBadRequest, "Event creation failed")
		return
	}
	id, _ := res.LastInsertId()
	httpx.OK(c, gin.H{"event_id": id, "ephoto": photoURL})
}
