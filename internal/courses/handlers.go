package courses

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/devparmar16/campus-ease/internal/httpx"
	"github.com/devparmar16/campus-ease/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Course struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Department  string `json:"department,omitempty"`
	Credits     int    `json:"credits"`
	Instructor  string `json:"instructor,omitempty"`
	Description string `json:"description,omitempty"`
}

type createReq struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Department  string `json:"department"`
	Credits     int    `json:"credits"`
	Instructor  string `json:"instructor"`
	Description string `json:"description"`
}

type Service struct {
	Logger *slog.Logger
	DB     *sql.DB
}

func Register(rg *gin.RouterGroup, s *Service) {
	rg.GET("/courses", s.list)
}

func RegisterAdmin(rg *gin.RouterGroup, s *Service) {
	rg.POST("/courses", s.create)
}

func (s *Service) list(c *gin.Context) {
	rows, err := s.DB.Query(
		`SELECT id, code, name, department, credits, instructor, description FROM course ORDER BY code`)
	if err != nil {
		s.Logger.Error("list courses", "error", err)
		httpx.Err(c, http.StatusInternalServerError, "Failed to fetch courses")
		return
	}
	defer rows.Close()

	list := []Course{}
	for rows.Next() {
		var co Course
		if err := rows.Scan(&co.ID, &co.Code, &co.Name, &co.Department, &co.Credits, &co.Instructor, &co.Description); err != nil {
			continue
		}
		list = append(list, co)
	}
	httpx.OK(c, gin.H{"courses": list})
}

func (s *Service) create(c *gin.Context) {
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
		`INSERT INTO course (code, name, department, credits, instructor, description)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		req.Code, req.Name, req.Department, req.Credits, req.Instructor, req.Description)
	if err != nil {
		httpx.Err(c, http.StatusConflict, "Course creation failed")
		return
	}
	id, _ := res.LastInsertId()
	httpx.OK(c, gin.H{"course_id": id})
}
