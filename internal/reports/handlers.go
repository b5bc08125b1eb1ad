package reports

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/devparmar16/campus-ease/internal/auth"
	"github.com/devparmar16/campus-ease/internal/httpx"
	"github.com/devparmar16/campus-ease/internal/ml"
	"github.com/devparmar16/campus-ease/internal/uploads"
	"github.com/devparmar16/campus-ease/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const storeTimeout = 5 * time.Second

// Report mirrors the incident-report row; field names follow the intake
// form's categorical features, which the scoring service also expects.
type Report struct {
	ID                int64  `json:"id"`
	UserID            int64  `json:"user_id"`
	ProblemCategory   string `json:"Problem_Category"`
	ReporterType      string `json:"Reporter_Type"`
	Location          string `json:"Location"`
	ClassNo           *int   `json:"class_No,omitempty"`
	ImpactScope       string `json:"Impact_Scope"`
	OccurrencePattern string `json:"Occurrence_Pattern"`
	Description       string `json:"description"`
	Images            string `json:"images,omitempty"`
	PriorityLevel     int    `json:"priority_level"`
	PriorityText      string `json:"priority_text"`
	Resolved          bool   `json:"resolved"`
	ResolvedAt        string `json:"resolved_at,omitempty"`
	CreatedAt         string `json:"created_at"`
}

type submitReq struct {
	ProblemCategory   string `form:"Problem_Category" json:"Problem_Category" binding:"required"`
	ReporterType      string `form:"Reporter_Type" json:"Reporter_Type" binding:"required,oneof=Student Faculty Admin Visitor"`
	Location          string `form:"Location" json:"Location" binding:"required"`
	ClassNo           *int   `form:"class_No" json:"class_No"`
	ImpactScope       string `form:"Impact_Scope" json:"Impact_Scope" binding:"required"`
	OccurrencePattern string `form:"Occurrence_Pattern" json:"Occurrence_Pattern" binding:"required"`
	Description       string `form:"description" json:"description" binding:"required"`
}

type Service struct {
	Logger  *slog.Logger
	DB      *sql.DB
	ML      *ml.Client
	Uploads *uploads.Store
}

func Register(rg *gin.RouterGroup, s *Service) {
	rg.POST("/reports", s.submit)
	rg.GET("/reports", s.list)
	rg.GET("/reports/mine", s.listMine)
}

func RegisterAdmin(rg *gin.RouterGroup, s *Service) {
	rg.PATCH("/reports/:id/resolve", s.resolve)
	rg.GET("/ml/health", s.mlHealth)
	rg.POST("/ml/train", s.mlTrain)
	rg.POST("/ml/update_priorities", s.mlUpdatePriorities)
}

// submit stores a new incident report. The optional image is uploaded
// first — an upload failure aborts the whole submission before any row is
// written. Priority comes from the scoring service, or its Medium fallback.
func (s *Service) submit(c *gin.Context) {
	uid := auth.MustUserID(c)

	var req submitReq
	if err := c.ShouldBind(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			httpx.Err(c, http.StatusBadRequest, utils.ValidationErr(validationErrors))
			return
		}
		httpx.Err(c, http.StatusBadRequest, err.Error())
		return
	}

	imageURL := ""
	if file, header, err := c.Request.FormFile("attachment"); err == nil {
		defer file.Close()
		name := fmt.Sprintf("report_%d_%d_%s", uid, time.Now().UnixNano(), header.Filename)
		imageURL, err = s.Uploads.Save("report-images", name, file)
		if err != nil {
			s.Logger.Error("report image upload", "user_id", uid, "error", err)
			httpx.Err(c, http.StatusInternalServerError, "Image upload failed")
			return
		}
	}

	pred := s.ML.Predict(c.Request.Context(), ml.ReportFeatures{
		ProblemCategory:   req.ProblemCategory,
		ReporterType:      req.ReporterType,
		Location:          req.Location,
		ClassNo:           req.ClassNo,
		ImpactScope:       req.ImpactScope,
		OccurrencePattern: req.OccurrencePattern,
	})

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO report (user_id, problem_category, reporter_type, location, class_no,
		                     impact_scope, occurrence_pattern, description, images,
		                     priority_level, priority_text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uid, req.ProblemCategory, req.ReporterType, req.Location, req.ClassNo,
		req.ImpactScope, req.OccurrencePattern, req.Description, imageURL,
		pred.PriorityLevel, pred.PriorityText)
	if err != nil {
		s.Logger.Error("insert report", "user_id", uid, "error", err)
		httpx.StoreErr(c, err, "Failed to submit report")
		return
	}
	id, _ := res.LastInsertId()

	httpx.OK(c, gin.H{
		"report_id":      id,
		"priority_level": pred.PriorityLevel,
		"priority_text":  pred.PriorityText,
	})
}

func (s *Service) list(c *gin.Context) {
	q := `SELECT id, user_id, problem_category, reporter_type, location, class_no,
	             impact_scope, occurrence_pattern, description, images,
	             priority_level, priority_text, resolved, resolved_at, created_at
	      FROM report WHERE 1=1`
	var args []any
	if cat := c.Query("category"); cat != "" && cat != "all" {
		q += ` AND problem_category=?`
		args = append(args, cat)
	}
	if prio := c.Query("priority"); prio != "" && prio != "all" {
		q += ` AND priority_text=?`
		args = append(args, prio)
	}
	if resolved := c.Query("resolved"); resolved != "" {
		q += ` AND resolved=?`
		args = append(args, resolved == "true")
	}
	q += ` ORDER BY priority_level DESC, created_at DESC`

	s.respondList(c, q, args...)
}

func (s *Service) listMine(c *gin.Context) {
	s.respondList(c,
		`SELECT id, user_id, problem_category, reporter_type, location, class_no,
		        impact_scope, occurrence_pattern, description, images,
		        priority_level, priority_text, resolved, resolved_at, created_at
		 FROM report WHERE user_id=? ORDER BY created_at DESC`,
		auth.MustUserID(c))
}

func (s *Service) respondList(c *gin.Context, q string, args ...any) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		s.Logger.Error("list reports", "error", err)
		httpx.StoreErr(c, err, "Failed to fetch reports")
		return
	}
	defer rows.Close()

	list := []Report{}
	for rows.Next() {
		var (
			r          Report
			classNo    sql.NullInt64
			resolvedAt sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.ProblemCategory, &r.ReporterType, &r.Location,
			&classNo, &r.ImpactScope, &r.OccurrencePattern, &r.Description, &r.Images,
			&r.PriorityLevel, &r.PriorityText, &r.Resolved, &resolvedAt, &r.CreatedAt); err != nil {
			s.Logger.Error("scan report", "error", err)
			continue
		}
		if classNo.Valid {
			n := int(classNo.Int64)
			r.ClassNo = &n
		}
		if resolvedAt.Valid {
			r.ResolvedAt = resolvedAt.String
		}
		list = append(list, r)
	}
	httpx.OK(c, gin.H{"reports": list})
}

func (s *Service) resolve(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Err(c, http.StatusBadRequest, "invalid report id")
		return
	}

	res, err := s.DB.Exec(
		`UPDATE report SET resolved=1, resolved_at=CURRENT_TIMESTAMP WHERE id=? AND resolved=0`, id)
	if err != nil {
		httpx.Err(c, http.StatusInternalServerError, "Failed to resolve report")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		httpx.Err(c, http.StatusNotFound, "report not found or already resolved")
		return
	}
	httpx.OK(c, gin.H{"ok": true})
}

func (s *Service) mlHealth(c *gin.Context) {
	httpx.OK(c, gin.H{"healthy": s.ML.Healthy(c.Request.Context())})
}

func (s *Service) mlTrain(c *gin.Context) {
	synthetic := c.Query("synthetic") == "true"
	if err := s.ML.Train(c.Request.Context(), synthetic); err != nil {
		s.Logger.Error("ml train", "error", err)
		httpx.Err(c, http.StatusBadGateway, "Model training failed")
		return
	}
	httpx.OK(c, gin.H{"message": "Model trained successfully"})
}

func (s *Service) mlUpdatePriorities(c *gin.Context) {
	count, err := s.ML.UpdatePriorities(c.Request.Context())
	if err != nil {
		s.Logger.Error("ml update priorities", "error", err)
		httpx.Err(c, http.StatusBadGateway, "Priority update failed")
		return
	}
	httpx.OK(c, gin.H{"message": fmt.Sprintf("Updated %d reports", count)})
}
