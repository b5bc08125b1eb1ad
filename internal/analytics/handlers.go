// Package analytics serves the admin dashboard aggregates.
package analytics

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/devparmar16/campus-ease/internal/auth"
	"github.com/devparmar16/campus-ease/internal/httpx"
	"github.com/gin-gonic/gin"
)

type Service struct {
	Logger *slog.Logger
	DB     *sql.DB
}

func RegisterAdmin(rg *gin.RouterGroup, s *Service) {
	rg.GET("/analytics/reports", s.reports)
	rg.GET("/analytics/lostfound", s.lostFound)
	rg.GET("/analytics/messages", s.messages)
}

type bucket struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

func (s *Service) countBy(query string, args ...any) ([]bucket, error) {
	rows, err := s.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []bucket{}
	for rows.Next() {
		var b bucket
		if err := rows.Scan(&b.Label, &b.Count); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Service) reports(c *gin.Context) {
	byCategory, err := s.countBy(
		`SELECT problem_category, COUNT(*) FROM report GROUP BY problem_category`)
	if err != nil {
		s.Logger.Error("report analytics", "error", err)
		httpx.Err(c, http.StatusInternalServerError, "Failed to compute report analytics")
		return
	}
	byPriority, err := s.countBy(
		`SELECT priority_text, COUNT(*) FROM report GROUP BY priority_text`)
	if err != nil {
		httpx.Err(c, http.StatusInternalServerError, "Failed to compute report analytics")
		return
	}

	var total, resolved int64
	if err := s.DB.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(resolved), 0) FROM report`).Scan(&total, &resolved); err != nil {
		httpx.Err(c, http.StatusInternalServerError, "Failed to compute report analytics")
		return
	}

	httpx.OK(c, gin.H{
		"by_category": byCategory,
		"by_priority": byPriority,
		"total":       total,
		"resolved":    resolved,
		"pending":     total - resolved,
	})
}

func (s *Service) lostFound(c *gin.Context) {
	byStatus, err := s.countBy(
		`SELECT status, COUNT(*) FROM lost_found GROUP BY status`)
	if err != nil {
		s.Logger.Error("lostfound analytics", "error", err)
		httpx.Err(c, http.StatusInternalServerError, "Failed to compute lost and found analytics")
		return
	}
	byType, err := s.countBy(
		`SELECT type, COUNT(*) FROM lost_found GROUP BY type`)
	if err != nil {
		httpx.Err(c, http.StatusInternalServerError, "Failed to compute lost and found analytics")
		return
	}
	httpx.OK(c, gin.H{"by_status": byStatus, "by_type": byType})
}

// messages reports feed volume for the admin's own college plus the per
// college totals, which is what the dashboard charts.
func (s *Service) messages(c *gin.Context) {
	college := auth.MustCollege(c)

	byCollege, err := s.countBy(
		`SELECT college_id, COUNT(*) FROM community_messages GROUP BY college_id`)
	if err != nil {
		s.Logger.Error("message analytics", "error", err)
		httpx.Err(c, http.StatusInternalServerError, "Failed to compute message analytics")
		return
	}

	var own int64
	if err := s.DB.QueryRow(
		`SELECT COUNT(*) FROM community_messages WHERE college_id=?`, college).Scan(&own); err != nil {
		httpx.Err(c, http.StatusInternalServerError, "Failed to compute message analytics")
		return
	}

	httpx.OK(c, gin.H{"by_college": byCollege, "own_college": own})
}
