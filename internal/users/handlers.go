package users

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/devparmar16/campus-ease/internal/auth"
	"github.com/devparmar16/campus-ease/internal/config"
	"github.com/devparmar16/campus-ease/internal/httpx"
	"github.com/devparmar16/campus-ease/internal/identity"
	"github.com/devparmar16/campus-ease/internal/session"
	"github.com/devparmar16/campus-ease/internal/uploads"
	"github.com/devparmar16/campus-ease/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Service struct {
	Logger    *slog.Logger
	DB        *sql.DB
	Sessions  *session.Store
	Uploads   *uploads.Store
	JWTSecret string
	JWTTTLMin int
}

type signupReq struct {
	FirstName       string `json:"first_name" binding:"required"`
	LastName        string `json:"last_name" binding:"required"`
	CampusID        string `json:"campus_id" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	College         string `json:"college_id" binding:"required"`
}

type loginReq struct {
	CampusID string `json:"campus_id" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type updateProfileReq struct {
	CourseTaken      string `json:"course_taken"`
	MobileNum        string `json:"mobile_num"`
	DOB              string `json:"dob"`
	Address          string `json:"address"`
	EmergencyContact string `json:"emergency_contact"`
}

func RegisterPublic(rg *gin.RouterGroup, logger *slog.Logger, db *sql.DB, sessions *session.Store, up *uploads.Store, cfg config.Config) *Service {
	s := &Service{
		Logger:    logger,
		DB:        db,
		Sessions:  sessions,
		Uploads:   up,
		JWTSecret: cfg.JWTSecret,
		JWTTTLMin: cfg.JWTTTLMin,
	}
	rg.POST("/signup", s.signup)
	rg.POST("/login", s.login)
	return s
}

func (s *Service) RegisterAuthed(rg *gin.RouterGroup) {
	rg.POST("/logout", s.logout)
	rg.GET("/profile", s.getProfile)
	rg.PUT("/profile", s.updateProfile)
	rg.POST("/profile/photo", s.uploadPhoto)
}

// signup creates an account. The role is never chosen by the caller; it is
// derived from the campus ID format.
func (s *Service) signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			httpx.Err(c, http.StatusBadRequest, utils.ValidationErr(validationErrors))
			return
		}
		httpx.Err(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Password != req.ConfirmPassword {
		httpx.Err(c, http.StatusBadRequest, "passwords do not match")
		return
	}

	campusID := identity.Normalize(req.CampusID)
	role, err := identity.DeriveRole(campusID)
	if err != nil {
		httpx.Err(c, http.StatusBadRequest, err.Error())
		return
	}

	var count int
	_ = s.DB.QueryRow(`SELECT COUNT(1) FROM users WHERE campus_id=? OR email=?`, campusID, req.Email).Scan(&count)
	if count > 0 {
		httpx.Err(c, http.StatusConflict, "Campus ID or Email Already Exists")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		httpx.Err(c, http.StatusInternalServerError, "Create User Failed")
		return
	}
	res, err := s.DB.Exec(
		`INSERT INTO users (campus_id, first_name, last_name, email, password_hash, role, college_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		campusID, req.FirstName, req.LastName, req.Email, hash, role, req.College)
	if err != nil {
		httpx.Err(c, http.StatusBadRequest, "Create User Failed")
		return
	}
	uid, _ := res.LastInsertId()

	tok, err := auth.NewToken(s.JWTSecret, uid, campusID, role, req.College, s.JWTTTLMin)
	if err != nil {
		httpx.Err(c, http.StatusInternalServerError, "Token Generation Failed")
		return
	}

	profile := session.Profile{
		ID:        uid,
		CampusID:  campusID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Role:      role,
		College:   req.College,
	}
	s.Sessions.Put(profile)

	httpx.OK(c, gin.H{"token": tok, "user": profile})
}

func (s *Service) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			httpx.Err(c, http.StatusBadRequest, utils.ValidationErr(validationErrors))
			return
		}
		httpx.Err(c, http.StatusBadRequest, err.Error())
		return
	}

	campusID := identity.Normalize(req.CampusID)
	role, err := identity.DeriveRole(campusID)
	if err != nil {
		httpx.Err(c, http.StatusBadRequest, err.Error())
		return
	}

	var (
		p    session.Profile
		hash string
	)
	row := s.DB.QueryRow(
		`SELECT id, campus_id, first_name, last_name, email, password_hash, role, college_id,
		        course_taken, mobile_num, dob, address, emergency_contact, profile_photo
		 FROM users WHERE campus_id=?`, campusID)
	if err := row.Scan(&p.ID, &p.CampusID, &p.FirstName, &p.LastName, &p.Email, &hash, &p.Role,
		&p.College, &p.CourseTaken, &p.MobileNum, &p.DOB, &p.Address, &p.EmergencyContact, &p.ProfilePhoto); err != nil {
		httpx.Err(c, http.StatusUnauthorized, fmt.Sprintf("%s ID not found", role))
		return
	}
	if err := auth.CheckPassword(hash, req.Password); err != nil {
		httpx.Err(c, http.StatusUnauthorized, "Invalid Credentials")
		return
	}

	tok, err := auth.NewToken(s.JWTSecret, p.ID, p.CampusID, p.Role, p.College, s.JWTTTLMin)
	if err != nil {
		httpx.Err(c, http.StatusInternalServerError, "Token Generation Failed")
		return
	}
	s.Sessions.Put(p)

	httpx.OK(c, gin.H{"token": tok, "user": p})
}

func (s *Service) logout(c *gin.Context) {
	s.Sessions.Delete(auth.MustUserID(c))
	httpx.OK(c, gin.H{"ok": true})
}

func (s *Service) getProfile(c *gin.Context) {
	uid := auth.MustUserID(c)
	if p, ok := s.Sessions.Get(uid); ok {
		httpx.OK(c, p)
		return
	}

	var p session.Profile
	row := s.DB.QueryRow(
		`SELECT id, campus_id, first_name, last_name, email, role, college_id,
		        course_taken, mobile_num, dob, address, emergency_contact, profile_photo
		 FROM users WHERE id=?`, uid)
	if err := row.Scan(&p.ID, &p.CampusID, &p.FirstName, &p.LastName, &p.Email, &p.Role,
		&p.College, &p.CourseTaken, &p.MobileNum, &p.DOB, &p.Address, &p.EmergencyContact, &p.ProfilePhoto); err != nil {
		httpx.Err(c, http.StatusNotFound, "profile not found")
		return
	}
	s.Sessions.Put(p)
	httpx.OK(c, p)
}

func (s *Service) updateProfile(c *gin.Context) {
	uid := auth.MustUserID(c)
	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Err(c, http.StatusBadRequest, err.Error())
		return
	}

	_, err := s.DB.Exec(
		`UPDATE users SET course_taken=?, mobile_num=?, dob=?, address=?, emergency_contact=? WHERE id=?`,
		req.CourseTaken, req.MobileNum, req.DOB, req.Address, req.EmergencyContact, uid)
	if err != nil {
		httpx.Err(c, http.StatusInternalServerError, "Update Profile Failed")
		return
	}

	// Refresh the session snapshot; whole-value replace.
	s.Sessions.Delete(uid)
	s.getProfile(c)
}

func (s *Service) uploadPhoto(c *gin.Context) {
	uid := auth.MustUserID(c)

	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		httpx.Err(c, http.StatusBadRequest, "photo file missing")
		return
	}
	defer file.Close()

	name := fmt.Sprintf("user_%d_%s", uid, header.Filename)
	url, err := s.Uploads.Save("profile-pic", name, file)
	if err != nil {
		s.Logger.Error("save profile photo", "user_id", uid, "error", err)
		httpx.Err(c, http.StatusInternalServerError, "Photo Upload Failed")
		return
	}

	if _, err := s.DB.Exec(`UPDATE users SET profile_photo=? WHERE id=?`, url, uid); err != nil {
		httpx.Err(c, http.StatusInternalServerError, "Photo Upload Failed")
		return
	}
	s.Sessions.Delete(uid)
	httpx.OK(c, gin.H{"profile_photo": url})
}
