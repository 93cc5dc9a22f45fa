package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safar/storefront/internal/auth"
	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/store"
)

type signupRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=6"`
	Name     string  `json:"name" binding:"required,min=2"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleSignup(c *gin.Context) {
	var req signupRequest
	if !bindJSON(c, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.handleError(c, err)
		return
	}

	user, err := store.CreateUser(c.Request.Context(), s.db, store.NewUser{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Phone:        req.Phone,
		Address:      req.Address,
		Role:         models.RoleUser,
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	if !s.startSession(c, user) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()

	user, err := store.GetUserByEmail(ctx, s.db, req.Email)
	if err != nil && !errors.Is(err, database.ErrUserNotFound) {
		s.handleError(c, err)
		return
	}
	if user == nil || user.PasswordHash == nil || !auth.ComparePassword(*user.PasswordHash, req.Password) {
		respondError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	userAgent := c.Request.UserAgent()
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	device := auth.DeviceFromUserAgent(userAgent)
	if userAgent == "" {
		userAgent = "unknown"
	}

	if _, err := store.CreateLoginEvent(ctx, s.db, store.NewLoginEvent{
		UserID:    user.ID,
		IP:        ip,
		UserAgent: userAgent,
		Device:    device,
	}); err != nil {
		s.logger.WarnContext(ctx, "record login event", "user_id", user.ID, "error", err)
	}

	if !s.startSession(c, user) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (s *Server) handleLogout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, "", -1, "/", "", s.secureCookies, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (s *Server) handleMe(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)

	user, err := store.GetUser(c.Request.Context(), s.db, claims.UserID)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (s *Server) startSession(c *gin.Context, user *models.User) bool {
	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		s.handleError(c, err)
		return false
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, int(s.tokens.TTL().Seconds()), "/", "", s.secureCookies, true)
	return true
}

func currentUserID(c *gin.Context) string {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		return ""
	}
	return claims.UserID
}
