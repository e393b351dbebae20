package webserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/balogunquadri/banshee-bn-backend/pkg/models"
	"github.com/balogunquadri/banshee-bn-backend/pkg/utils"
	"github.com/balogunquadri/banshee-bn-backend/pkg/validation"
)

const msgInvalidCredentials = "Invalid email or password"

// authUser is a user as returned after authentication
type authUser struct {
	*models.User
	Token string `json:"token"`
}

// issueToken signs a token for user and keeps it in the login session
func (s *Server) issueToken(c *gin.Context, user *models.User) (*authUser, error) {
	token, err := s.jwtManager.GenerateToken(user.Identity())
	if err != nil {
		return nil, err
	}

	session := sessions.Default(c)
	session.Set(sessionTokenKey, token)
	if err := session.Save(); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return &authUser{User: user, Token: token}, nil
}

// handleLogin checks email and password and issues a token
func (s *Server) handleLogin(c *gin.Context) {
	var req validation.LoginRequest
	if errs := bindBody(c, &req); len(errs) > 0 {
		s.respondError(c, errs)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(&req).Err(); err != nil {
		s.respondError(c, err)
		return
	}

	user, err := s.repo.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.respondError(c, err)
		return
	}
	if err != nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.LogAuth("", req.Email, "login", false)
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, msgInvalidCredentials))
		return
	}

	authed, err := s.issueToken(c, user)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.logger.LogAuth(user.ID, user.Email, "login", true)
	c.JSON(http.StatusOK, utils.NewSuccessResponse(gin.H{"user": authed}, "Login successful"))
}

// handleLogout handles user logout
func (s *Server) handleLogout(c *gin.Context) {
	session := sessions.Default(c)
	if token, ok := session.Get(sessionTokenKey).(string); ok {
		if claims, err := s.jwtManager.ValidateToken(token); err == nil {
			s.logger.LogAuth(claims.UserID, claims.Email, "logout", true)
		}
	}

	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		s.respondError(c, fmt.Errorf("failed to clear session: %w", err))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(nil, "Logged out successfully"))
}

// currentUser loads the caller's account. A token for a removed account
// is treated as invalid.
func (s *Server) currentUser(c *gin.Context) (*models.User, bool) {
	user, err := s.repo.GetUserByID(c.Request.Context(), currentIdentity(c).UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, msgInvalidToken))
		return nil, false
	}
	if err != nil {
		s.respondError(c, err)
		return nil, false
	}
	return user, true
}

// handleVerificationSetup creates the authenticator secret of an
// unverified account
func (s *Server) handleVerificationSetup(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}
	if user.IsVerified {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Your account is already verified"))
		return
	}

	key, err := utils.GenerateTOTPKey(s.config.Security.TOTPIssuer, user.Email)
	if err != nil {
		s.respondError(c, err)
		return
	}

	user.TOTPSecret = key.Secret
	if err := s.repo.UpdateUser(c.Request.Context(), user); err != nil {
		s.respondError(c, fmt.Errorf("failed to store totp secret: %w", err))
		return
	}

	s.logger.LogAuth(user.ID, user.Email, "verification_setup", true)
	c.JSON(http.StatusOK, utils.NewSuccessResponse(key, "Verification secret generated"))
}

// handleVerification checks a one-time code and marks the account verified
func (s *Server) handleVerification(c *gin.Context) {
	var req validation.VerificationRequest
	if errs := bindBody(c, &req); len(errs) > 0 {
		s.respondError(c, errs)
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	if err := s.validator.Struct(&req).Err(); err != nil {
		s.respondError(c, err)
		return
	}

	user, ok := s.currentUser(c)
	if !ok {
		return
	}

	if !user.IsVerified {
		if !utils.ValidateTOTP(req.Code, user.TOTPSecret) {
			s.logger.LogAuth(user.ID, user.Email, "verification", false)
			s.respondError(c, validation.Single("code", "Invalid verification code"))
			return
		}

		user.IsVerified = true
		if err := s.repo.UpdateUser(c.Request.Context(), user); err != nil {
			s.respondError(c, fmt.Errorf("failed to verify user: %w", err))
			return
		}
	}

	authed, err := s.issueToken(c, user)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.logger.LogAuth(user.ID, user.Email, "verification", true)
	c.JSON(http.StatusOK, utils.NewSuccessResponse(gin.H{"user": authed}, "Account verified successfully"))
}
