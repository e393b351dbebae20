package webserver

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/balogunquadri/banshee-bn-backend/pkg/models"
	"github.com/balogunquadri/banshee-bn-backend/pkg/trips"
	"github.com/balogunquadri/banshee-bn-backend/pkg/utils"
	"github.com/balogunquadri/banshee-bn-backend/pkg/validation"
)

const (
	identityKey     = "identity"
	sessionTokenKey = "token"

	msgNoToken      = "Unathorized, You did not provide a token"
	msgInvalidToken = "Unauthorized, Your token is invalid or expired"
	msgAccessDenied = "access denied"
	msgUnverified   = "Your account has not been verified"
)

type tokenBody struct {
	Token string `json:"token"`
}

// requestToken finds the token in the authorization header, the JSON body
// or the login session, in that order
func requestToken(c *gin.Context) string {
	if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}

	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		var body tokenBody
		if err := c.ShouldBindBodyWith(&body, binding.JSON); err == nil && body.Token != "" {
			return body.Token
		}
	}

	if token, ok := sessions.Default(c).Get(sessionTokenKey).(string); ok {
		return token
	}
	return ""
}

// requireToken validates the caller's token and attaches its identity
func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := requestToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, msgNoToken))
			return
		}

		claims, err := s.jwtManager.ValidateToken(token)
		if err != nil {
			s.logger.LogSecurity("invalid_token", "", c.ClientIP(), map[string]interface{}{
				"error": err.Error(),
			})
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, msgInvalidToken))
			return
		}

		c.Set(identityKey, claims.Identity())
		c.Next()
	}
}

// requireVerified blocks accounts that have not completed verification
func (s *Server) requireVerified() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentIdentity(c).Verified {
			c.AbortWithStatusJSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, msgUnverified))
			return
		}
		c.Next()
	}
}

// permit only lets the listed roles through
func (s *Server) permit(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := currentIdentity(c)
		if !models.IsAllowed(identity.Role, roles...) {
			s.logger.LogSecurity("access_denied", identity.UserID, c.ClientIP(), map[string]interface{}{
				"path": c.Request.URL.Path,
				"role": string(identity.Role),
			})
			c.AbortWithStatusJSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, msgAccessDenied))
			return
		}
		c.Next()
	}
}

// currentIdentity returns the identity set by requireToken, or the zero
// identity on public routes
func currentIdentity(c *gin.Context) models.Identity {
	if value, ok := c.Get(identityKey); ok {
		if identity, ok := value.(models.Identity); ok {
			return identity
		}
	}
	return models.Identity{}
}

// bindBody decodes the JSON body into dst. An empty body leaves dst
// untouched.
func bindBody(c *gin.Context, dst interface{}) validation.Errors {
	if c.Request.Body == nil {
		return nil
	}
	if err := c.ShouldBindBodyWith(dst, binding.JSON); err != nil && !errors.Is(err, io.EOF) {
		return validation.Single("body", validation.MsgInvalidBody)
	}
	return nil
}

// combine folds the field errors of err into errs. Any other error is
// returned unchanged.
func combine(errs validation.Errors, err error) error {
	var fieldErrs validation.Errors
	if err != nil && !errors.As(err, &fieldErrs) {
		return err
	}

	all := validation.Errors{}
	for field, msg := range errs {
		all.Add(field, msg)
	}
	for field, msg := range fieldErrs {
		all.Add(field, msg)
	}
	return all.Err()
}

// respondError maps service errors to the response envelope. Unknown
// errors are logged and reported as a server error.
func (s *Server) respondError(c *gin.Context, err error) {
	var fieldErrs validation.Errors
	switch {
	case errors.As(err, &fieldErrs):
		c.JSON(http.StatusBadRequest, utils.NewValidationResponse(fieldErrs))
	case errors.Is(err, trips.ErrTripNotFound):
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Trip does not exist"))
	case errors.Is(err, trips.ErrNoPendingRequests):
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "No pending requests"))
	case errors.Is(err, trips.ErrNotOwner):
		c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "You can only edit your own trip requests"))
	case errors.Is(err, trips.ErrNotPending):
		c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Only pending trip requests can be edited"))
	default:
		s.logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, utils.ServerErrorMessage))
	}
}
