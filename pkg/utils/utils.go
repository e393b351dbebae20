package utils

import (
	"fmt"
	"time"

	"github.com/balogunquadri/banshee-bn-backend/pkg/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

// JWTManager handles JWT token operations
type JWTManager struct {
	secret     []byte
	expiration time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret string, expirationHours int) *JWTManager {
	return &JWTManager{
		secret:     []byte(secret),
		expiration: time.Duration(expirationHours) * time.Hour,
	}
}

// UserClaims represents JWT claims for users
type UserClaims struct {
	UserID    string      `json:"id"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	CompanyID string      `json:"companyId"`
	Verified  bool        `json:"isVerified"`
	jwt.RegisteredClaims
}

// Identity returns the authenticated identity carried by the claims
func (c *UserClaims) Identity() models.Identity {
	return models.Identity{
		UserID:    c.UserID,
		Email:     c.Email,
		Role:      c.Role,
		CompanyID: c.CompanyID,
		Verified:  c.Verified,
	}
}

// GenerateToken generates a JWT token for an identity
func (jm *JWTManager) GenerateToken(identity models.Identity) (string, error) {
	claims := UserClaims{
		UserID:    identity.UserID,
		Email:     identity.Email,
		Role:      identity.Role,
		CompanyID: identity.CompanyID,
		Verified:  identity.Verified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(jm.expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "banshee",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jm.secret)
}

// ValidateToken validates and parses a JWT token
func (jm *JWTManager) ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jm.secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// HashPassword hashes a plaintext password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the bcrypt hash
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// TOTPKey is a freshly generated verification secret
type TOTPKey struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauthUrl"`
}

// GenerateTOTPKey creates a TOTP secret for the given account
func GenerateTOTPKey(issuer, account string) (*TOTPKey, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate totp key: %w", err)
	}

	return &TOTPKey{Secret: key.Secret(), URL: key.URL()}, nil
}

// ValidateTOTP checks a passcode against the secret for the current time step
func ValidateTOTP(code, secret string) bool {
	if secret == "" {
		return false
	}
	return totp.Validate(code, secret)
}

// Pagination helps with paginating results
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalCount int `json:"totalCount"`
	TotalPages int `json:"totalPages"`
}

// NewPagination creates a new pagination instance
func NewPagination(page, limit, totalCount int) *Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	totalPages := (totalCount + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	return &Pagination{
		Page:       page,
		Limit:      limit,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}

// GetOffset returns the offset for database queries
func (p *Pagination) GetOffset() int {
	return (p.Page - 1) * p.Limit
}

// HasNextPage returns true if there's a next page
func (p *Pagination) HasNextPage() bool {
	return p.Page < p.TotalPages
}

// Response helpers
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Code    int         `json:"code,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// ValidationMessage is the top-level message of every 400 validation response
const ValidationMessage = "Validation Error!"

// ServerErrorMessage is returned in place of internal error details
const ServerErrorMessage = "Server error, please try again"

// NewSuccessResponse creates a success API response
func NewSuccessResponse(data interface{}, message string) *APIResponse {
	return &APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// NewErrorResponse creates an error API response
func NewErrorResponse(code int, message string) *APIResponse {
	return &APIResponse{
		Success: false,
		Message: message,
		Code:    code,
	}
}

// NewValidationResponse creates a 400 response carrying field errors
func NewValidationResponse(fields map[string]string) *APIResponse {
	return &APIResponse{
		Success: false,
		Message: ValidationMessage,
		Data:    fields,
		Code:    400,
	}
}

// NewPaginatedResponse creates a paginated API response
func NewPaginatedResponse(data interface{}, pagination *Pagination, message string) *APIResponse {
	return &APIResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    pagination,
	}
}
