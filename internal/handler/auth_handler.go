package handler

import (
	"net/http"
	"strings"
	"time"

	"rental-api/internal/middleware"
	"rental-api/internal/model"
	"rental-api/pkg/database"
	"rental-api/pkg/jwtutil"
	"rental-api/pkg/logger"
	"rental-api/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthHandler issues and refreshes session credentials. The JWT utility is
// injected so the signing secret never lives in package state.
type AuthHandler struct {
	jwt *jwtutil.JWTUtil
}

// NewAuthHandler creates the authentication handler set.
func NewAuthHandler(jwtUtil *jwtutil.JWTUtil) *AuthHandler {
	return &AuthHandler{jwt: jwtUtil}
}

// Register creates a tenant on the trial plan with its first admin user.
func (h *AuthHandler) Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Company  string `json:"company,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request"})
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "name, email and a password of at least 6 characters are required",
		})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	var existing model.User
	if result := database.GetDB().Where("email = ?", req.Email).First(&existing); result.Error == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "user already exists with this email",
		})
	}

	tenantName := req.Company
	if tenantName == "" {
		tenantName = req.Name + "'s Rentals"
	}

	tenant := model.Tenant{
		Name: tenantName,
		Slug: makeSlug(tenantName),
	}
	// The first user is the tenant admin and counts against the user limit.
	tenant.Usage.Users = 1

	user := model.User{
		Name:  req.Name,
		Email: req.Email,
		Role:  model.RoleAdmin,
	}
	if err := user.SetPassword(req.Password); err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "registration failed"})
	}

	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "database error"})
	}

	if result := tx.Create(&tenant); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create tenant", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "registration failed"})
	}

	user.TenantID = tenant.ID
	if result := tx.Create(&user); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create user", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "registration failed"})
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit registration", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "registration failed"})
	}

	token, err := h.jwt.GenerateToken(user.ID, user.Email, tenant.ID, string(user.Role))
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "token error"})
	}

	log.Info("Tenant registered",
		zap.Uint("tenant_id", tenant.ID),
		zap.String("slug", tenant.Slug),
		zap.String("email", user.Email))

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"token":   token,
		"user": echo.Map{
			"id":        user.ID,
			"name":      user.Name,
			"email":     user.Email,
			"role":      user.Role,
			"tenant_id": user.TenantID,
		},
		"subscription": tenant.Subscription,
	})
}

// Login verifies credentials and issues a session token.
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var user model.User
	result := database.GetDB().Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user)
	if result.Error != nil || !user.ComparePassword(req.Password) {
		// Same response for unknown email and bad password.
		log.Warn("Login failed", zap.String("email", req.Email))
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid credentials"})
	}

	token, err := h.jwt.GenerateToken(user.ID, user.Email, user.TenantID, string(user.Role))
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "token error"})
	}

	now := time.Now()
	database.GetDB().Model(&user).Update("last_login_at", now)

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.Uint("tenant_id", user.TenantID),
		zap.String("role", string(user.Role)))

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"token":   token,
		"user": echo.Map{
			"id":        user.ID,
			"name":      user.Name,
			"email":     user.Email,
			"role":      user.Role,
			"tenant_id": user.TenantID,
		},
	})
}

// ChangePassword rotates the stored credential after verifying the current one.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	log := logger.FromContext(c)

	user := middleware.UserFromContext(c)
	if user == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "authentication required"})
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request"})
	}

	if len(req.NewPassword) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "new password must be at least 6 characters",
		})
	}

	if !user.ComparePassword(req.CurrentPassword) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "current password is incorrect"})
	}

	if err := user.SetPassword(req.NewPassword); err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "password change failed"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Model(user).Update("password", user.Password); result.Error != nil {
		log.Error("Failed to persist password", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "password change failed"})
	}

	log.Info("Password changed", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "password updated"})
}

// GetProfile returns the authenticated user.
func (h *AuthHandler) GetProfile(c echo.Context) error {
	user := middleware.UserFromContext(c)
	if user == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "authentication required"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": user})
}

// UpdateProfile updates the authenticated user's display fields.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	log := logger.FromContext(c)

	user := middleware.UserFromContext(c)
	if user == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "authentication required"})
	}

	var req struct {
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.AvatarURL != "" {
		updates["avatar_url"] = req.AvatarURL
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "user": user})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Model(user).Updates(updates); result.Error != nil {
		log.Error("Failed to update profile", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "profile update failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": user})
}

// makeSlug derives a URL-safe tenant slug with a random suffix so two
// tenants with the same display name never collide.
func makeSlug(name string) string {
	slug := strings.ToLower(name)
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, slug)
	slug = strings.Trim(slug, "-")
	return slug + "-" + uuid.New().String()[:6]
}
