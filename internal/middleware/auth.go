package middleware

import (
	"errors"
	"fmt"
	"strings"

	"rental-api/internal/model"
	"rental-api/pkg/jwtutil"
	"rental-api/pkg/logger"
	"rental-api/prometheus"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Context keys under which the verifier stores its results.
const (
	ContextUserKey   = "user"
	ContextTenantKey = "tenant"
)

// Store resolves token claims to persisted records. Satisfied by the
// gorm-backed store in production and by fakes in tests.
type Store interface {
	FindUserByID(id uint) (*model.User, error)
	FindTenantByID(id uint) (*model.Tenant, error)
}

// GormStore is the database-backed Store.
type GormStore struct {
	DB *gorm.DB
}

func (s *GormStore) FindUserByID(id uint) (*model.User, error) {
	var user model.User
	if err := s.DB.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) FindTenantByID(id uint) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := s.DB.First(&tenant, id).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

// Auth bundles the credential verifier and the authorization gate stages.
// The JWT utility carries the signing secret; nothing here reads ambient
// package state.
type Auth struct {
	jwt   *jwtutil.JWTUtil
	store Store
}

// NewAuth creates the authorization middleware set.
func NewAuth(jwtUtil *jwtutil.JWTUtil, store Store) *Auth {
	return &Auth{jwt: jwtUtil, store: store}
}

// Authenticate is the credential verifier: it resolves the bearer token to
// a user and tenant, rejecting with a distinct code per failure mode. A
// valid token whose user no longer exists is reported as an invalid
// credential so callers cannot probe for deleted accounts.
func (a *Auth) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			prometheus.RecordAuthRejection(string(CodeMissingCredential))
			return reject(c, CodeMissingCredential, "missing authorization token")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			prometheus.RecordAuthRejection(string(CodeMissingCredential))
			return reject(c, CodeMissingCredential, "invalid authorization format, expected Bearer token")
		}

		claims, err := a.jwt.ValidateToken(parts[1])
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				prometheus.RecordAuthRejection(string(CodeExpiredCredential))
				return reject(c, CodeExpiredCredential, "token expired")
			}
			log.Warn("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthRejection(string(CodeInvalidCredential))
			return reject(c, CodeInvalidCredential, "invalid token")
		}

		user, err := a.store.FindUserByID(claims.UserID)
		if err != nil {
			log.Warn("Token subject not found", zap.Uint("user_id", claims.UserID))
			prometheus.RecordAuthRejection(string(CodeInvalidCredential))
			return reject(c, CodeInvalidCredential, "invalid token")
		}

		tenant, err := a.store.FindTenantByID(user.TenantID)
		if err != nil {
			log.Error("Tenant lookup failed", zap.Uint("tenant_id", user.TenantID), zap.Error(err))
			prometheus.RecordAuthRejection(string(CodeInvalidCredential))
			return reject(c, CodeInvalidCredential, "invalid token")
		}

		if tenant.Status != model.TenantActive {
			log.Warn("Suspended tenant rejected",
				zap.Uint("tenant_id", tenant.ID),
				zap.String("status", string(tenant.Status)))
			prometheus.RecordAuthRejection(string(CodeTenantSuspended))
			return reject(c, CodeTenantSuspended, "account suspended, contact support")
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextTenantKey, tenant)

		log.Debug("Request authenticated",
			zap.Uint("user_id", user.ID),
			zap.Uint("tenant_id", tenant.ID),
			zap.String("role", string(user.Role)))

		return next(c)
	}
}

// RequireRole admits only users whose role is in the allowed set.
func (a *Auth) RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := UserFromContext(c)
			if user == nil {
				prometheus.RecordAuthRejection(string(CodeMissingCredential))
				return reject(c, CodeMissingCredential, "authentication required")
			}
			for _, role := range roles {
				if user.Role == role {
					return next(c)
				}
			}
			prometheus.RecordAuthRejection(string(CodeInsufficientRole))
			return reject(c, CodeInsufficientRole, "insufficient permissions")
		}
	}
}

// RequireSubscription admits only tenants with an active subscription,
// optionally also requiring a named plan feature. An empty feature gates
// on subscription state alone.
func (a *Auth) RequireSubscription(feature model.Feature) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tenant := TenantFromContext(c)
			if tenant == nil {
				prometheus.RecordAuthRejection(string(CodeMissingCredential))
				return reject(c, CodeMissingCredential, "authentication required")
			}
			if !tenant.IsSubscriptionActive() {
				prometheus.RecordAuthRejection(string(CodeSubscriptionNeeded))
				return reject(c, CodeSubscriptionNeeded, "active subscription required")
			}
			if feature != "" && !tenant.HasFeature(feature) {
				prometheus.RecordAuthRejection(string(CodeFeatureUnavailable))
				return reject(c, CodeFeatureUnavailable,
					fmt.Sprintf("feature '%s' not available on the %s plan", feature, tenant.Subscription.Plan))
			}
			return next(c)
		}
	}
}

// RequireUsage admits only tenants with headroom for one more unit of the
// resource. The handler, not the gate, increments usage after a successful
// write.
func (a *Auth) RequireUsage(resource model.Resource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tenant := TenantFromContext(c)
			if tenant == nil {
				prometheus.RecordAuthRejection(string(CodeMissingCredential))
				return reject(c, CodeMissingCredential, "authentication required")
			}
			if !tenant.CheckLimit(resource) {
				prometheus.RecordUsageLimitHit(string(resource))
				prometheus.RecordAuthRejection(string(CodeUsageLimitExceeded))
				return reject(c, CodeUsageLimitExceeded,
					fmt.Sprintf("usage limit exceeded for %s", resource))
			}
			return next(c)
		}
	}
}

// UserFromContext returns the authenticated user, or nil before Authenticate ran.
func UserFromContext(c echo.Context) *model.User {
	user, _ := c.Get(ContextUserKey).(*model.User)
	return user
}

// TenantFromContext returns the authenticated tenant, or nil before Authenticate ran.
func TenantFromContext(c echo.Context) *model.Tenant {
	tenant, _ := c.Get(ContextTenantKey).(*model.Tenant)
	return tenant
}
