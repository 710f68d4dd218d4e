package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rental-api/internal/middleware"
	"rental-api/internal/model"
	"rental-api/pkg/config"
	"rental-api/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	users   map[uint]*model.User
	tenants map[uint]*model.Tenant
}

func (s *fakeStore) FindUserByID(id uint) (*model.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, errors.New("record not found")
}

func (s *fakeStore) FindTenantByID(id uint) (*model.Tenant, error) {
	if t, ok := s.tenants[id]; ok {
		return t, nil
	}
	return nil, errors.New("record not found")
}

func newFixture(t *testing.T) (*middleware.Auth, *jwtutil.JWTUtil, *fakeStore) {
	t.Helper()
	jwtUtil := jwtutil.New(&config.JWTConfig{SigningKey: "test-secret", ExpirationHours: 1})
	store := &fakeStore{
		users:   map[uint]*model.User{},
		tenants: map[uint]*model.Tenant{},
	}
	return middleware.NewAuth(jwtUtil, store), jwtUtil, store
}

func seedTenant(store *fakeStore, plan model.Plan, status model.TenantStatus) (*model.User, *model.Tenant) {
	tenant := &model.Tenant{
		ID:     1,
		Name:   "Acme Rentals",
		Status: status,
		Subscription: model.Subscription{
			Plan:        plan,
			Status:      model.SubscriptionActive,
			TrialEndsAt: time.Now().Add(model.TrialPeriod),
		},
		Usage: model.Usage{ResetAt: time.Now().Add(24 * time.Hour)},
	}
	user := &model.User{ID: 10, Email: "owner@acme.test", Role: model.RoleAdmin, TenantID: tenant.ID}
	store.tenants[tenant.ID] = tenant
	store.users[user.ID] = user
	return user, tenant
}

func doRequest(h echo.HandlerFunc, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tenant", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = h(c)
	return rec, c
}

func rejectionCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Success)
	return body.Code
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestAuthenticate_MissingToken(t *testing.T) {
	auth, _, _ := newFixture(t)

	rec, _ := doRequest(auth.Authenticate(okHandler), "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "missing_credential", rejectionCode(t, rec))
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	auth, _, _ := newFixture(t)

	rec, _ := doRequest(auth.Authenticate(okHandler), "Token abc")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "missing_credential", rejectionCode(t, rec))
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	auth, _, _ := newFixture(t)

	rec, _ := doRequest(auth.Authenticate(okHandler), "Bearer garbage.token.here")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_credential", rejectionCode(t, rec))
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	auth, _, store := newFixture(t)
	user, _ := seedTenant(store, model.PlanStarter, model.TenantActive)

	expiredIssuer := jwtutil.New(&config.JWTConfig{SigningKey: "test-secret", ExpirationHours: -1})
	token, err := expiredIssuer.GenerateToken(user.ID, user.Email, user.TenantID, string(user.Role))
	require.NoError(t, err)

	rec, _ := doRequest(auth.Authenticate(okHandler), "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "expired_credential", rejectionCode(t, rec))
}

// A valid token whose subject no longer exists must look exactly like an
// invalid token, so deleted accounts cannot be probed.
func TestAuthenticate_UnknownUserReadsAsInvalid(t *testing.T) {
	auth, jwtUtil, _ := newFixture(t)

	token, err := jwtUtil.GenerateToken(999, "ghost@acme.test", 1, "admin")
	require.NoError(t, err)

	rec, _ := doRequest(auth.Authenticate(okHandler), "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_credential", rejectionCode(t, rec))
}

func TestAuthenticate_SuspendedTenant(t *testing.T) {
	auth, jwtUtil, store := newFixture(t)
	user, _ := seedTenant(store, model.PlanProfessional, model.TenantSuspended)

	token, err := jwtUtil.GenerateToken(user.ID, user.Email, user.TenantID, string(user.Role))
	require.NoError(t, err)

	rec, _ := doRequest(auth.Authenticate(okHandler), "Bearer "+token)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "tenant_suspended", rejectionCode(t, rec))
}

func TestAuthenticate_Success(t *testing.T) {
	auth, jwtUtil, store := newFixture(t)
	user, tenant := seedTenant(store, model.PlanProfessional, model.TenantActive)

	token, err := jwtUtil.GenerateToken(user.ID, user.Email, user.TenantID, string(user.Role))
	require.NoError(t, err)

	var seenUser *model.User
	var seenTenant *model.Tenant
	h := auth.Authenticate(func(c echo.Context) error {
		seenUser = middleware.UserFromContext(c)
		seenTenant = middleware.TenantFromContext(c)
		return c.String(http.StatusOK, "ok")
	})

	rec, _ := doRequest(h, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, user.ID, seenUser.ID)
	require.Equal(t, tenant.ID, seenTenant.ID)
}

// Gate stages below run after Authenticate; simulate that by seeding the
// context directly.

func gateRequest(t *testing.T, mw echo.MiddlewareFunc, user *model.User, tenant *model.Tenant) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/pricing", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		c.Set(middleware.ContextUserKey, user)
	}
	if tenant != nil {
		c.Set(middleware.ContextTenantKey, tenant)
	}
	_ = mw(okHandler)(c)
	return rec
}

func TestRequireRole(t *testing.T) {
	auth, _, store := newFixture(t)
	user, tenant := seedTenant(store, model.PlanProfessional, model.TenantActive)

	user.Role = model.RoleMember
	rec := gateRequest(t, auth.RequireRole(model.RoleAdmin, model.RoleManager), user, tenant)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "insufficient_role", rejectionCode(t, rec))

	user.Role = model.RoleManager
	rec = gateRequest(t, auth.RequireRole(model.RoleAdmin, model.RoleManager), user, tenant)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireSubscription_FeatureUnavailableOnStarter(t *testing.T) {
	auth, _, store := newFixture(t)
	user, tenant := seedTenant(store, model.PlanStarter, model.TenantActive)

	rec := gateRequest(t, auth.RequireSubscription(model.FeatureAIPricing), user, tenant)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "feature_unavailable", rejectionCode(t, rec))
}

func TestRequireSubscription_ExpiredTrial(t *testing.T) {
	auth, _, store := newFixture(t)
	user, tenant := seedTenant(store, model.PlanTrial, model.TenantActive)
	tenant.Subscription.TrialEndsAt = time.Now().Add(-time.Hour)

	rec := gateRequest(t, auth.RequireSubscription(""), user, tenant)
	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	require.Equal(t, "subscription_inactive", rejectionCode(t, rec))
}

func TestRequireSubscription_Allowed(t *testing.T) {
	auth, _, store := newFixture(t)
	user, tenant := seedTenant(store, model.PlanProfessional, model.TenantActive)

	rec := gateRequest(t, auth.RequireSubscription(model.FeatureAIPricing), user, tenant)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireUsage_LimitExceeded(t *testing.T) {
	auth, _, store := newFixture(t)
	user, tenant := seedTenant(store, model.PlanTrial, model.TenantActive)
	tenant.Usage.Properties = 3

	rec := gateRequest(t, auth.RequireUsage(model.ResourceProperties), user, tenant)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "usage_limit_exceeded", rejectionCode(t, rec))
}

func TestRequireUsage_UnlimitedPlan(t *testing.T) {
	auth, _, store := newFixture(t)
	user, tenant := seedTenant(store, model.PlanEnterprise, model.TenantActive)
	tenant.Usage.Properties = 100000

	rec := gateRequest(t, auth.RequireUsage(model.ResourceProperties), user, tenant)
	require.Equal(t, http.StatusOK, rec.Code)
}
