package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RejectionCode identifies why the authorization gate refused a request.
// The four status classes (401 unauthenticated, 403 forbidden, 402
// payment-required, 429 rate-limited) stay distinguishable so clients can
// react differently: re-login, contact support, upgrade, or back off.
type RejectionCode string

const (
	CodeMissingCredential  RejectionCode = "missing_credential"
	CodeInvalidCredential  RejectionCode = "invalid_credential"
	CodeExpiredCredential  RejectionCode = "expired_credential"
	CodeTenantSuspended    RejectionCode = "tenant_suspended"
	CodeInsufficientRole   RejectionCode = "insufficient_role"
	CodeSubscriptionNeeded RejectionCode = "subscription_inactive"
	CodeFeatureUnavailable RejectionCode = "feature_unavailable"
	CodeUsageLimitExceeded RejectionCode = "usage_limit_exceeded"
)

var rejectionStatus = map[RejectionCode]int{
	CodeMissingCredential:  http.StatusUnauthorized,
	CodeInvalidCredential:  http.StatusUnauthorized,
	CodeExpiredCredential:  http.StatusUnauthorized,
	CodeTenantSuspended:    http.StatusForbidden,
	CodeInsufficientRole:   http.StatusForbidden,
	CodeSubscriptionNeeded: http.StatusPaymentRequired,
	CodeFeatureUnavailable: http.StatusForbidden,
	CodeUsageLimitExceeded: http.StatusTooManyRequests,
}

// Status returns the HTTP status class for a rejection code.
func (c RejectionCode) Status() int {
	if s, ok := rejectionStatus[c]; ok {
		return s
	}
	return http.StatusForbidden
}

// reject writes the uniform rejection body and terminates the request.
func reject(c echo.Context, code RejectionCode, message string) error {
	return c.JSON(code.Status(), echo.Map{
		"success": false,
		"code":    string(code),
		"message": message,
	})
}
