package auth

import (
	"log/slog"
	"net/http"
	"strings"

	id "aplite/pkg/domain"
	dErrors "aplite/pkg/domain-errors"
	"aplite/pkg/platform/httputil"
	request "aplite/pkg/platform/middleware/request"
	"aplite/pkg/requestcontext"
)

const (
	msgMissingToken = "Missing or invalid Authorization header"
	msgBadToken     = "Invalid or expired token"
)

// JWTValidator verifies a bearer token minted by the onboarding backend.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims is the part of the token the BFF relies on.
type JWTClaims struct {
	UserID string
	Email  string
	JTI    string
}

// RequireAuth puts the caller's user id and raw bearer token on the context.
// The token is forwarded unchanged on every backend call.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			reject := func(reason, msg string, err error) {
				logger.WarnContext(ctx, "onboarding request unauthenticated",
					"reason", reason,
					"error", err,
					"request_id", request.GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, msg))
			}

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				reject("missing_token", msgMissingToken, nil)
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				reject("invalid_token", msgBadToken, err)
				return
			}
			userID, err := id.ParseUserID(claims.UserID)
			if err != nil {
				reject("malformed_subject", msgBadToken, err)
				return
			}

			ctx = requestcontext.WithBearerToken(requestcontext.WithUserID(ctx, userID), token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
