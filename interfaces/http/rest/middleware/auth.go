package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"focusloop/infrastructure/config"
	"focusloop/pkg/auth"
	"focusloop/pkg/common"
)

// Authenticate validates the Bearer token on every request and places the
// caller's identity in the request context. Behind API Gateway the JWT has
// already been verified, so the Lambda path only reads the forwarded
// identity headers and rate-limits through the shared DynamoDB window,
// which survives cold starts.
func Authenticate(cfg *config.Config, distributed *auth.DistributedRateLimiter, logger *zap.Logger) func(next http.Handler) http.Handler {
	if cfg.IsLambda {
		return authenticateFromHeaders(distributed, logger)
	}

	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     cfg.JWTSecret,
		Issuer:        cfg.JWTIssuer,
		Audience:      []string{"focusloop-api"},
	})
	if err != nil {
		logger.Error("jwt validator setup failed", zap.Error(err))
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				common.RespondError(w, http.StatusUnauthorized, common.StandardErrorCodes.Unauthorized, "authentication unavailable")
			})
		}
	}

	ipLimiter := auth.NewIPRateLimiter(100)
	userLimiter := auth.NewUserRateLimiter(200)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, _ := ipLimiter.Allow(r.Context(), clientIP(r))
			if !allowed {
				common.RespondError(w, http.StatusTooManyRequests, common.StandardErrorCodes.TooManyRequests, "too many requests")
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				common.RespondError(w, http.StatusUnauthorized, common.StandardErrorCodes.Unauthorized, "missing bearer token")
				return
			}

			claims, err := validator.Validate(token)
			if err != nil {
				common.RespondError(w, http.StatusUnauthorized, common.StandardErrorCodes.Unauthorized, unauthorizedMessage(err))
				return
			}

			allowed, _ = userLimiter.Allow(r.Context(), claims.UserID)
			if !allowed {
				common.RespondError(w, http.StatusTooManyRequests, common.StandardErrorCodes.TooManyRequests, "too many requests")
				return
			}

			ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{
				UserID:          claims.UserID,
				Email:           claims.Email,
				AuthenticatedAt: time.Now(),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authenticateFromHeaders trusts the identity headers the API Gateway
// authorizer forwards with each invocation.
func authenticateFromHeaders(distributed *auth.DistributedRateLimiter, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get("X-User-ID")
			if userID == "" {
				logger.Warn("request without forwarded identity", zap.String("path", r.URL.Path))
				common.RespondError(w, http.StatusUnauthorized, common.StandardErrorCodes.Unauthorized, "missing identity")
				return
			}

			if distributed != nil {
				allowed, err := distributed.Allow(r.Context(), userID)
				if err == nil && !allowed {
					common.RespondError(w, http.StatusTooManyRequests, common.StandardErrorCodes.TooManyRequests, "too many requests")
					return
				}
			}

			ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{
				UserID:          userID,
				Email:           r.Header.Get("X-User-Email"),
				AuthenticatedAt: time.Now(),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func unauthorizedMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "token expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "invalid token signature"
	default:
		return "invalid token"
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		return host[:i]
	}
	return host
}
