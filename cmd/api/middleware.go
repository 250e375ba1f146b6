package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bozor/internal/auth"

	"github.com/go-chi/chi/v5/middleware"
)

type userKey string

const userIDCtx userKey = "userID"

// getUserIDFromContext returns the id AuthTokenMiddleware stored, or 0.
func getUserIDFromContext(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDCtx).(int64)
	return id
}

func (app *application) BasicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// read the auth header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is missing"))
				return
			}

			// parse it -> get the base64
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Basic" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is malformed"))
				return
			}

			// decode it
			decoded, err := base64.StdEncoding.DecodeString(parts[1])
			if err != nil {
				app.unauthorizedBasicErrorResponse(w, r, err)
				return
			}

			// check the credentials
			username := app.config.auth.basic.user
			pass := app.config.auth.basic.pass

			creds := strings.SplitN(string(decoded), ":", 2)
			if len(creds) != 2 || creds[0] != username || creds[1] != pass {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("invalid credentials"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuthTokenMiddleware verifies the bearer token and stores the caller's user
// id in the request context. Users live in the account service, so the id is
// trusted as signed.
func (app *application) AuthTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			app.unauthorizedErrorResponse(w, r, fmt.Errorf("authorization header is missing"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			app.unauthorizedErrorResponse(w, r, fmt.Errorf("authorization header is malformed"))
			return
		}

		jwtToken, err := app.authenticator.ValidateAccessToken(parts[1])
		if err != nil {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}

		userID, err := auth.UserID(jwtToken)
		if err != nil {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userIDCtx, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (app *application) RateLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if allow, retryAfter := app.rateLimiter.Allow(r.RemoteAddr); !allow {
			secs := int(math.Ceil(retryAfter.Seconds()))
			app.rateLimitExceededResponse(w, r, strconv.Itoa(secs))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IdempotencyMiddleware rejects a repeated Idempotency-Key from the same user
// with 409. Requests without the header, or without Redis configured, pass
// through. A key whose request failed is released so the client can retry.
func (app *application) IdempotencyMiddleware(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
			if app.idempotency == nil || clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			key := app.idempotency.Key(scope, getUserIDFromContext(r), clientKey)
			seen, err := app.idempotency.Seen(r.Context(), key)
			if err != nil {
				app.internalServerError(w, r, fmt.Errorf("idempotency check: %w", err))
				return
			}
			if seen {
				app.conflictResponse(w, r, fmt.Errorf("request with this Idempotency-Key was already processed"))
				return
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if ww.Status() >= http.StatusBadRequest {
				ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 2*time.Second)
				defer cancel()
				if err := app.idempotency.Forget(ctx, key); err != nil {
					app.logger.Warnw("could not release idempotency key", "key", key, "error", err)
				}
			}
		})
	}
}
