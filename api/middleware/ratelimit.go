package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/polyakovam/bookstore/api/web"
	"github.com/polyakovam/bookstore/api/weberr"
	"github.com/polyakovam/bookstore/core/claims"
	"github.com/polyakovam/bookstore/rate"
)

// RateLimit throttles per authenticated user, falling back to the client
// address for anonymous calls.
func RateLimit(limiter *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			key := clientKey(ctx, r)
			if !limiter.Allow(key) {
				return weberr.NewError(
					errors.New("rate limit exceeded for "+key),
					http.StatusTooManyRequests,
					weberr.CodeTooManyRequests,
					"too many requests",
				)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

func clientKey(ctx context.Context, r *http.Request) string {
	if clm, err := claims.Get(ctx); err == nil {
		return clm.UserID
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
