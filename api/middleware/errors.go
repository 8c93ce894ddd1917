package middleware

import (
	"context"
	"net/http"

	"github.com/polyakovam/bookstore/api/web"
	"github.com/polyakovam/bookstore/api/weberr"
	"github.com/sirupsen/logrus"
)

// Errors renders the response attached to a business error, or a generic 500
// for anything unexpected. Internal detail never reaches the caller.
func Errors(log logrus.FieldLogger) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			err := handler(ctx, w, r)
			if err == nil {
				return nil
			}

			fields := map[string]interface{}{
				"req_id":  ContextRequestID(ctx),
				"message": err,
			}
			if f, ok := weberr.Fields(err); ok {
				for k, v := range f {
					fields[k] = v
				}
			}

			log.WithFields(logrus.Fields(fields)).Error("ERROR")

			if body, code, ok := weberr.Response(err); ok {
				return web.Respond(ctx, w, body, code)
			}

			er := weberr.ErrorResponse{
				Status:  http.StatusInternalServerError,
				Code:    weberr.CodeInternalError,
				Message: "an unexpected error occurred",
			}
			return web.Respond(ctx, w, er, http.StatusInternalServerError)
		}
		return h
	}
	return m
}
