package httpapi

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/julienschmidt/httprouter"

	"slotbook/internal/domain"
	"slotbook/internal/identity"
)

type tokenVerifier interface {
	Verify(token string) (domain.Party, error)
}

type limiter interface {
	Allow(key string) bool
}

// authenticated rejects requests without a valid bearer token and stores the
// verified party in the request context.
func authenticated(v tokenVerifier, log *slog.Logger, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		token, err := identity.BearerToken(r.Header.Get("Authorization"))
		if err == nil {
			var party domain.Party
			if party, err = v.Verify(token); err == nil {
				next(w, r.WithContext(identity.WithParty(r.Context(), party)), ps)
				return
			}
		}
		writeError(w, log, err, slog.String("path", r.URL.Path))
	}
}

// throttled applies the per-party limiter. It must run inside authenticated.
func throttled(l limiter, log *slog.Logger, next httprouter.Handle) httprouter.Handle {
	if l == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if p, ok := identity.PartyFrom(r.Context()); ok && !l.Allow(p.ID) {
			log.Info("rate limited", slog.String("party_id", p.ID), slog.String("path", r.URL.Path))
			writeMessage(w, log, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			return
		}
		next(w, r, ps)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	if rw.status == 0 {
		rw.status = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	return rw.ResponseWriter.Write(b)
}

func withLogging(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		log.Debug("request handled",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

func withRecovery(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("panic recovered",
					slog.Any("err", err),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("stack", string(debug.Stack())),
				)
				writeMessage(w, log, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
