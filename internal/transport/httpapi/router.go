package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type RouterConfig struct {
	Verifier tokenVerifier
	Limiter  limiter
	DB       Pinger
	Logger   *slog.Logger
}

func NewRouter(svc bookingService, cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	h := NewBookingHandler(svc, log)
	health := NewHealthHandler(cfg.DB, log)

	read := func(next httprouter.Handle) httprouter.Handle {
		return authenticated(cfg.Verifier, h.log, next)
	}
	write := func(next httprouter.Handle) httprouter.Handle {
		return authenticated(cfg.Verifier, h.log, throttled(cfg.Limiter, h.log, next))
	}

	r := httprouter.New()
	r.POST("/v1/availability", write(h.GenerateSlots))
	r.GET("/v1/owners", read(h.ListOwners))
	r.GET("/v1/owners/:owner/slots", read(h.ListSlots))
	r.GET("/v1/owners/:owner/open-slots", read(h.ListOpenSlots))
	r.GET("/v1/dates", read(h.UpcomingDates))
	r.POST("/v1/slots/:slot/booking", write(h.BookSlot))
	r.GET("/v1/bookings", read(h.ListBookings))
	r.DELETE("/v1/bookings/:booking", write(h.CancelBooking))

	r.GET("/healthz", health.Health)
	if cfg.DB != nil {
		r.GET("/readyz", health.Ready)
	}

	return withRecovery(log, withLogging(log, r))
}
