package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"slotbook/internal/identity"
	"slotbook/internal/service/booking"
	"slotbook/internal/store"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Data any `json:"data"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

func writeSuccess(w http.ResponseWriter, log *slog.Logger, statusCode int, data any) {
	if err := writeJSON(w, statusCode, SuccessResponse{Data: data}); err != nil {
		log.Error("failed to write JSON response", slog.Any("err", err))
	}
}

func writeMessage(w http.ResponseWriter, log *slog.Logger, statusCode int, msg string) {
	if err := writeJSON(w, statusCode, ErrorResponse{Error: msg}); err != nil {
		log.Error("failed to write JSON response", slog.Any("err", err))
	}
}

// writeError maps service and store errors onto HTTP statuses. Expected
// outcomes are logged below error level.
func writeError(w http.ResponseWriter, log *slog.Logger, err error, attrs ...any) {
	statusCode, msg := http.StatusInternalServerError, "Internal server error"
	level := slog.LevelError

	var vErr *booking.ValidationError
	switch {
	case errors.As(err, &vErr):
		statusCode, msg, level = http.StatusBadRequest, vErr.Error(), slog.LevelWarn
	case errors.Is(err, booking.ErrInvalidRange):
		statusCode, msg, level = http.StatusBadRequest, "End time must be later than start time.", slog.LevelWarn
	case errors.Is(err, store.ErrSlotNotFound):
		statusCode, msg, level = http.StatusNotFound, "slot not found", slog.LevelInfo
	case errors.Is(err, store.ErrBookingNotFound):
		statusCode, msg, level = http.StatusNotFound, "booking not found", slog.LevelInfo
	case errors.Is(err, store.ErrAlreadyBooked):
		statusCode, msg, level = http.StatusConflict, "Sorry, this slot was just booked by someone else. Pick a different slot.", slog.LevelInfo
	case errors.Is(err, booking.ErrUnauthorized):
		statusCode, msg, level = http.StatusForbidden, "you are not allowed to do that", slog.LevelInfo
	case errors.Is(err, identity.ErrMissingToken), errors.Is(err, identity.ErrInvalidToken):
		statusCode, msg, level = http.StatusUnauthorized, "authentication required", slog.LevelInfo
	case errors.Is(err, store.ErrBusy), errors.Is(err, context.DeadlineExceeded):
		statusCode, msg, level = http.StatusServiceUnavailable, "The slot is busy right now. Try again.", slog.LevelWarn
	}

	attrs = append(attrs, slog.Any("err", err), slog.Int("status", statusCode))
	log.Log(context.Background(), level, "request failed", attrs...)
	writeMessage(w, log, statusCode, msg)
}
