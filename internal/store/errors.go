package store

import "errors"

var (
	ErrSlotNotFound    = errors.New("slot not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrAlreadyBooked   = errors.New("slot already booked")
	ErrBusy            = errors.New("resource busy")
)
