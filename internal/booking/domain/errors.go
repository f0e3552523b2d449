package booking

import "errors"

var (
	// ErrReservationNotFound covers both an absent reservation and one
	// owned by another consumer; the two are deliberately not
	// distinguished so ownership probes leak nothing.
	ErrReservationNotFound = errors.New("booking: reservation not found")
	// ErrCutoffViolation is returned when the slot starts 24h or less
	// from now.
	ErrCutoffViolation = errors.New("booking: reservation cutoff passed")
	// ErrCapacityExceeded is returned when a booking would breach the
	// slot ceiling.
	ErrCapacityExceeded = errors.New("booking: capacity exceeded")
	// ErrMultipleProducersPerHour is returned when the consumer already
	// holds an active reservation for the hour with another producer.
	ErrMultipleProducersPerHour = errors.New("booking: only one producer per hour per consumer")
	// ErrBelowMinimumQuantity is returned for quantities under 0.1 kWh.
	ErrBelowMinimumQuantity = errors.New("booking: below minimum quantity")
	// ErrNilReservation is returned when persisting a nil reservation.
	ErrNilReservation = errors.New("booking: nil reservation")
)
