package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount             = errors.New("amount must be a positive number of minor units")
	ErrInvalidRefundReason       = errors.New("refund reason is not recognized")
	ErrNonRefundable             = errors.New("refund reason is not refundable")
	ErrRefundExceedsBalance      = errors.New("refund amount exceeds remaining refundable balance")
	ErrInvalidSplitConfiguration = errors.New("invalid split configuration")
	ErrPaymentNotFound           = errors.New("payment intent not found")
	ErrRefundNotFound            = errors.New("refund not found")
	ErrDisputeNotFound           = errors.New("dispute not found")
	ErrDisputeAlreadyOpen        = errors.New("an open dispute already exists for this payment")
	ErrInvalidTransition         = errors.New("status transition not allowed")
	ErrVersionConflict           = errors.New("payment intent was modified concurrently")
	ErrWebhookSignatureInvalid   = errors.New("webhook signature verification failed")
)

// RailError marks a failed call to a payment rail. It is transient and
// retryable by the caller, as opposed to validation errors which never
// reached the rail: "money not moved" vs "money may have moved".
type RailError struct {
	Rail RailName
	Op   string
	Err  error
}

func (e *RailError) Error() string {
	return fmt.Sprintf("rail %s: %s: %v", e.Rail, e.Op, e.Err)
}

func (e *RailError) Unwrap() error {
	return e.Err
}

func IsRailError(err error) bool {
	var re *RailError
	return errors.As(err, &re)
}
