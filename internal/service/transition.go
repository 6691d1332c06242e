package service

import (
	"errors"
	"fmt"

	"github.com/elfogon/api/internal/enum"
)

// Errors returned by transition validation.
var (
	ErrOrderFinal        = errors.New("order is in a final status")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrRoleNotAllowed    = errors.New("role may not act on this order")
	ErrConfirmRequired   = errors.New("cancellation requires confirmation")
	ErrCancelNotAllowed  = errors.New("only unconfirmed orders can be cancelled")
)

// pipeline is the order lifecycle. Transitions move forward one step at a
// time; the only side exit is CANCELLED, and only from the first status.
var pipeline = []string{
	enum.OrderStatusAwaitingConfirmation,
	enum.OrderStatusQueued,
	enum.OrderStatusPreparing,
	enum.OrderStatusReady,
	enum.OrderStatusDelivered,
}

// roleOrigins maps a role to the statuses it is allowed to act on.
// ADMIN is absent because it may act from any status.
var roleOrigins = map[string][]string{
	enum.RoleCocinero: {enum.OrderStatusQueued, enum.OrderStatusPreparing},
	enum.RoleMesero:   {enum.OrderStatusAwaitingConfirmation, enum.OrderStatusReady},
	enum.RoleCajero:   {enum.OrderStatusAwaitingConfirmation, enum.OrderStatusReady},
}

// Pipeline returns the order lifecycle statuses in progression order.
// CANCELLED is not part of the pipeline.
func Pipeline() []string {
	out := make([]string, len(pipeline))
	copy(out, pipeline)
	return out
}

// NextStatus returns the pipeline successor of current, if any.
func NextStatus(current string) (string, bool) {
	for i, s := range pipeline {
		if s == current && i+1 < len(pipeline) {
			return pipeline[i+1], true
		}
	}
	return "", false
}

// IsValidStatus reports whether s is a known order status.
func IsValidStatus(s string) bool {
	if s == enum.OrderStatusCancelled {
		return true
	}
	for _, p := range pipeline {
		if p == s {
			return true
		}
	}
	return false
}

func roleMayActOn(role, current string) bool {
	if role == enum.RoleAdmin {
		return true
	}
	for _, s := range roleOrigins[role] {
		if s == current {
			return true
		}
	}
	return false
}

// ValidateAdvance checks a forward transition: the acting role must be
// authorized for the order's current status, and the target must be the
// immediate next step of the pipeline.
func ValidateAdvance(current, target, role string) error {
	if current == enum.OrderStatusDelivered || current == enum.OrderStatusCancelled {
		return fmt.Errorf("%w: %s", ErrOrderFinal, current)
	}
	if !roleMayActOn(role, current) {
		return fmt.Errorf("%w: %s on %s", ErrRoleNotAllowed, role, current)
	}
	next, ok := NextStatus(current)
	if !ok || next != target {
		return fmt.Errorf("%w: %s to %s", ErrIllegalTransition, current, target)
	}
	return nil
}

// ValidateCancel checks the cancellation side exit. Cancellation needs an
// explicit operator confirmation and is only legal while the order is
// still awaiting confirmation.
func ValidateCancel(current, role string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmRequired
	}
	if !roleMayActOn(role, enum.OrderStatusAwaitingConfirmation) {
		return fmt.Errorf("%w: %s", ErrRoleNotAllowed, role)
	}
	if current != enum.OrderStatusAwaitingConfirmation {
		return fmt.Errorf("%w: status is %s", ErrCancelNotAllowed, current)
	}
	return nil
}
