package scheduling

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pau-bookit/bookit-api/internal/models"
)

// ErrTransitionNotAllowed is returned when a reservation leaves a terminal state.
var ErrTransitionNotAllowed = errors.New("transition not allowed")

// Decision is the outcome chosen by a reviewer.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionDeny    Decision = "deny"
)

// ParseDecision accepts "approve"/"approved" and "deny"/"denied" in any case.
func ParseDecision(value string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "approve", "approved":
		return DecisionApprove, nil
	case "deny", "denied":
		return DecisionDeny, nil
	}
	return "", fmt.Errorf("unknown review decision %q", value)
}

// Target is the status a pending reservation moves to under the decision.
func (d Decision) Target() models.ReservationStatus {
	if d == DecisionApprove {
		return models.ReservationApproved
	}
	return models.ReservationDenied
}

// DecisionFor maps a target status back to the decision that produces it.
func DecisionFor(status models.ReservationStatus) (Decision, error) {
	switch status {
	case models.ReservationApproved:
		return DecisionApprove, nil
	case models.ReservationDenied:
		return DecisionDeny, nil
	}
	return "", fmt.Errorf("%w: %s is not a review outcome", ErrTransitionNotAllowed, status)
}

// InitialStatus is PENDING for submissions and APPROVED for administrator-created bookings.
func InitialStatus(adminCreated bool) models.ReservationStatus {
	if adminCreated {
		return models.ReservationApproved
	}
	return models.ReservationPending
}

// IsTerminal reports whether no further review transitions are permitted.
func IsTerminal(status models.ReservationStatus) bool {
	return status == models.ReservationApproved || status == models.ReservationDenied
}

// Next applies a review decision. Only PENDING reservations can be reviewed.
func Next(from models.ReservationStatus, decision Decision) (models.ReservationStatus, error) {
	if IsTerminal(from) {
		return from, fmt.Errorf("%w: %s is terminal", ErrTransitionNotAllowed, from)
	}
	if from != models.ReservationPending {
		return from, fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, from, decision.Target())
	}
	if decision != DecisionApprove && decision != DecisionDeny {
		return from, fmt.Errorf("%w: unknown decision %q", ErrTransitionNotAllowed, decision)
	}
	return decision.Target(), nil
}

// ParseStatus parses a status name case-insensitively.
func ParseStatus(value string) (models.ReservationStatus, error) {
	status := models.ReservationStatus(strings.ToUpper(strings.TrimSpace(value)))
	switch status {
	case models.ReservationPending, models.ReservationApproved, models.ReservationDenied:
		return status, nil
	}
	return "", fmt.Errorf("unknown reservation status %q", value)
}
