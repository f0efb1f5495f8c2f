package scheduling

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pau-bookit/bookit-api/internal/models"
)

func TestNextFromPending(t *testing.T) {
	status, err := Next(models.ReservationPending, DecisionApprove)
	require.NoError(t, err)
	require.Equal(t, models.ReservationApproved, status)

	status, err = Next(models.ReservationPending, DecisionDeny)
	require.NoError(t, err)
	require.Equal(t, models.ReservationDenied, status)
}

func TestNextFromTerminalStatesFails(t *testing.T) {
	for _, from := range []models.ReservationStatus{models.ReservationApproved, models.ReservationDenied} {
		for _, decision := range []Decision{DecisionApprove, DecisionDeny} {
			status, err := Next(from, decision)
			require.ErrorIs(t, err, ErrTransitionNotAllowed)
			require.Equal(t, from, status)
		}
		require.True(t, IsTerminal(from))
	}
	require.False(t, IsTerminal(models.ReservationPending))
}

func TestInitialStatus(t *testing.T) {
	require.Equal(t, models.ReservationPending, InitialStatus(false))
	require.Equal(t, models.ReservationApproved, InitialStatus(true))
}

func TestParseDecisionAndStatus(t *testing.T) {
	decision, err := ParseDecision("Approved")
	require.NoError(t, err)
	require.Equal(t, DecisionApprove, decision)

	decision, err = ParseDecision("deny")
	require.NoError(t, err)
	require.Equal(t, DecisionDeny, decision)

	_, err = ParseDecision("maybe")
	require.Error(t, err)

	status, err := ParseStatus("pending")
	require.NoError(t, err)
	require.Equal(t, models.ReservationPending, status)

	_, err = DecisionFor(models.ReservationPending)
	require.ErrorIs(t, err, ErrTransitionNotAllowed)
}
