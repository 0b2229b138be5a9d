package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

func TestFormatCode(t *testing.T) {
	day := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "PM-20240109-001", FormatCode(day, 1))
	require.Equal(t, "PM-20240109-042", FormatCode(day, 42))
	require.Equal(t, "PM-20240109-1000", FormatCode(day, 1000))
}

func TestNormalizeDate_UsesLocationMidnight(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	late := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, jakarta), NormalizeDate(late, jakarta))
}

func TestTransitionAllowed(t *testing.T) {
	require.True(t, TransitionAllowed(identity.RoleKitchen, StatusWaiting, StatusInProgress))
	require.True(t, TransitionAllowed(identity.RoleKitchen, StatusInProgress, StatusReady))
	require.False(t, TransitionAllowed(identity.RoleKitchen, StatusReady, StatusOnDelivery))
	require.True(t, TransitionAllowed(identity.RoleDelivery, StatusReady, StatusOnDelivery))
	require.True(t, TransitionAllowed(identity.RoleDelivery, StatusOnDelivery, StatusComplete))
	require.False(t, TransitionAllowed(identity.RoleDelivery, StatusWaiting, StatusInProgress))
	require.True(t, TransitionAllowed(identity.RoleAdministrator, StatusComplete, StatusWaiting))
	for _, from := range Statuses {
		require.Empty(t, AllowedTargets(identity.RoleEmployee, from))
	}
	require.Equal(t, []Status{StatusInProgress}, AllowedTargets(identity.RoleKitchen, StatusWaiting))
	require.Len(t, AllowedTargets(identity.RoleAdministrator, StatusWaiting), len(Statuses)-1)
}

func TestDecide_PolicyTable(t *testing.T) {
	cases := []struct {
		name       string
		edit       bool
		decision   ApprovalStatus
		wantStatus Status
		wantQty    int
		wantKind   RequestKind
	}{
		{"approve rejection", false, ApprovalApproved, StatusRejected, 5, RequestReject},
		{"approve edit", true, ApprovalApproved, StatusAwaitingApproval, 3, RequestEdit},
		{"deny rejection", false, ApprovalRejected, StatusWaiting, 5, RequestReject},
		{"deny edit", true, ApprovalRejected, StatusWaiting, 5, RequestEdit},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order, err := NewOrder("PM-20240101-001", 1, 2, 3, 5, time.Now())
			require.NoError(t, err)
			if tc.edit {
				require.NoError(t, order.RequestEdit(3, "reduce to three portions"))
			} else {
				require.NoError(t, order.RequestRejection("bahan habis di gudang"))
			}

			outcome, err := order.Decide(tc.decision, 9, nil)
			require.NoError(t, err)
			require.Equal(t, tc.wantKind, outcome.Kind)
			require.Equal(t, tc.wantStatus, order.Status)
			require.Equal(t, tc.wantQty, order.Quantity)
			require.Equal(t, tc.wantStatus != StatusAwaitingApproval, outcome.StatusMoved)
			require.False(t, order.RequiresApproval)
			require.Equal(t, tc.decision, *order.ApprovalStatus)
			require.Equal(t, int64(9), *order.ApprovedByEmployeeID)
		})
	}
}

func TestOpenEpisode_SnapshotsQuantityPerEpisode(t *testing.T) {
	order, err := NewOrder("PM-20240101-001", 1, 2, 3, 5, time.Now())
	require.NoError(t, err)

	require.NoError(t, order.RequestEdit(2, "only two portions left"))
	require.Equal(t, 5, *order.OriginalQuantity)
	require.ErrorIs(t, order.RequestEdit(1, "only one portion left"), ErrAlreadyPendingApproval)
	require.Equal(t, 5, *order.OriginalQuantity)

	_, err = order.Decide(ApprovalRejected, 9, nil)
	require.NoError(t, err)
	require.NoError(t, order.RequestRejection("ternyata stok habis"))
	require.Equal(t, 5, *order.OriginalQuantity)
	require.Equal(t, RequestReject, order.PendingRequestKind())
}

func TestClone_DoesNotSharePointers(t *testing.T) {
	order, err := NewOrder("PM-20240101-001", 1, 2, 3, 5, time.Now())
	require.NoError(t, err)
	require.NoError(t, order.RequestRejection("stok habis hari ini"))

	clone := order.Clone()
	*clone.OriginalQuantity = 99
	*clone.KitchenNote = "changed"
	require.Equal(t, 5, *order.OriginalQuantity)
	require.Equal(t, "stok habis hari ini", *order.KitchenNote)
}

func TestTransitionTo_AdministratorRespectsApprovalEpisode(t *testing.T) {
	now := time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)
	order, err := NewOrder("PM-20240612-001", 1, 2, 3, 5, now)
	require.NoError(t, err)

	require.ErrorIs(t, order.TransitionTo(identity.RoleAdministrator, StatusAwaitingApproval, now), ErrApprovalNotTargetable)

	require.NoError(t, order.RequestRejection("supplier did not deliver rice"))
	require.ErrorIs(t, order.TransitionTo(identity.RoleAdministrator, StatusComplete, now), ErrApprovalEpisodeOpen)
	require.Equal(t, StatusAwaitingApproval, order.Status)
	require.Nil(t, order.CompletedAt)

	_, err = order.Decide(ApprovalRejected, 9, nil)
	require.NoError(t, err)
	require.NoError(t, order.TransitionTo(identity.RoleAdministrator, StatusComplete, now))
	require.Equal(t, now, *order.CompletedAt)
}
