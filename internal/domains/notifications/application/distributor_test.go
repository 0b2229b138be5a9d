package application

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/notifications/adapters/websocket"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/notifications/domain"
	orderdomain "github.com/Apurer/go-gin-meal-orders/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/platform/eventbus"
	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

func join(t *testing.T, hub *websocket.Hub, id string, actor identity.Actor, dept *int64) *websocket.Client {
	t.Helper()
	client := websocket.NewClient(domain.NewCapability(id, actor, dept), 4)
	hub.Join(context.Background(), client)
	return client
}

func received(client *websocket.Client) []websocket.Frame {
	var frames []websocket.Frame
	for {
		select {
		case raw := <-client.Send():
			var f websocket.Frame
			if err := json.Unmarshal(raw, &f); err == nil {
				frames = append(frames, f)
			}
		default:
			return frames
		}
	}
}

func TestDistributor_RejectionScenarioReachesAdminsAndRequester(t *testing.T) {
	ctx := context.Background()
	hub := websocket.NewHub()
	bus := eventbus.New[orderdomain.Event]()
	NewDistributor(hub, nil).Attach(bus)

	dept := int64(7)
	admin := join(t, hub, "admin", identity.Actor{SubjectID: 5, EmployeeID: 400, Role: identity.RoleAdministrator}, nil)
	requester := join(t, hub, "emp", identity.Actor{SubjectID: 1, EmployeeID: 100, Role: identity.RoleEmployee}, &dept)
	delivery := join(t, hub, "del", identity.Actor{SubjectID: 4, EmployeeID: 300, Role: identity.RoleDelivery}, &dept)

	bus.Publish(ctx, orderdomain.OrderApprovalRequested{
		BaseEvent:    orderdomain.BaseEvent{Timestamp: time.Now()},
		OrderID:      1,
		Code:         "PM-20241015-001",
		RequestType:  orderdomain.RequestReject,
		RequestedBy:  200,
		KitchenNote:  "stok habis hari ini",
		OriginalQty:  3,
		DepartmentID: dept,
		RequesterID:  100,
	})

	adminFrames := received(admin)
	require.Len(t, adminFrames, 1)
	require.Equal(t, orderdomain.EventOrderApprovalRequested, adminFrames[0].Event)
	data := adminFrames[0].Data.(map[string]any)
	require.Equal(t, "REJECT", data["requestType"])
	require.Nil(t, data["newQty"])

	require.Len(t, received(requester), 1)
	require.Empty(t, received(delivery))
}

func TestDistributor_EachConnectionReceivesFrameOnce(t *testing.T) {
	ctx := context.Background()
	hub := websocket.NewHub()
	distributor := NewDistributor(hub, nil)

	dept := int64(7)
	// Reachable through both role:administrator and employee:400.
	admin := join(t, hub, "admin", identity.Actor{SubjectID: 5, EmployeeID: 400, Role: identity.RoleAdministrator}, &dept)

	require.NoError(t, distributor.Handle(ctx, orderdomain.OrderApprovalDecided{
		Decision:     orderdomain.ApprovalApproved,
		DepartmentID: dept,
		RequestedBy:  400,
	}))
	require.Len(t, received(admin), 1)
}
