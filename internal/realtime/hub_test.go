package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openHub() *Hub {
	// no token store and no admin hash: joins are ungated
	return NewHub(NewAccessPolicy(nil, ""))
}

func testClient(h *Hub) *Client {
	c := NewClient(h, nil)
	h.Register(c)
	return c
}

func receivedEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data := <-c.send:
		var ev Event
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	default:
		t.Fatal("expected a queued event")
		return Event{}
	}
}

func TestEmitReachesOnlyRoomMembers(t *testing.T) {
	h := openHub()
	admin1 := testClient(h)
	admin2 := testClient(h)
	outsider := testClient(h)

	h.join(admin1, AdminRoom)
	h.join(admin2, AdminRoom)

	h.Emit(AdminRoom, EventNewOrder, map[string]interface{}{"id": 1})

	ev1 := receivedEvent(t, admin1)
	assert.Equal(t, EventNewOrder, ev1.Event)
	ev2 := receivedEvent(t, admin2)
	assert.Equal(t, EventNewOrder, ev2.Event)
	assert.Empty(t, outsider.send, "non-members must not receive room events")
}

func TestEmitToEmptyRoomIsNoop(t *testing.T) {
	h := openHub()
	// nothing is connected; emitting must neither block nor fail
	h.Emit(OrderRoom(99), EventOrderStatusUpdated, nil)
}

func TestOrderRoomsAreIsolated(t *testing.T) {
	h := openHub()
	watcher7 := testClient(h)
	watcher8 := testClient(h)
	h.join(watcher7, OrderRoom(7))
	h.join(watcher8, OrderRoom(8))

	h.Emit(OrderRoom(7), EventOrderStatusUpdated, StatusUpdatePayload{OrderID: 7, Status: "Preparing"})

	ev := receivedEvent(t, watcher7)
	assert.Equal(t, EventOrderStatusUpdated, ev.Event)
	assert.Empty(t, watcher8.send)
}

func TestUnregisterLeavesAllRooms(t *testing.T) {
	h := openHub()
	c := testClient(h)
	h.join(c, AdminRoom)
	h.join(c, OrderRoom(1))

	h.Unregister(c)

	assert.Equal(t, 0, h.RoomSize(AdminRoom))
	assert.Equal(t, 0, h.RoomSize(OrderRoom(1)))

	// further emissions must not panic on the closed send queue
	h.Emit(AdminRoom, EventNewOrder, nil)

	// double unregister is harmless (read and write pump both call it)
	h.Unregister(c)
}

func TestSlowConsumerMissesEvents(t *testing.T) {
	h := openHub()
	c := testClient(h)
	h.join(c, AdminRoom)

	for i := 0; i < sendQueueSize+10; i++ {
		h.Emit(AdminRoom, EventOrderUpdated, i)
	}

	// queue capped, emit never blocked
	assert.Equal(t, sendQueueSize, len(c.send))
}

func TestSubscribeToOrderControl(t *testing.T) {
	h := openHub()
	c := testClient(h)

	c.handleControl(controlMessage{Action: "subscribeToOrder", OrderID: 7})
	assert.Equal(t, 1, h.RoomSize(OrderRoom(7)))

	c.handleControl(controlMessage{Action: "subscribeToOrder"})
	ev := receivedEvent(t, c)
	assert.Equal(t, EventError, ev.Event)
}

func TestJoinAdminRoomControl(t *testing.T) {
	h := openHub()
	c := testClient(h)

	c.handleControl(controlMessage{Action: "joinAdminRoom"})
	assert.Equal(t, 1, h.RoomSize(AdminRoom))
}

func TestUnknownControlAction(t *testing.T) {
	h := openHub()
	c := testClient(h)

	c.handleControl(controlMessage{Action: "teleport"})
	ev := receivedEvent(t, c)
	assert.Equal(t, EventError, ev.Event)
	assert.Equal(t, 0, h.RoomSize(AdminRoom))
}
