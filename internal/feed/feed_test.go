package feed

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derekprior/courtsim/internal/driver"
	"github.com/derekprior/courtsim/internal/schedule"
)

type sink chan driver.Command

func (s sink) Send(ctx context.Context, cmd driver.Command) error {
	select {
	case s <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHubBroadcastsSnapshots(t *testing.T) {
	hub := NewHub(make(sink, 1), zerolog.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	hub.Publish(schedule.Snapshot{Time: 7})

	first := dial(t, srv)
	msg := readMessage(t, first)
	assert.Equal(t, "snapshot", msg.Type)
	require.NotNil(t, msg.Snapshot)
	assert.Equal(t, 7, msg.Snapshot.Time, "new clients get the latest snapshot")

	second := dial(t, srv)
	readMessage(t, second)

	hub.Publish(schedule.Snapshot{
		Time:    8,
		Active:  1,
		Courts:  []schedule.CourtView{{ID: 1, Occupied: true, Type: schedule.Mixed, Players: nil}},
		Players: []schedule.PlayerView{{ID: "M1", Gender: "M", InMatch: true, Court: 1}},
	})
	for _, conn := range []*websocket.Conn{first, second} {
		msg := readMessage(t, conn)
		require.NotNil(t, msg.Snapshot)
		assert.Equal(t, 8, msg.Snapshot.Time)
		assert.Equal(t, schedule.Mixed, msg.Snapshot.Courts[0].Type)
		assert.Equal(t, 1, msg.Snapshot.Players[0].Court)
	}
	assert.Equal(t, 2, hub.Clients())
}

func TestHubForwardsCommands(t *testing.T) {
	commands := make(sink, 4)
	hub := NewHub(commands, zerolog.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("pause")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("duration 11")))

	select {
	case cmd := <-commands:
		assert.Equal(t, driver.Command{Kind: driver.Pause}, cmd)
	case <-time.After(5 * time.Second):
		t.Fatal("pause was not forwarded")
	}
	select {
	case cmd := <-commands:
		assert.Equal(t, driver.Command{Kind: driver.SetDuration, Minutes: 11}, cmd)
	case <-time.After(5 * time.Second):
		t.Fatal("duration was not forwarded")
	}
}

func TestHubRejectsBadCommands(t *testing.T) {
	commands := make(sink, 1)
	hub := NewHub(commands, zerolog.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("warp 9")))

	msg := readMessage(t, conn)
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, msg.Error, "unknown command")
	assert.Empty(t, commands)
}

func TestHubClose(t *testing.T) {
	hub := NewHub(make(sink, 1), zerolog.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	hub.Publish(schedule.Snapshot{Time: 1})
	conn := dial(t, srv)
	readMessage(t, conn)

	hub.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err)
	assert.Equal(t, 0, hub.Clients())
}
