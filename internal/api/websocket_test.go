package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-home/internal/controller"
	"github.com/nerrad567/gray-logic-home/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-home/internal/infrastructure/logging"
)

// listen mounts the router on a real listener and returns the ws:// URL of /api/v1/ws.
func listen(t *testing.T, env *testEnv) string {
	t.Helper()
	ts := httptest.NewServer(env.srv.Handler())
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
}

func dial(t *testing.T, url string, header http.Header) *websocket.Conn {
	t.Helper()
	ws, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("websocket dial failed: %v (resp: %v)", err, resp)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readMsg(t *testing.T, ws *websocket.Conn) WSMessage {
	t.Helper()
	//nolint:errcheck // Test deadline
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	if err := ws.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func subscribe(t *testing.T, ws *websocket.Conn, channels ...string) {
	t.Helper()
	if err := ws.WriteJSON(WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "sub-1",
		Payload: WSSubscribePayload{Channels: channels},
	}); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}
	resp := readMsg(t, ws)
	if resp.Type != WSTypeResponse || resp.ID != "sub-1" {
		t.Fatalf("subscribe response = %+v", resp)
	}
}

func TestWebSocket_BroadcastToSubscribed(t *testing.T) {
	env := newTestEnv(t, nil)
	url := listen(t, env)

	alerts := dial(t, url, nil)
	devices := dial(t, url, nil)
	subscribe(t, alerts, controller.ChannelAlerts)
	subscribe(t, devices, controller.ChannelDevices)

	env.srv.Hub().Broadcast(controller.ChannelAlerts, map[string]any{"sensor_id": "bedroom", "severity": "critical"})
	env.srv.Hub().Broadcast(controller.ChannelDevices, map[string]any{"id": "kitchen", "state": "on"})

	got := readMsg(t, alerts)
	if got.Type != WSTypeEvent || got.EventType != controller.ChannelAlerts {
		t.Errorf("alerts client got %+v", got)
	}
	payload, ok := got.Payload.(map[string]any)
	if !ok || payload["sensor_id"] != "bedroom" {
		t.Errorf("alert payload = %#v", got.Payload)
	}

	got = readMsg(t, devices)
	if got.EventType != controller.ChannelDevices {
		t.Errorf("devices client got event %q, want %q", got.EventType, controller.ChannelDevices)
	}

	if n := env.srv.Hub().ClientCount(); n != 2 {
		t.Errorf("ClientCount() = %d, want 2", n)
	}
}

func TestWebSocket_Unsubscribe(t *testing.T) {
	env := newTestEnv(t, nil)
	ws := dial(t, listen(t, env), nil)
	subscribe(t, ws, controller.ChannelAlerts, controller.ChannelDevices)

	if err := ws.WriteJSON(WSMessage{
		Type:    WSTypeUnsubscribe,
		ID:      "unsub-1",
		Payload: WSSubscribePayload{Channels: []string{controller.ChannelAlerts}},
	}); err != nil {
		t.Fatalf("write unsubscribe: %v", err)
	}
	if resp := readMsg(t, ws); resp.ID != "unsub-1" {
		t.Fatalf("unsubscribe response = %+v", resp)
	}

	env.srv.Hub().Broadcast(controller.ChannelAlerts, "dropped")
	env.srv.Hub().Broadcast(controller.ChannelDevices, "delivered")

	// Per-connection ordering means the first event must be the devices one.
	got := readMsg(t, ws)
	if got.EventType != controller.ChannelDevices || got.Payload != "delivered" {
		t.Errorf("got %+v, want devices event", got)
	}
}

func TestWebSocket_PingAndErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	ws := dial(t, listen(t, env), nil)

	if err := ws.WriteJSON(WSMessage{Type: WSTypePing, ID: "p1"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if got := readMsg(t, ws); got.Type != WSTypePong || got.ID != "p1" {
		t.Errorf("ping reply = %+v", got)
	}

	if err := ws.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := readMsg(t, ws); got.Type != WSTypeError {
		t.Errorf("invalid JSON reply type = %q, want error", got.Type)
	}

	if err := ws.WriteJSON(WSMessage{Type: "dance", ID: "d1"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := readMsg(t, ws); got.Type != WSTypeError || got.ID != "d1" {
		t.Errorf("unknown type reply = %+v", got)
	}

	if err := ws.WriteJSON(WSMessage{Type: WSTypeSubscribe, ID: "s0", Payload: WSSubscribePayload{}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := readMsg(t, ws); got.Type != WSTypeError {
		t.Errorf("empty subscribe reply type = %q, want error", got.Type)
	}
}

func TestWebSocket_Auth(t *testing.T) {
	env := newTestEnv(t, withAuth)
	url := listen(t, env)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected error connecting without a token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("resp = %v, want 401", resp)
	}

	token, err := IssueToken(testSecret, "homectl", "wall-panel", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	byQuery := dial(t, url+"?token="+token, nil)
	subscribe(t, byQuery, controller.ChannelAlerts)

	byHeader := dial(t, url, http.Header{"Authorization": {"Bearer " + token}})
	subscribe(t, byHeader, controller.ChannelAlerts)
}

func TestHub_CloseAllOnCancel(t *testing.T) {
	env := newTestEnv(t, nil)
	ws := dial(t, listen(t, env), nil)
	subscribe(t, ws, controller.ChannelAlerts)

	env.srv.Hub().closeAll()

	if n := env.srv.Hub().ClientCount(); n != 0 {
		t.Errorf("ClientCount() after closeAll = %d, want 0", n)
	}
	//nolint:errcheck // Test deadline
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Error("expected read error after hub shutdown")
	}

	// A broadcast after shutdown must not panic.
	env.srv.Hub().Broadcast(controller.ChannelAlerts, "late")
}

func TestNewHub_Defaults(t *testing.T) {
	h := NewHub(config.WebSocketConfig{}, logging.Default())
	if h.pingInterval != defaultWSPingInterval || h.pongWait != defaultWSPongTimeout || h.maxMessageSize != defaultWSMaxMessageSize {
		t.Errorf("defaults not applied: %+v", h)
	}
}
