package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/roomhub/internal/config"
	"github.com/dkeye/roomhub/internal/core"
	"github.com/dkeye/roomhub/internal/domain"
)

type stubConn struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (s *stubConn) TrySend(f core.Frame) error {
	s.mu.Lock()
	s.frames = append(s.frames, f)
	s.mu.Unlock()
	return nil
}

func (s *stubConn) Close() {}

func (s *stubConn) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func newTestRouter(token string) (*gin.Engine, *core.RoomManager) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Mode:         "test",
		SendBuffer:   8,
		DefaultRoom:  "lobby",
		Secret:       "test-secret",
		ControlToken: token,
	}
	rooms := core.NewRoomManager()
	return SetupRouter(cfg, rooms), rooms
}

// seedRoom registers two identified connections subscribed to "chat".
func seedRoom(t *testing.T, rooms *core.RoomManager, id string) (*stubConn, *stubConn) {
	t.Helper()
	room := rooms.GetOrCreate(domain.RoomID(id))
	a, b := &stubConn{}, &stubConn{}

	ia, err := domain.NewIdentity("u1", "Alice", "")
	require.NoError(t, err)
	ib, err := domain.NewIdentity("u2", "Bob", "")
	require.NoError(t, err)

	aID := room.Accept(a, ia)
	bID := room.Accept(b, ib)
	room.Dispatch(aID, []byte(`{"type":"subscribe","channel":"chat"}`))
	room.Dispatch(bID, []byte(`{"type":"subscribe","channel":"chat"}`))
	return a, b
}

func doJSON(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestControl_Broadcast(t *testing.T) {
	r, rooms := newTestRouter("")
	a, b := seedRoom(t, rooms, "r1")
	before := a.count()

	w := doJSON(r, http.MethodPost, "/api/rooms/r1/broadcast", `{"channel":"chat","payload":"server says hi"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp BroadcastResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Recipients)

	// No sender to exclude: both subscribers got exactly one more frame.
	assert.Equal(t, before+1, a.count())
	assert.Equal(t, before+1, b.count())
}

func TestControl_BroadcastMissingChannel(t *testing.T) {
	r, rooms := newTestRouter("")
	a, _ := seedRoom(t, rooms, "r1")
	before := a.count()

	w := doJSON(r, http.MethodPost, "/api/rooms/r1/broadcast", `{"payload":"hi"}`, nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "channel")
	// No mutation, no delivery.
	assert.Equal(t, before, a.count())
}

func TestControl_BroadcastUnknownRoom(t *testing.T) {
	r, _ := newTestRouter("")
	w := doJSON(r, http.MethodPost, "/api/rooms/ghost/broadcast", `{"channel":"chat","payload":1}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp BroadcastResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Zero(t, resp.Recipients)
}

func TestControl_Presence(t *testing.T) {
	r, rooms := newTestRouter("")
	seedRoom(t, rooms, "r1")

	w := doJSON(r, http.MethodGet, "/api/rooms/r1/presence", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Users []core.PresenceDTO `json:"users"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Users, 2)
	ids := []string{string(resp.Users[0].ID), string(resp.Users[1].ID)}
	assert.ElementsMatch(t, []string{"u1", "u2"}, ids)
}

func TestControl_Stats(t *testing.T) {
	r, rooms := newTestRouter("")
	seedRoom(t, rooms, "r1")

	w := doJSON(r, http.MethodGet, "/api/rooms/r1/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats core.RoomStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, core.RoomStats{Connections: 2, OnlineUsers: 2, Channels: 1}, stats)
}

func TestControl_TokenGuard(t *testing.T) {
	r, rooms := newTestRouter("s3cret")
	seedRoom(t, rooms, "r1")

	w := doJSON(r, http.MethodGet, "/api/rooms/r1/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodGet, "/api/rooms/r1/stats", "", map[string]string{"X-Control-Token": "s3cret"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestControl_ListRooms(t *testing.T) {
	r, rooms := newTestRouter("")
	seedRoom(t, rooms, "r1")

	w := doJSON(r, http.MethodGet, "/api/rooms", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var infos []core.RoomInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, domain.RoomID("r1"), infos[0].ID)
	assert.Equal(t, 2, infos[0].Connections)
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter("")
	w := doJSON(r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
