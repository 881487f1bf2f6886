package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aktsk/ff7-medit/pkg/dispatch"
	"github.com/aktsk/ff7-medit/pkg/errs"
)

type echoArgs struct {
	Text string `json:"text"`
}

func testServer(t *testing.T, running bool) *httptest.Server {
	reg := dispatch.NewRegistry()
	reg.Register(dispatch.CmdIsRunning, dispatch.Handle(func(context.Context, dispatch.None) (bool, error) {
		return running, nil
	}))
	reg.Register("echo", dispatch.Handle(func(_ context.Context, a echoArgs) (string, error) {
		return a.Text, nil
	}))
	reg.Register("fail", dispatch.Handle(func(context.Context, dispatch.None) (any, error) {
		return nil, errs.New(errs.KindProcessGone, "read", "ff7_en.exe[1997] is no longer running")
	}))
	ts := httptest.NewServer(New(reg).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, req string) map[string]json.RawMessage {
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(req)))
	var resp map[string]json.RawMessage
	require.NoError(t, conn.ReadJSON(&resp))
	return resp
}

func TestInvokeOverWebSocket(t *testing.T) {
	conn := dial(t, testServer(t, true))

	resp := roundTrip(t, conn, `{"id":1,"command":"echo","args":{"text":"Sephiroth"}}`)
	assert.JSONEq(t, `1`, string(resp["id"]))
	assert.JSONEq(t, `"Sephiroth"`, string(resp["result"]))
	assert.NotContains(t, resp, "error")

	resp = roundTrip(t, conn, `{"id":"b","command":"is-running"}`)
	assert.JSONEq(t, `"b"`, string(resp["id"]))
	assert.JSONEq(t, `true`, string(resp["result"]))
}

func TestErrorsOverWebSocket(t *testing.T) {
	conn := dial(t, testServer(t, false))

	resp := roundTrip(t, conn, `{"id":2,"command":"fail"}`)
	assert.JSONEq(t, `{"kind":"ProcessGone","message":"read: ProcessGone: ff7_en.exe[1997] is no longer running"}`, string(resp["error"]))
	assert.NotContains(t, resp, "result")

	resp = roundTrip(t, conn, `{"id":3,"command":"limit-break"}`)
	assert.JSONEq(t, `"UnknownCommand"`, string(mustObject(t, resp["error"])["kind"]))

	resp = roundTrip(t, conn, `{"id":4,"command":"echo","args":{"txt":1}}`)
	assert.JSONEq(t, `"BadArguments"`, string(mustObject(t, resp["error"])["kind"]))

	resp = roundTrip(t, conn, `not json`)
	assert.JSONEq(t, `"BadRequest"`, string(mustObject(t, resp["error"])["kind"]))

	resp = roundTrip(t, conn, `{"id":5,"command":"is-running"}`)
	assert.JSONEq(t, `false`, string(resp["result"]))
}

func mustObject(t *testing.T, raw json.RawMessage) map[string]json.RawMessage {
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestHealth(t *testing.T) {
	ts := testServer(t, true)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, map[string]bool{"running": true}, body)
}

func TestAllowOrigins(t *testing.T) {
	reg := dispatch.NewRegistry()
	check := WithOriginCheck(AllowOrigins([]string{"http://localhost:3000/"}))
	ts := httptest.NewServer(New(reg, check).Handler())
	t.Cleanup(ts.Close)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://localhost:3000"}})
	require.NoError(t, err)
	conn.Close()

	conn, _, err = websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	conn.Close()

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://midgar.example"}})
	assert.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
