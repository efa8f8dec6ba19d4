package obsws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Example values from the obs-websocket protocol documentation.
const (
	testPassword  = "supersecretpassword"
	testSalt      = "lM1GncleQOaCu9lT1yeUZhFYnqhsLLP1G5lAGo3ixaI="
	testChallenge = "+IxH4CnCiqpX1rM9scsNynZzbOe4KhDeYcTNS3PDaeY="
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// fakeReply describes how fakeOBS answers one request.
type fakeReply struct {
	noReply  bool
	noStatus bool
	fail     int // status code; non-zero means result false
	comment  string
	data     string // raw responseData
}

// fakeOBS is a minimal obs-websocket v5 server.
type fakeOBS struct {
	t        *testing.T
	srv      *httptest.Server
	password string

	writeMu sync.Mutex

	mu       sync.Mutex
	conns    []*websocket.Conn
	calls    map[string]int
	handlers map[string]func(data gjson.Result) fakeReply
	silent   int // connections left that stop reading after Identified

	quit     chan struct{}
	quitOnce sync.Once
}

func newFakeOBS(t *testing.T, password string) *fakeOBS {
	t.Helper()
	f := &fakeOBS{
		t:        t,
		password: password,
		calls:    make(map[string]int),
		handlers: make(map[string]func(gjson.Result) fakeReply),
		quit:     make(chan struct{}),
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.close)
	return f
}

func (f *fakeOBS) addr() string {
	return "ws" + strings.TrimPrefix(f.srv.URL, "http")
}

func (f *fakeOBS) on(requestType string, h func(data gjson.Result) fakeReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[requestType] = h
}

func (f *fakeOBS) callCount(requestType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[requestType]
}

func (f *fakeOBS) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := testUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	hello := []byte(`{"op":0,"d":{"obsWebSocketVersion":"5.5.0","rpcVersion":1}}`)
	if f.password != "" {
		hello, _ = sjson.SetBytes(hello, "d.authentication.challenge", testChallenge)
		hello, _ = sjson.SetBytes(hello, "d.authentication.salt", testSalt)
	}
	if f.send(conn, hello) != nil {
		return
	}

	_, msg, err := conn.ReadMessage()
	if err != nil {
		return
	}
	identify := gjson.ParseBytes(msg)
	if identify.Get("op").Int() != opIdentify {
		return
	}
	if f.password != "" && identify.Get("d.authentication").String() != authProof(f.password, testSalt, testChallenge) {
		f.writeMu.Lock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(closeAuthenticationFailed, "Authentication failed."),
			time.Now().Add(time.Second))
		f.writeMu.Unlock()
		return
	}

	f.mu.Lock()
	f.conns = append(f.conns, conn)
	f.mu.Unlock()
	if f.send(conn, []byte(`{"op":2,"d":{"negotiatedRpcVersion":1}}`)) != nil {
		return
	}

	// Without a reader, pings go unanswered, like a peer that vanished
	// without closing the socket.
	f.mu.Lock()
	silent := f.silent > 0
	if silent {
		f.silent--
	}
	f.mu.Unlock()
	if silent {
		<-f.quit
		return
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		req := gjson.ParseBytes(msg)
		if req.Get("op").Int() != opRequest {
			continue
		}
		f.answer(conn, req.Get("d"))
	}
}

func (f *fakeOBS) answer(conn *websocket.Conn, d gjson.Result) {
	requestType := d.Get("requestType").String()

	f.mu.Lock()
	f.calls[requestType]++
	h := f.handlers[requestType]
	f.mu.Unlock()

	var rep fakeReply
	if h != nil {
		rep = h(d.Get("requestData"))
	}
	if rep.noReply {
		return
	}

	out := []byte(`{"op":7,"d":{}}`)
	out, _ = sjson.SetBytes(out, "d.requestType", requestType)
	out, _ = sjson.SetBytes(out, "d.requestId", d.Get("requestId").String())
	if !rep.noStatus {
		code := StatusSuccess
		if rep.fail != 0 {
			code = rep.fail
		}
		out, _ = sjson.SetBytes(out, "d.requestStatus.result", rep.fail == 0)
		out, _ = sjson.SetBytes(out, "d.requestStatus.code", code)
		if rep.comment != "" {
			out, _ = sjson.SetBytes(out, "d.requestStatus.comment", rep.comment)
		}
	}
	if rep.data != "" {
		out, _ = sjson.SetRawBytes(out, "d.responseData", []byte(rep.data))
	}
	f.send(conn, out)
}

func (f *fakeOBS) send(conn *websocket.Conn, msg []byte) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, msg)
}

// broadcast writes a raw frame to every identified connection.
func (f *fakeOBS) broadcast(msg []byte) {
	f.mu.Lock()
	conns := append([]*websocket.Conn(nil), f.conns...)
	f.mu.Unlock()
	for _, c := range conns {
		f.send(c, msg)
	}
}

// push sends an event frame.
func (f *fakeOBS) push(eventType, data string) {
	out := []byte(`{"op":5,"d":{"eventIntent":4}}`)
	out, _ = sjson.SetBytes(out, "d.eventType", eventType)
	if data != "" {
		out, _ = sjson.SetRawBytes(out, "d.eventData", []byte(data))
	}
	f.broadcast(out)
}

// dropConnections closes every open connection without a close frame.
func (f *fakeOBS) dropConnections() {
	f.mu.Lock()
	conns := f.conns
	f.conns = nil
	f.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
}

// goSilent makes the next n connections stop reading once identified.
func (f *fakeOBS) goSilent(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.silent = n
}

func (f *fakeOBS) close() {
	f.quitOnce.Do(func() { close(f.quit) })
	f.srv.Close()
	f.dropConnections()
}
