package obsws

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Op codes of the obs-websocket v5 protocol.
const (
	opHello           = 0
	opIdentify        = 1
	opIdentified      = 2
	opEvent           = 5
	opRequest         = 6
	opRequestResponse = 7
)

// rpcVersion is the only RPC version this client speaks.
const rpcVersion = 1

// closeAuthenticationFailed is the close code sent by the server when the
// Identify proof is wrong.
const closeAuthenticationFailed = 4009

// EventSubscription is the bit mask sent in Identify.
type EventSubscription int

const (
	SubscribeGeneral      EventSubscription = 1 << 0
	SubscribeConfig       EventSubscription = 1 << 1
	SubscribeScenes       EventSubscription = 1 << 2
	SubscribeInputs       EventSubscription = 1 << 3
	SubscribeTransitions  EventSubscription = 1 << 4
	SubscribeFilters      EventSubscription = 1 << 5
	SubscribeOutputs      EventSubscription = 1 << 6
	SubscribeSceneItems   EventSubscription = 1 << 7
	SubscribeMediaInputs  EventSubscription = 1 << 8
	SubscribeVendors      EventSubscription = 1 << 9
	SubscribeUI           EventSubscription = 1 << 10
	SubscribeNone         EventSubscription = 0
	SubscribeAllLowVolume EventSubscription = 2047
)

// Request status codes referenced by the client.
const (
	StatusSuccess          = 100
	StatusResourceNotFound = 600
)

// authProof computes the Identify authentication string:
// base64(sha256(base64(sha256(password + salt)) + challenge)).
func authProof(password, salt, challenge string) string {
	secret := sha256.Sum256([]byte(password + salt))
	secretB64 := base64.StdEncoding.EncodeToString(secret[:])
	proof := sha256.Sum256([]byte(secretB64 + challenge))
	return base64.StdEncoding.EncodeToString(proof[:])
}

// Response is the reply to one request.
type Response struct {
	RequestType string
	RequestID   string
	Result      bool
	Code        int
	Comment     string

	// Data is the raw responseData object, or nil when the reply has none.
	Data json.RawMessage
}

// Get reads a field of the response data using gjson path syntax.
func (r *Response) Get(path string) gjson.Result {
	if r == nil || len(r.Data) == 0 {
		return gjson.Result{}
	}
	return gjson.GetBytes(r.Data, path)
}

// PushEvent is an unsolicited event frame (op 5).
type PushEvent struct {
	Type   string
	Intent int64
	Data   json.RawMessage
}

// Get reads a field of the event data using gjson path syntax.
func (e PushEvent) Get(path string) gjson.Result {
	if len(e.Data) == 0 {
		return gjson.Result{}
	}
	return gjson.GetBytes(e.Data, path)
}

// parseResponse decodes the d object of a RequestResponse frame. The
// requestStatus block is the canonical result; a reply without it is
// reported as a ShapeError.
func parseResponse(d gjson.Result) (*Response, error) {
	resp := &Response{
		RequestType: d.Get("requestType").String(),
		RequestID:   d.Get("requestId").String(),
	}
	if data := d.Get("responseData"); data.Exists() && data.IsObject() {
		resp.Data = json.RawMessage(data.Raw)
	}

	status := d.Get("requestStatus")
	result := status.Get("result")
	if !status.IsObject() || (result.Type != gjson.True && result.Type != gjson.False) {
		return resp, &ShapeError{RequestType: resp.RequestType, Field: "requestStatus.result"}
	}
	resp.Result = result.Bool()
	resp.Code = int(status.Get("code").Int())
	resp.Comment = status.Get("comment").String()
	return resp, nil
}

// frame builds an outgoing message by setting fields under "d".
type frame struct {
	b   []byte
	err error
}

func newFrame(op int) *frame {
	return &frame{b: []byte(`{"op":` + strconv.Itoa(op) + `,"d":{}}`)}
}

func (f *frame) set(path string, v any) *frame {
	if f.err == nil {
		f.b, f.err = sjson.SetBytes(f.b, "d."+path, v)
	}
	return f
}

func (f *frame) bytes() ([]byte, error) {
	return f.b, f.err
}
