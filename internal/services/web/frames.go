package web

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	apperrors "github.com/louisbranch/scopeweb/internal/platform/errors"
	"github.com/louisbranch/scopeweb/internal/platform/i18n"
	"github.com/louisbranch/scopeweb/internal/platform/timeouts"
	"github.com/louisbranch/scopeweb/internal/services/web/session"
	"golang.org/x/net/websocket"
)

const (
	maxFramePayloadBytes   = 16 * 1024
	maxFramesPerSecond     = 40
	maxDecodeErrorsPerConn = 3
)

// Frame types exchanged over /ws.
const (
	frameHello      = "hello"
	frameInput      = "input"
	frameBookmark   = "bookmark"
	frameOutput     = "output"
	frameRestore    = "restore"
	frameBookmarked = "bookmarked"
	frameDiagnostic = "diagnostic"
	frameError      = "error"
)

type wsFrame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type inputPayload struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type helloPayload struct {
	StateID string         `json:"state_id"`
	Inputs  []inputPayload `json:"inputs"`
	Outputs []string       `json:"outputs"`
}

type outputPayload struct {
	Name string `json:"name"`
	HTML string `json:"html"`
}

type restorePayload struct {
	Values map[string]any `json:"values"`
}

type bookmarkedPayload struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type diagnosticPayload struct {
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	Suggestion string `json:"suggestion,omitempty"`
	Message    string `json:"message"`
}

type wsErrorEnvelope struct {
	Error wsError `json:"error"`
}

type wsError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// wsPeer serializes writes to one connection. The session loop and the
// read loop both write to it.
type wsPeer struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	encoder *json.Encoder
}

func newWSPeer(conn *websocket.Conn) *wsPeer {
	return &wsPeer{conn: conn, encoder: json.NewEncoder(conn)}
}

func (p *wsPeer) writeFrame(frame wsFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		_ = p.conn.SetWriteDeadline(time.Now().Add(timeouts.SocketWrite))
	}
	return p.encoder.Encode(frame)
}

// SendOutput implements session.Sink.
func (p *wsPeer) SendOutput(_ context.Context, msg session.OutputMessage) error {
	return p.writeFrame(wsFrame{
		Type:    frameOutput,
		Payload: mustJSON(outputPayload{Name: msg.Name, HTML: msg.HTML}),
	})
}

func writeWSError(peer *wsPeer, requestID string, code string, message string) error {
	if peer == nil {
		return nil
	}
	return peer.writeFrame(wsFrame{
		Type:      frameError,
		RequestID: requestID,
		Payload:   mustJSON(wsErrorEnvelope{Error: wsError{Code: code, Message: message}}),
	})
}

// writeAppError reports err with the code of its kind and a localized
// message when the error carries a key.
func writeAppError(ctx context.Context, peer *wsPeer, requestID string, err error) error {
	code := errorCode(err)
	message := err.Error()
	if key := apperrors.LocalizationKey(err); key != "" {
		message = i18n.T(ctx, key)
	}
	if code == "INTERNAL" {
		message = i18n.T(ctx, "error.internal")
	}
	return writeWSError(peer, requestID, code, message)
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "DEADLINE_EXCEEDED"
	case errors.Is(err, session.ErrClosed):
		return "UNAVAILABLE"
	case errors.Is(err, session.ErrDuplicateScope):
		return "ALREADY_EXISTS"
	}
	switch apperrors.KindOf(err) {
	case apperrors.KindInvalidInput:
		return "INVALID_ARGUMENT"
	case apperrors.KindNotFound:
		return "NOT_FOUND"
	case apperrors.KindConflict:
		return "ALREADY_EXISTS"
	case apperrors.KindUnavailable:
		return "UNAVAILABLE"
	default:
		return "INTERNAL"
	}
}

func mustJSON(value any) json.RawMessage {
	data, err := json.Marshal(value)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return data
}
