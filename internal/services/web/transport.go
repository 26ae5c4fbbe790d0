package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"maps"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/louisbranch/scopeweb/internal/platform/errors"
	"github.com/louisbranch/scopeweb/internal/platform/i18n"
	"github.com/louisbranch/scopeweb/internal/platform/requestctx"
	"github.com/louisbranch/scopeweb/internal/platform/timeouts"
	"github.com/louisbranch/scopeweb/internal/services/web/session"
	"golang.org/x/net/websocket"
	"golang.org/x/text/message"
)

// wsClient is the server side of one browser connection. The live session
// is created by the hello frame and ends with the connection.
type wsClient struct {
	ctx       context.Context
	cancel    context.CancelFunc
	h         *handler
	peer      *wsPeer
	live      *session.Session
	stopLive  context.CancelFunc
	requestID string
}

func (h *handler) handleWSConn(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	ctx := context.Background()
	if request := conn.Request(); request != nil {
		tag, _ := i18n.ResolveTag(request)
		ctx = i18n.WithPrinter(request.Context(), message.NewPrinter(tag))
	}
	ctx, cancel := context.WithCancel(ctx)
	client := &wsClient{
		ctx:       ctx,
		cancel:    cancel,
		h:         h,
		peer:      newWSPeer(conn),
		requestID: requestctx.RequestIDFromContext(ctx),
	}
	defer client.close()

	decoder := json.NewDecoder(conn)
	windowStart := time.Now()
	framesInWindow := 0
	decodeErrors := 0

	for {
		var frame wsFrame
		if err := decoder.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return
			}
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if !errors.As(err, &syntaxErr) && !errors.As(err, &typeErr) {
				// Transport failure, not a malformed frame.
				return
			}
			decodeErrors++
			_ = writeWSError(client.peer, "", "INVALID_ARGUMENT", i18n.T(ctx, "error.frame.invalid"))
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			// The decoder cannot resync after a syntax error.
			decoder = json.NewDecoder(conn)
			continue
		}
		decodeErrors = 0

		if len(frame.Payload) > maxFramePayloadBytes {
			_ = writeWSError(client.peer, frame.RequestID, "INVALID_ARGUMENT", "payload too large")
			continue
		}

		now := time.Now()
		if now.Sub(windowStart) >= time.Second {
			windowStart = now
			framesInWindow = 0
		}
		framesInWindow++
		if framesInWindow > maxFramesPerSecond {
			_ = writeWSError(client.peer, frame.RequestID, "RESOURCE_EXHAUSTED", i18n.T(ctx, "error.rate_limited"))
			return
		}

		switch frame.Type {
		case frameHello:
			client.handleHello(frame)
		case frameInput:
			client.handleInput(frame)
		case frameBookmark:
			client.handleBookmark(frame)
		default:
			_ = writeWSError(client.peer, frame.RequestID, "INVALID_ARGUMENT", "unsupported frame type")
		}
	}
}

// discard stops a session that never finished attaching. The client stays
// without a live session so a later hello can start over.
func (c *wsClient) discard(live *session.Session, stop context.CancelFunc) {
	stop()
	select {
	case <-live.Done():
	case <-time.After(timeouts.Shutdown):
		c.h.logger.Printf("ws session did not stop session_id=%s request_id=%s", live.ID(), c.requestID)
	}
}

// close stops the live session and waits for its loop so ended callbacks
// have run before the connection is released.
func (c *wsClient) close() {
	c.cancel()
	if c.live == nil {
		return
	}
	c.stopLive()
	select {
	case <-c.live.Done():
	case <-time.After(timeouts.Shutdown):
		c.h.logger.Printf("ws session did not stop session_id=%s request_id=%s", c.live.ID(), c.requestID)
	}
}

func (c *wsClient) handleHello(frame wsFrame) {
	if c.live != nil {
		_ = writeWSError(c.peer, frame.RequestID, "ALREADY_EXISTS", "session already started")
		return
	}
	var payload helloPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(c.peer, frame.RequestID, "INVALID_ARGUMENT", "invalid hello payload")
		return
	}

	values := make(map[string]any, len(payload.Inputs))
	inputNames := make([]string, 0, len(payload.Inputs))
	for _, input := range payload.Inputs {
		name := strings.TrimSpace(input.Name)
		if name == "" {
			continue
		}
		values[name] = input.Value
		inputNames = append(inputNames, name)
	}

	if stateID := strings.TrimSpace(payload.StateID); stateID != "" {
		restored, err := c.loadBookmark(stateID)
		if err != nil {
			_ = writeAppError(c.ctx, c.peer, frame.RequestID, err)
		} else {
			maps.Copy(values, restored)
			_ = c.peer.writeFrame(wsFrame{
				Type:      frameRestore,
				RequestID: frame.RequestID,
				Payload:   mustJSON(restorePayload{Values: restored}),
			})
		}
	}

	live := session.New(session.Options{
		ID:        uuid.NewString(),
		QueueSize: c.h.sessionQueue,
		Sink:      c.peer,
		Logger:    c.h.logger,
	})
	liveCtx, stopLive := context.WithCancel(c.ctx)
	go func() {
		if err := live.Run(liveCtx); err != nil {
			c.h.logger.Printf("ws session stopped session_id=%s request_id=%s err=%v", live.ID(), c.requestID, err)
		}
	}()

	ctx, cancel := context.WithTimeout(c.ctx, timeouts.Attach)
	defer cancel()
	if err := live.Restore(ctx, values); err != nil {
		c.discard(live, stopLive)
		_ = writeAppError(c.ctx, c.peer, frame.RequestID, err)
		return
	}
	if err := c.h.app.Attach(ctx, live); err != nil {
		c.h.logger.Printf("ws attach failed session_id=%s request_id=%s err=%v", live.ID(), c.requestID, err)
		c.discard(live, stopLive)
		_ = writeAppError(c.ctx, c.peer, frame.RequestID, err)
		return
	}
	c.live = live
	c.stopLive = stopLive

	mismatches, err := live.Check(ctx, session.Placeholders{Inputs: inputNames, Outputs: payload.Outputs})
	if err != nil {
		_ = writeAppError(c.ctx, c.peer, frame.RequestID, err)
		return
	}
	for _, mismatch := range mismatches {
		c.h.logger.Printf("ws placeholder mismatch session_id=%s request_id=%s kind=%s name=%s suggestion=%s",
			live.ID(), c.requestID, mismatch.Kind, mismatch.Name, mismatch.Suggestion)
		_ = c.peer.writeFrame(wsFrame{
			Type:      frameDiagnostic,
			RequestID: frame.RequestID,
			Payload:   mustJSON(diagnosticMessage(c.ctx, mismatch)),
		})
	}
}

func diagnosticMessage(ctx context.Context, mismatch session.Mismatch) diagnosticPayload {
	text := i18n.T(ctx, "error.diagnostic."+string(mismatch.Kind), mismatch.Name)
	if mismatch.Suggestion != "" {
		text += " " + i18n.T(ctx, "error.diagnostic.suggestion", mismatch.Suggestion)
	}
	return diagnosticPayload{
		Kind:       string(mismatch.Kind),
		Name:       mismatch.Name,
		Suggestion: mismatch.Suggestion,
		Message:    text,
	}
}

func (c *wsClient) handleInput(frame wsFrame) {
	if c.live == nil {
		_ = writeWSError(c.peer, frame.RequestID, "FAILED_PRECONDITION", "hello is required before input")
		return
	}
	var payload inputPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(c.peer, frame.RequestID, "INVALID_ARGUMENT", "invalid input payload")
		return
	}
	ctx, cancel := context.WithTimeout(c.ctx, timeouts.Dispatch)
	defer cancel()
	err := c.live.Dispatch(ctx, session.InputEvent{Name: strings.TrimSpace(payload.Name), Value: payload.Value})
	if err != nil {
		_ = writeAppError(c.ctx, c.peer, frame.RequestID, err)
	}
}

func (c *wsClient) handleBookmark(frame wsFrame) {
	if c.live == nil {
		_ = writeWSError(c.peer, frame.RequestID, "FAILED_PRECONDITION", "hello is required before bookmark")
		return
	}
	if c.h.bookmarks == nil {
		_ = writeWSError(c.peer, frame.RequestID, "UNAVAILABLE", "bookmarks are not configured")
		return
	}
	ctx, cancel := context.WithTimeout(c.ctx, timeouts.Storage)
	defer cancel()
	values, err := c.live.Snapshot(ctx)
	if err != nil {
		_ = writeAppError(c.ctx, c.peer, frame.RequestID, err)
		return
	}
	saved, err := c.h.bookmarks.SaveBookmark(ctx, values)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindUnknown {
			c.h.logger.Printf("ws bookmark save failed session_id=%s request_id=%s err=%v", c.live.ID(), c.requestID, err)
		}
		_ = writeAppError(c.ctx, c.peer, frame.RequestID, err)
		return
	}
	_ = c.peer.writeFrame(wsFrame{
		Type:      frameBookmarked,
		RequestID: frame.RequestID,
		Payload:   mustJSON(bookmarkedPayload{ID: saved.ID, URL: c.h.bookmarkURL(saved.ID)}),
	})
}

func (c *wsClient) loadBookmark(id string) (map[string]any, error) {
	if c.h.bookmarks == nil {
		return nil, apperrors.E(apperrors.KindUnavailable, "bookmarks are not configured")
	}
	ctx, cancel := context.WithTimeout(c.ctx, timeouts.Storage)
	defer cancel()
	bookmark, err := c.h.bookmarks.GetBookmark(ctx, id)
	if err != nil {
		return nil, err
	}
	return bookmark.Values, nil
}

// bookmarkURL links to the page restored from id. Without a public base
// URL the link is relative.
func (h *handler) bookmarkURL(id string) string {
	query := url.Values{stateParam: {id}}.Encode()
	base := strings.TrimRight(h.publicBaseURL, "/")
	return base + "/?" + query
}
