package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sourcegraph/conc"
	"github.com/vango-dev/spanrender/pkg/html"
	"github.com/vango-dev/spanrender/pkg/protocol"
	"github.com/vango-dev/spanrender/pkg/render"
)

// StreamPathPrefix is where the chunk transport is mounted. The rest of
// the path, plus the query, names the page to stream:
//
//	GET /_hs/stream/blog/42?tab=comments  streams  GET /blog/42?tab=comments
const StreamPathPrefix = "/_hs/stream"

const writeWait = 10 * time.Second

// handleStream sends a page as binary protocol frames over a WebSocket.
// Every chunk is one message, followed by an end frame, or an error frame
// if the page could not be produced. The client closing the connection
// cancels the render.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	target := "/" + chi.URLParam(r, "*")
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered with an HTTP error.
		s.logger.Info("stream upgrade failed", "path", target, "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	var wg conc.WaitGroup
	defer wg.Wait()
	defer conn.Close()

	// Frames only flow to the client; reading is just for noticing close.
	wg.Go(func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	})

	if err := s.streamPage(ctx, conn, r, target); err != nil {
		s.logger.Info("stream ended early", "path", target, "error", err)
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

func (s *Server) streamPage(ctx context.Context, conn *websocket.Conn, r *http.Request, target string) error {
	t, err := s.resolveTemplate(ctx, r, target)
	if err != nil {
		return s.sendError(conn, err)
	}

	stream := render.RenderStream(ctx, t, s.streamOptions()...)
	defer stream.Close()

	for c, err := range stream.All(ctx) {
		if err != nil {
			return s.sendError(conn, err)
		}
		frame, err := protocol.EncodeChunk(c)
		if err != nil {
			return s.sendError(conn, err)
		}
		if err := s.send(conn, frame); err != nil {
			return err
		}
	}
	return s.send(conn, protocol.EncodeEnd())
}

// resolveTemplate runs the page's GET handler and converts its result to a
// template.
func (s *Server) resolveTemplate(ctx context.Context, r *http.Request, target string) (*html.Template, error) {
	result, err := s.resolve(ctx, r, target)
	if err != nil {
		return nil, err
	}
	switch v := result.(type) {
	case *html.Template:
		return v, nil
	case html.RawHTML:
		return html.HTML("%v", v), nil
	case string:
		return html.HTML("%v", html.Raw(v)), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedResult, result)
	}
}

// sendError reports err to the client with an error frame. The message is
// generic unless the server runs in debug mode.
func (s *Server) sendError(conn *websocket.Conn, err error) error {
	status := StatusOf(err)
	msg := messageOf(err, status)
	if s.config.DebugMode {
		msg = describe(err)
	}
	if status >= 500 && !errors.Is(err, context.Canceled) {
		s.logger.Error("stream failed", "error", err)
	}
	if werr := s.send(conn, protocol.EncodeError(msg)); werr != nil {
		return werr
	}
	return err
}

func (s *Server) send(conn *websocket.Conn, frame []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.BinaryMessage, frame)
}

// streamOptions are the render options for the chunk transport. The
// client already runs the reconciler, so no script tag is emitted.
func (s *Server) streamOptions() []render.Option {
	return append(s.renderOptions(), render.WithClientScript(""))
}
