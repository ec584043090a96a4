package render

import (
	"context"
	"errors"
	"io"
	"net/http"
)

// WriteStream copies s to w chunk by chunk. If w implements http.Flusher
// it is flushed after every chunk so the client sees each one as soon as
// it is produced. The stream is closed when WriteStream returns.
//
// A failed write is returned as a *WriteError; the caller should log it
// and stop, since the client has usually gone away.
func WriteStream(ctx context.Context, w io.Writer, s *Stream) error {
	defer s.Close()

	flusher, _ := w.(http.Flusher)
	var written int64
	for {
		c, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		n, err := io.WriteString(w, c.HTML)
		written += int64(n)
		s.cfg.metrics.wrote(n, err)
		if err != nil {
			s.cfg.logger.Info("stream write failed", "error", err, "written", written)
			return &WriteError{Err: err, Written: written}
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}
