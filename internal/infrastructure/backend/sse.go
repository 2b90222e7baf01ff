package backend

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/usermgmt/account-console/internal/core/ports"
)

// Subscribe opens the admin event stream and returns a subscription
// delivering the named signals the server emits. The connection lives until
// Close (or the parent context) cancels it; there is no automatic
// reconnect.
func (g *Gateway) Subscribe(ctx context.Context, token string) (ports.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/api/admin/events", nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.stream.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		cancel()
		return nil, &APIError{
			Status:  resp.StatusCode,
			Message: messageFrom(resp.StatusCode, resp.Header.Get("Content-Type"), raw),
		}
	}

	s := &subscription{
		cancel:  cancel,
		body:    resp.Body,
		signals: make(chan string, 8),
	}
	go s.read(g.log)
	return s, nil
}

// subscription implements ports.Subscription over a text/event-stream body.
type subscription struct {
	cancel  context.CancelFunc
	body    io.ReadCloser
	signals chan string
	once    sync.Once
}

func (s *subscription) Signals() <-chan string { return s.signals }

// Close cancels the stream request. The Signals channel closes once the
// reader drains out.
func (s *subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// read parses event frames: an "event:" line names the next signal and a
// blank line dispatches it. Data and comment lines carry nothing the
// consumers care about — the signal name is the whole payload contract.
func (s *subscription) read(log zerolog.Logger) {
	defer close(s.signals)
	defer s.body.Close()

	sc := bufio.NewScanner(s.body)
	event := ""
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case line == "":
			if event != "" {
				select {
				case s.signals <- event:
				default:
					// Consumer is behind; dropping is safe because every
					// signal means the same thing: refetch.
				}
				event = ""
			}
		}
	}
	if err := sc.Err(); err != nil {
		log.Debug().Err(err).Msg("event stream closed")
	}
}
