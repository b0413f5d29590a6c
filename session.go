package zvt

import (
	"context"
	"fmt"
	"time"

	"github.com/holzweg/zvt/apdu"
	"github.com/holzweg/zvt/internal/observability"
	"github.com/holzweg/zvt/link"
)

// notSupportedCode is the APRC of a negative acknowledgement meaning the
// terminal does not implement the command.
const notSupportedCode = 0x83

// session correlates one in-flight command with its terminating package.
// done carries the terminal outcome; activity re-arms the completion timer.
type session struct {
	done     chan Result
	activity chan struct{}
}

func newSession() *session {
	return &session{
		done:     make(chan Result, 1),
		activity: make(chan struct{}, 1),
	}
}

func (s *session) resolve(r Result) {
	select {
	case s.done <- r:
	default:
	}
}

func (s *session) touch() {
	select {
	case s.activity <- struct{}{}:
	default:
	}
}

func (c *Client) attachSession(s *session) {
	c.sessMu.Lock()
	c.sess = s
	c.sessMu.Unlock()
}

func (c *Client) detachSession() {
	c.sessMu.Lock()
	c.sess = nil
	c.sessMu.Unlock()
}

func (c *Client) currentSession() *session {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()
	return c.sess
}

func (c *Client) resolveSession(r Result) {
	if s := c.currentSession(); s != nil {
		s.resolve(r)
	} else {
		c.log.Debug().Str("state", r.State.String()).Msg("terminating package without session")
	}
}

func (c *Client) touchSession() {
	if s := c.currentSession(); s != nil {
		s.touch()
	}
}

// sendCommand runs the full command lifecycle: encode, send, await
// acknowledgement, then await the terminating package unless the command
// ends after the acknowledgement.
func (c *Client) sendCommand(ctx context.Context, pkg apdu.Package, endAfterAck bool) (Result, error) {
	start := time.Now()
	res, err := c.runCommand(ctx, pkg, endAfterAck)
	observability.RecordCommand(pkg.Control.String(), res.State.String(), time.Since(start))
	ev := c.log.Debug()
	if err != nil {
		ev = c.log.Warn().Err(err)
	}
	ev.Str("control_field", pkg.Control.String()).
		Str("state", res.State.String()).
		Dur("took", time.Since(start)).
		Msg("command finished")
	return res, err
}

func (c *Client) runCommand(ctx context.Context, pkg apdu.Package, endAfterAck bool) (Result, error) {
	if c.closed.Load() {
		return Result{State: StateError, Message: "Closed"}, ErrClientClosed
	}
	if !c.inflight.CompareAndSwap(false, true) {
		return Result{State: StateError, Message: "Busy"}, ErrBusy
	}
	defer c.inflight.Store(false)

	raw, err := pkg.Encode()
	if err != nil {
		return Result{State: StateError, Message: err.Error()}, err
	}

	sess := newSession()
	c.attachSession(sess)
	defer c.detachSession()

	sendRes, err := c.link.Send(ctx, raw)
	if err != nil {
		if ctx.Err() != nil {
			return Result{State: StateError, Message: "Cancelled"}, err
		}
		return Result{State: StateError, Message: err.Error()}, err
	}
	switch sendRes.Outcome {
	case link.AcknowledgeReceived:
	case link.NegativeAcknowledge:
		if sendRes.Code == notSupportedCode {
			return Result{State: StateNotSupported, Message: "command not supported"}, nil
		}
		return Result{
			State:   StateError,
			Message: fmt.Sprintf("%s (0x%02X)", sendRes.Outcome, sendRes.Code),
		}, nil
	default:
		return Result{State: StateError, Message: sendRes.Outcome.String()}, nil
	}

	if endAfterAck {
		return Result{State: StateSuccessful}, nil
	}

	timer := time.NewTimer(c.cfg.CompletionTimeout)
	defer timer.Stop()
	for {
		select {
		case r := <-sess.done:
			return r, nil
		case <-sess.activity:
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(c.cfg.CompletionTimeout)
		case <-ctx.Done():
			// No wire-level abort is sent here; callers decide whether
			// to follow up with Abort.
			return Result{State: StateError, Message: "Cancelled"}, ctx.Err()
		case <-timer.C:
			return Result{State: StateTimeout, Message: "no completion before timeout"}, nil
		}
	}
}
