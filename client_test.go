package zvt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/holzweg/zvt/internal/testutil/testlog"
	"github.com/holzweg/zvt/link"
)

// fakeChannel scripts the link layer: it records sent packages, answers
// with a fixed SendResult and plays terminal replies through the handler.
type fakeChannel struct {
	mu      sync.Mutex
	handler func([]byte)
	sent    [][]byte

	result link.SendResult
	err    error
	// replies are delivered through the handler inside Send, after the
	// package is recorded. asyncReplies arrive on their own timers.
	replies      [][]byte
	asyncReplies []asyncReply

	entered chan struct{}
	block   chan struct{}
}

type asyncReply struct {
	after time.Duration
	pkg   []byte
}

func (f *fakeChannel) Send(_ context.Context, pkg []byte) (link.SendResult, error) {
	f.mu.Lock()
	f.sent = append(f.sent, append([]byte(nil), pkg...))
	h := f.handler
	f.mu.Unlock()

	if f.entered != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
	}
	if f.block != nil {
		<-f.block
	}
	if h != nil {
		for _, reply := range f.replies {
			h(reply)
		}
		for _, ar := range f.asyncReplies {
			ar := ar
			time.AfterFunc(ar.after, func() { h(ar.pkg) })
		}
	}
	return f.result, f.err
}

func (f *fakeChannel) SetHandler(fn func(pkg []byte)) {
	f.mu.Lock()
	f.handler = fn
	f.mu.Unlock()
}

func (f *fakeChannel) Close() error { return nil }

// deliver plays an unsolicited terminal package through the handler.
func (f *fakeChannel) deliver(t *testing.T, pkg []byte) {
	t.Helper()
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h == nil {
		t.Fatalf("no handler registered")
	}
	h(pkg)
}

func (f *fakeChannel) lastSent(t *testing.T) []byte {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatalf("nothing sent")
	}
	return f.sent[len(f.sent)-1]
}

var completionPkg = []byte{0x06, 0x0F, 0x00}

func newTestClient(t *testing.T, fake *fakeChannel, cfg Config) *Client {
	t.Helper()
	testlog.Start(t)
	if cfg.CompletionTimeout == 0 {
		cfg.CompletionTimeout = time.Second
	}
	c, err := NewClient(fake, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNewClientRejectsOversizedPassword(t *testing.T) {
	_, err := NewClient(&fakeChannel{}, Config{Password: 1_000_000}, zerolog.Nop())
	if !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestCommandResolvesOnCompletion(t *testing.T) {
	fake := &fakeChannel{replies: [][]byte{completionPkg}}
	c := newTestClient(t, fake, Config{})

	res, err := c.EndOfDay(context.Background())
	if err != nil {
		t.Fatalf("end of day: %v", err)
	}
	if res.State != StateSuccessful {
		t.Fatalf("expected Successful, got %s (%s)", res.State, res.Message)
	}
}

func TestCommandResolvesOnAbort(t *testing.T) {
	fake := &fakeChannel{replies: [][]byte{{0x06, 0x1E, 0x01, 0x6C}}}
	c := newTestClient(t, fake, Config{})

	res, err := c.Payment(context.Background(), amount(t, "10.00"))
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if res.State != StateAbort {
		t.Fatalf("expected Abort, got %s", res.State)
	}
	if res.Message != "Card not readable" {
		t.Fatalf("unexpected abort message: %q", res.Message)
	}
}

func TestNegativeAckNotSupported(t *testing.T) {
	fake := &fakeChannel{result: link.SendResult{Outcome: link.NegativeAcknowledge, Code: 0x83}}
	c := newTestClient(t, fake, Config{})

	res, err := c.SoftwareUpdate(context.Background())
	if err != nil {
		t.Fatalf("software update: %v", err)
	}
	if res.State != StateNotSupported {
		t.Fatalf("expected NotSupported, got %s (%s)", res.State, res.Message)
	}
}

func TestNegativeAckOtherCodeIsError(t *testing.T) {
	fake := &fakeChannel{result: link.SendResult{Outcome: link.NegativeAcknowledge, Code: 0x9C}}
	c := newTestClient(t, fake, Config{})

	res, err := c.Diagnosis(context.Background())
	if err != nil {
		t.Fatalf("diagnosis: %v", err)
	}
	if res.State != StateError {
		t.Fatalf("expected Error, got %s", res.State)
	}
}

func TestSecondCommandWhileInFlightIsBusy(t *testing.T) {
	fake := &fakeChannel{
		replies: [][]byte{completionPkg},
		entered: make(chan struct{}, 1),
		block:   make(chan struct{}),
	}
	c := newTestClient(t, fake, Config{})

	first := make(chan Result, 1)
	go func() {
		res, _ := c.EndOfDay(context.Background())
		first <- res
	}()
	<-fake.entered

	_, err := c.Diagnosis(context.Background())
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	close(fake.block)
	if res := <-first; res.State != StateSuccessful {
		t.Fatalf("first command should still complete, got %s", res.State)
	}
}

func TestCompletionTimeout(t *testing.T) {
	fake := &fakeChannel{}
	c := newTestClient(t, fake, Config{CompletionTimeout: 50 * time.Millisecond})

	res, err := c.EndOfDay(context.Background())
	if err != nil {
		t.Fatalf("end of day: %v", err)
	}
	if res.State != StateTimeout {
		t.Fatalf("expected Timeout, got %s (%s)", res.State, res.Message)
	}
}

func TestInboundActivityReArmsCompletionTimer(t *testing.T) {
	// Completion arrives after the raw timeout would have fired, but an
	// intermediate status in between keeps the session alive.
	fake := &fakeChannel{asyncReplies: []asyncReply{
		{after: 120 * time.Millisecond, pkg: []byte{0x04, 0xFF, 0x01, 0x0A}},
		{after: 250 * time.Millisecond, pkg: completionPkg},
	}}
	c := newTestClient(t, fake, Config{CompletionTimeout: 200 * time.Millisecond})

	res, err := c.EndOfDay(context.Background())
	if err != nil {
		t.Fatalf("end of day: %v", err)
	}
	if res.State != StateSuccessful {
		t.Fatalf("expected Successful after re-armed timer, got %s (%s)", res.State, res.Message)
	}
}

func TestContextCancellationReportsCancelled(t *testing.T) {
	fake := &fakeChannel{}
	c := newTestClient(t, fake, Config{CompletionTimeout: 10 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	res, err := c.EndOfDay(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if res.State != StateError || res.Message != "Cancelled" {
		t.Fatalf("expected Cancelled error result, got %s (%s)", res.State, res.Message)
	}
}

func TestCommandAfterCloseFails(t *testing.T) {
	fake := &fakeChannel{}
	c := newTestClient(t, fake, Config{})
	c.Close()

	_, err := c.EndOfDay(context.Background())
	if !errors.Is(err, ErrClientClosed) {
		t.Fatalf("expected ErrClientClosed, got %v", err)
	}
}

func TestLogOffCompletesOnAcknowledgement(t *testing.T) {
	fake := &fakeChannel{}
	c := newTestClient(t, fake, Config{})

	res, err := c.LogOff(context.Background())
	if err != nil {
		t.Fatalf("logoff: %v", err)
	}
	if res.State != StateSuccessful {
		t.Fatalf("expected Successful, got %s", res.State)
	}
	if got := fake.lastSent(t); string(got) != string([]byte{0x06, 0x02, 0x00}) {
		t.Fatalf("unexpected logoff package: % X", got)
	}
}

func TestUnsolicitedPrintLine(t *testing.T) {
	fake := &fakeChannel{}
	c := newTestClient(t, fake, Config{})

	lines := make(chan PrintLine, 1)
	c.OnPrintLine(func(l PrintLine) { lines <- l })

	fake.deliver(t, []byte{0x06, 0xD1, 0x05, 0x81, 0x48, 0x65, 0x6C, 0x6C})

	select {
	case l := <-lines:
		if l.Text != "Hell" || !l.LastLine || l.Attribute != 0x81 {
			t.Fatalf("unexpected print line: %+v", l)
		}
	default:
		t.Fatalf("print line not emitted")
	}
}

func TestReceiptFromPrintTextBlock(t *testing.T) {
	fake := &fakeChannel{}
	c := newTestClient(t, fake, Config{})

	receipts := make(chan Receipt, 1)
	c.OnReceipt(func(r Receipt) { receipts <- r })

	// Type 01, two tag-07 lines inside a tag-25 container.
	fake.deliver(t, []byte{
		0x06, 0xD3, 0x0B,
		0x01,
		0x25, 0x08,
		0x07, 0x02, 0x48, 0x69,
		0x07, 0x02, 0x21, 0x21,
	})

	select {
	case r := <-receipts:
		if r.Type != 0x01 || len(r.Lines) != 2 || r.Lines[0] != "Hi" || r.Lines[1] != "!!" {
			t.Fatalf("unexpected receipt: %+v", r)
		}
	default:
		t.Fatalf("receipt not emitted")
	}
}

func TestIntermediateStatusUsesCatalog(t *testing.T) {
	fake := &fakeChannel{}
	c := newTestClient(t, fake, Config{})

	statuses := make(chan IntermediateStatus, 1)
	c.OnIntermediateStatus(func(s IntermediateStatus) { statuses <- s })

	fake.deliver(t, []byte{0x04, 0xFF, 0x01, 0x0A})

	select {
	case s := <-statuses:
		if s.Code != 0x0A || s.Message != "insert card" {
			t.Fatalf("unexpected status: %+v", s)
		}
	default:
		t.Fatalf("intermediate status not emitted")
	}
}

func TestIntermediateStatusTextOverridesCatalog(t *testing.T) {
	fake := &fakeChannel{}
	c := newTestClient(t, fake, Config{})

	statuses := make(chan IntermediateStatus, 1)
	c.OnIntermediateStatus(func(s IntermediateStatus) { statuses <- s })

	fake.deliver(t, []byte{0x04, 0xFF, 0x06, 0x0A, 0x07, 0x03, 0x41, 0x42, 0x43})

	select {
	case s := <-statuses:
		if s.Message != "ABC" {
			t.Fatalf("TLV text must override the catalog, got %q", s.Message)
		}
	default:
		t.Fatalf("intermediate status not emitted")
	}
}

func TestCompletionWithEmbeddedStatus(t *testing.T) {
	fake := &fakeChannel{replies: [][]byte{{0x06, 0x0F, 0x02, 0x27, 0x00}}}
	c := newTestClient(t, fake, Config{})

	statuses := make(chan StatusInformation, 1)
	c.OnStatusInformation(func(si StatusInformation) { statuses <- si })

	res, err := c.Payment(context.Background(), amount(t, "1.00"))
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if res.State != StateSuccessful {
		t.Fatalf("expected Successful, got %s", res.State)
	}
	select {
	case si := <-statuses:
		if !si.Approved() {
			t.Fatalf("embedded status must be approved: %+v", si)
		}
	default:
		t.Fatalf("embedded status must reach subscribers before the command returns")
	}
}

func TestHandlerRemovalIsIdempotent(t *testing.T) {
	fake := &fakeChannel{}
	c := newTestClient(t, fake, Config{})

	var got int
	remove := c.OnPrintLine(func(PrintLine) { got++ })
	remove()
	remove()

	fake.deliver(t, []byte{0x06, 0xD1, 0x03, 0x00, 0x48, 0x69})
	if got != 0 {
		t.Fatalf("removed handler must not fire")
	}
}
