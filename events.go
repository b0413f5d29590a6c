package zvt

import "sync"

// IntermediateStatus is a 04 FF notification: a status code with its
// localized message.
type IntermediateStatus struct {
	Code    byte
	Message string
}

// PrintLine is one 06 D1 text line for the ECR printer.
type PrintLine struct {
	Text      string
	Attribute byte
	LastLine  bool
}

// Receipt is a 06 D3 print-text block.
type Receipt struct {
	Type  byte
	Lines []string
}

// handlerList is an explicit observer registry. Registration returns a
// removal func; removal is idempotent. Handlers run on the link reader
// goroutine and must not block.
type handlerList[T any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(T)
}

func (l *handlerList[T]) add(fn func(T)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func(T))
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.fns, id)
	}
}

func (l *handlerList[T]) emit(v T) {
	l.mu.Lock()
	fns := make([]func(T), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}

// OnStatusInformation registers for transaction status records, solicited
// or not. The returned func removes the handler.
func (c *Client) OnStatusInformation(fn func(StatusInformation)) func() {
	return c.statusHandlers.add(fn)
}

// OnIntermediateStatus registers for localized intermediate status messages.
func (c *Client) OnIntermediateStatus(fn func(IntermediateStatus)) func() {
	return c.intermediateHandlers.add(fn)
}

// OnPrintLine registers for single print lines.
func (c *Client) OnPrintLine(fn func(PrintLine)) func() {
	return c.lineHandlers.add(fn)
}

// OnReceipt registers for print-text blocks.
func (c *Client) OnReceipt(fn func(Receipt)) func() {
	return c.receiptHandlers.add(fn)
}
