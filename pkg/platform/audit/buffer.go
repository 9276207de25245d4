package audit

import "context"

// Buffer holds audit writes until the unit of work around them commits.
// Stores with no transaction of their own (the in-memory outbox) rely on
// it so a rejected operation leaves no event behind.
type Buffer struct {
	pending []func(context.Context) error
}

type bufferKey struct{}

// WithBuffer returns ctx carrying a fresh Buffer.
func WithBuffer(ctx context.Context) (context.Context, *Buffer) {
	b := &Buffer{}
	return context.WithValue(ctx, bufferKey{}, b), b
}

// BufferFrom returns the Buffer carried by ctx, if any.
func BufferFrom(ctx context.Context) (*Buffer, bool) {
	b, ok := ctx.Value(bufferKey{}).(*Buffer)
	return b, ok
}

// Defer queues write for the next Flush.
func (b *Buffer) Defer(write func(context.Context) error) {
	b.pending = append(b.pending, write)
}

// Len reports how many writes are queued.
func (b *Buffer) Len() int {
	return len(b.pending)
}

// Flush runs the queued writes in order and stops at the first failure.
// Writes that ran are dropped from the queue.
func (b *Buffer) Flush(ctx context.Context) error {
	for len(b.pending) > 0 {
		write := b.pending[0]
		if err := write(ctx); err != nil {
			return err
		}
		b.pending = b.pending[1:]
	}
	return nil
}

// Discard drops every queued write.
func (b *Buffer) Discard() {
	b.pending = nil
}
