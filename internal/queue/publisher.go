package queue

import "context"

// Publisher hands reset links to the notify worker.
type Publisher interface {
	SendResetLink(ctx context.Context, email, url string) error
	Close() error
}

type NoopPub struct{}

func NewNoop() Publisher { return NoopPub{} }

func (NoopPub) SendResetLink(context.Context, string, string) error { return nil }
func (NoopPub) Close() error                                        { return nil }
