package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// Notifier publishes a PostgreSQL NOTIFY each time a store document is
// written, so other processes sharing the database can reload.
type Notifier struct {
	DB      *sql.DB
	Channel string
}

// NewNotifier constructs a new Notifier for channel.
func NewNotifier(db *sql.DB, channel string) *Notifier {
	return &Notifier{DB: db, Channel: channel}
}

// Notify sends the document name as the payload.  NOTIFY takes no bind
// parameters, so both the channel and the payload are quoted into the
// statement.
func (n *Notifier) Notify(ctx context.Context, document string) error {
	stmt := fmt.Sprintf("NOTIFY %s, %s", pq.QuoteIdentifier(n.Channel), pq.QuoteLiteral(document))
	if _, err := n.DB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("notify %s: %w", n.Channel, err)
	}
	return nil
}
