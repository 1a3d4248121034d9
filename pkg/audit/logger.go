package audit

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/entitykit/entityauth/pkg/observability"
)

const defaultBufferSize = 256

// Logger records audit events.
type Logger interface {
	Record(event Event)
}

// Searcher queries recorded audit events.
type Searcher interface {
	Search(ctx context.Context, filter SearchFilter) ([]*Event, error)
}

// DBLogger writes audit events to PostgreSQL from a background goroutine.
type DBLogger struct {
	db     *sql.DB
	logger *observability.Logger

	events chan Event
	wg     sync.WaitGroup
	once   sync.Once
}

// NewDBLogger creates the database audit logger and starts its writer.
func NewDBLogger(db *sql.DB, logger *observability.Logger) *DBLogger {
	if logger == nil {
		logger = observability.NopLogger()
	}
	l := &DBLogger{
		db:     db,
		logger: logger,
		events: make(chan Event, defaultBufferSize),
	}
	l.wg.Add(1)
	go l.writeLoop()
	return l
}

// Record enqueues an event. A full buffer drops the event with a warning;
// audit logging must not slow down the request path.
func (l *DBLogger) Record(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case l.events <- event:
	default:
		l.logger.WithField("event_type", string(event.EventType)).Warn("audit buffer full, event dropped")
	}
}

// Close drains pending events and stops the writer.
func (l *DBLogger) Close() {
	l.once.Do(func() { close(l.events) })
	l.wg.Wait()
}

func (l *DBLogger) writeLoop() {
	defer l.wg.Done()
	for event := range l.events {
		if err := l.insert(context.Background(), event); err != nil {
			l.logger.WithError(err).Warn("failed to write audit event")
		}
	}
}

func (l *DBLogger) insert(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (timestamp, event_type, status, user_id, ip_address, request_id, resource)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := l.db.ExecContext(ctx, query, event.Timestamp, event.EventType, event.Status,
		nullable(event.UserID), nullable(event.IPAddress), nullable(event.RequestID), nullable(event.Resource))
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

// Search returns events matching the filter, newest first.
func (l *DBLogger) Search(ctx context.Context, filter SearchFilter) ([]*Event, error) {
	query := `
		SELECT id, timestamp, event_type, status, user_id, ip_address, request_id, resource
		FROM audit_events
		WHERE ($1 = '' OR user_id = $1)
		  AND ($2 = '' OR event_type = $2)
		  AND ($3::timestamptz IS NULL OR timestamp >= $3)
		  AND ($4::timestamptz IS NULL OR timestamp <= $4)
		ORDER BY timestamp DESC
		LIMIT $5
	`
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := l.db.QueryContext(ctx, query, filter.UserID, string(filter.EventType),
		nullableTime(filter.Since), nullableTime(filter.Until), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search audit events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		event := &Event{}
		var userID, ip, requestID, resource sql.NullString
		if err := rows.Scan(&event.ID, &event.Timestamp, &event.EventType, &event.Status,
			&userID, &ip, &requestID, &resource); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		event.UserID = userID.String
		event.IPAddress = ip.String
		event.RequestID = requestID.String
		event.Resource = resource.String
		events = append(events, event)
	}
	return events, rows.Err()
}

// Cleanup removes events older than the retention window. Returns the number
// of rows removed.
func (l *DBLogger) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	result, err := l.db.ExecContext(ctx,
		`DELETE FROM audit_events WHERE timestamp < $1`, time.Now().UTC().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to clean up audit events: %w", err)
	}
	return result.RowsAffected()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
