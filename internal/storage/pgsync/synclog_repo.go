package pgsync

import (
	"context"
	"time"

	"github.com/BearBump/SyncBox/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// AppendSyncLog пишет запись журнала вне батчевой транзакции:
// журнал должен остаться и тогда, когда сам батч откатился.
func (s *Storage) AppendSyncLog(ctx context.Context, entry models.SyncLog) error {
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.Exec(ctx, `
INSERT INTO sync_logs (device_id, sync_type, records_synced, status, message, timestamp)
VALUES ($1,$2,$3,$4,$5,$6)
`, entry.DeviceID, entry.SyncType, entry.RecordsSynced, entry.Status, entry.Message, ts)
	return errors.Wrap(err, "insert sync log")
}

func (s *Storage) LastSyncLog(ctx context.Context) (*models.SyncLog, error) {
	var e models.SyncLog
	err := s.db.QueryRow(ctx, `
SELECT id, device_id, sync_type, records_synced, status, message, timestamp
FROM sync_logs
ORDER BY timestamp DESC
LIMIT 1
`).Scan(&e.ID, &e.DeviceID, &e.SyncType, &e.RecordsSynced, &e.Status, &e.Message, &e.Timestamp)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select last sync log")
	}
	return &e, nil
}

func (s *Storage) CountSyncLogsSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM sync_logs WHERE timestamp >= $1`, since.UTC()).Scan(&n)
	return n, errors.Wrap(err, "count sync logs")
}
