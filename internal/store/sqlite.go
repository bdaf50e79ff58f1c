package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"bili-guard-list/internal/model"
)

// History 封装 *sql.DB，基于 modernc.org/sqlite（纯 Go 实现），记录每次运行的摘要。
// 舰长明细只写 CSV，这里不保存。
type History struct {
	db *sql.DB
}

// OpenHistory 打开 SQLite 数据库并执行自动迁移。
func OpenHistory(path string) (*History, error) {
	// modernc sqlite 的 DSN 可直接使用文件路径，或以 'file:...' 前缀表示
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	h := &History{db: db}
	if err := h.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return h, nil
}

func (h *History) Close() error { return h.db.Close() }

// migrate 执行建表语句，保持幂等。
func (h *History) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
            run_id TEXT PRIMARY KEY,
            room_id INTEGER,
            ruid INTEGER,
            target_uid INTEGER,
            target_is_guard INTEGER,
            pages INTEGER,
            fetched INTEGER,
            written INTEGER,
            file_rows INTEGER,
            output_file TEXT,
            failure TEXT,
            started_at TIMESTAMP,
            finished_at TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_runs_room ON runs(room_id, started_at);`,
	}
	for _, q := range stmts {
		if _, err := h.db.Exec(q); err != nil {
			return fmt.Errorf("exec migrate: %w", err)
		}
	}
	return nil
}

// RecordRun 写入一次运行摘要（run_id 唯一）。
func (h *History) RecordRun(ctx context.Context, s model.RunSummary) error {
	if s.RunID == "" {
		return errors.New("run.run_id required")
	}
	_, err := h.db.ExecContext(ctx, `INSERT INTO runs(run_id, room_id, ruid, target_uid, target_is_guard, pages, fetched, written, file_rows, output_file, failure, started_at, finished_at)
        VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)
        ON CONFLICT(run_id) DO UPDATE SET pages=excluded.pages, fetched=excluded.fetched, written=excluded.written,
            file_rows=excluded.file_rows, failure=excluded.failure, finished_at=excluded.finished_at`,
		s.RunID, s.RoomID, s.RUID, s.TargetUID, s.Check.IsGuard, s.Pages, s.Fetched, s.Written,
		s.FileRows, s.OutputFile, s.Failure, nowOr(s.StartedAt), nowOr(s.FinishedAt))
	if err != nil {
		return fmt.Errorf("record run %s: %w", s.RunID, err)
	}
	return nil
}

// ListRuns 返回某房间的运行记录，按开始时间倒序；limit<=0 表示不限制。
func (h *History) ListRuns(ctx context.Context, roomID int64, limit int) ([]model.RunSummary, error) {
	q := `SELECT run_id, room_id, ruid, target_uid, target_is_guard, pages, fetched, written, file_rows, output_file, COALESCE(failure,''), started_at, finished_at
        FROM runs WHERE room_id = ? ORDER BY started_at DESC`
	args := []any{roomID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := h.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()
	var out []model.RunSummary
	for rows.Next() {
		var s model.RunSummary
		var started, finished sql.NullTime
		if err := rows.Scan(&s.RunID, &s.RoomID, &s.RUID, &s.TargetUID, &s.Check.IsGuard, &s.Pages, &s.Fetched,
			&s.Written, &s.FileRows, &s.OutputFile, &s.Failure, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan runs: %w", err)
		}
		if started.Valid {
			s.StartedAt = started.Time
		}
		if finished.Valid {
			s.FinishedAt = finished.Time
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// CleanOldRuns 按天数阈值清理过期的运行记录；days<=0 时不清理。
func (h *History) CleanOldRuns(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	res, err := h.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("clean old runs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func nowOr(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
