package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// 刷新记录状态
const (
	RefreshProcessing = "processing"
	RefreshCompleted  = "completed"
	RefreshFailed     = "failed"
)

// RefreshLog 一次周报刷新的记录
type RefreshLog struct {
	RunID       string     `json:"runId"`
	ReportPath  string     `json:"reportPath"`
	SnapshotID  string     `json:"snapshotId,omitempty"`
	Status      string     `json:"status"`
	Message     string     `json:"message,omitempty"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// CreateRefreshLog 创建刷新记录，返回 run_id
func (s *Store) CreateRefreshLog(reportPath string) (string, error) {
	runID := uuid.New().String()
	_, err := s.db.Exec(`
		INSERT INTO refresh_logs (run_id, report_path, status, started_at)
		VALUES (?, ?, ?, ?)
	`, runID, reportPath, RefreshProcessing, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to create refresh log: %w", err)
	}
	return runID, nil
}

// FinishRefreshLog 完成刷新记录
func (s *Store) FinishRefreshLog(runID, snapshotID, status, message string) error {
	res, err := s.db.Exec(`
		UPDATE refresh_logs SET
			snapshot_id = NULLIF(?, ''),
			status = ?,
			message = ?,
			completed_at = ?
		WHERE run_id = ?
	`, snapshotID, status, message, time.Now().UTC(), runID)
	if err != nil {
		return fmt.Errorf("failed to update refresh log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("refresh log %s: %w", runID, ErrNotFound)
	}
	return nil
}

// ListRefreshLogs 按开始时间倒序列出刷新记录，limit<=0 时不限制条数
func (s *Store) ListRefreshLogs(limit int) ([]RefreshLog, error) {
	query := `
		SELECT run_id, report_path, snapshot_id, status, message, started_at, completed_at
		FROM refresh_logs
		ORDER BY id DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query refresh logs failed: %w", err)
	}
	defer rows.Close()

	var out []RefreshLog
	for rows.Next() {
		var (
			it         RefreshLog
			snapshotID sql.NullString
			message    sql.NullString
			completed  sql.NullTime
		)
		if err := rows.Scan(&it.RunID, &it.ReportPath, &snapshotID, &it.Status, &message, &it.StartedAt, &completed); err != nil {
			return nil, fmt.Errorf("scan refresh log failed: %w", err)
		}
		it.SnapshotID = snapshotID.String
		it.Message = message.String
		if completed.Valid {
			t := completed.Time
			it.CompletedAt = &t
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate refresh logs failed: %w", err)
	}
	return out, nil
}
