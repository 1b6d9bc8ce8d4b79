package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Pyrad/webcrawler/internal/snapshot"
)

// takenAtLayout 定宽 UTC 时间，保证按字符串排序即按时间排序
const takenAtLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("not found")

// 快照来源
const (
	SourceCrawl  = "crawl"
	SourceManual = "manual"
)

// SaveSnapshot 保存快照，快照没有 ID 时分配一个新的 ID 并返回
func (s *Store) SaveSnapshot(snap snapshot.Snapshot, source string) (string, error) {
	id := snap.ID
	if id == "" {
		id = uuid.New().String()
	}
	if source == "" {
		source = SourceCrawl
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO snapshots (id, taken_at, source) VALUES (?, ?, ?)",
		id, snap.TakenAt.UTC().Format(takenAtLayout), source,
	); err != nil {
		return "", fmt.Errorf("failed to insert snapshot: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO snapshot_values (snapshot_id, city_key, value) VALUES (?, ?, ?)")
	if err != nil {
		return "", fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, key := range snap.Keys() {
		if _, err := stmt.Exec(id, key, snap.Get(key)); err != nil {
			return "", fmt.Errorf("failed to insert value %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return id, nil
}

// LatestSnapshot 最近一次的快照，库中没有快照时返回 ErrNotFound
func (s *Store) LatestSnapshot() (snapshot.Snapshot, error) {
	snaps, err := s.ListSnapshots(1)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	if len(snaps) == 0 {
		return snapshot.Snapshot{}, ErrNotFound
	}
	return snaps[0], nil
}

// GetSnapshot 按 ID 读取快照
func (s *Store) GetSnapshot(id string) (snapshot.Snapshot, error) {
	var takenAt string
	err := s.db.QueryRow("SELECT taken_at FROM snapshots WHERE id = ?", id).Scan(&takenAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return snapshot.Snapshot{}, fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
		}
		return snapshot.Snapshot{}, err
	}

	values, err := s.snapshotValues(id)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	return buildSnapshot(id, takenAt, values)
}

// ListSnapshots 按时间倒序列出快照，limit<=0 时不限制条数
func (s *Store) ListSnapshots(limit int) ([]snapshot.Snapshot, error) {
	query := "SELECT id, taken_at FROM snapshots ORDER BY taken_at DESC, created_at DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots failed: %w", err)
	}

	type header struct{ id, takenAt string }
	var headers []header
	for rows.Next() {
		var h header
		if err := rows.Scan(&h.id, &h.takenAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan snapshot failed: %w", err)
		}
		headers = append(headers, h)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate snapshots failed: %w", err)
	}
	// 单连接下必须先释放游标再查询明细
	rows.Close()

	out := make([]snapshot.Snapshot, 0, len(headers))
	for _, h := range headers {
		values, err := s.snapshotValues(h.id)
		if err != nil {
			return nil, err
		}
		snap, err := buildSnapshot(h.id, h.takenAt, values)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

// DeleteSnapshot 删除快照及其明细
func (s *Store) DeleteSnapshot(id string) error {
	res, err := s.db.Exec("DELETE FROM snapshots WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) snapshotValues(id string) (map[string]int64, error) {
	rows, err := s.db.Query("SELECT city_key, value FROM snapshot_values WHERE snapshot_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("query snapshot values failed: %w", err)
	}
	defer rows.Close()

	values := make(map[string]int64)
	for rows.Next() {
		var key string
		var v int64
		if err := rows.Scan(&key, &v); err != nil {
			return nil, fmt.Errorf("scan snapshot value failed: %w", err)
		}
		values[key] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot values failed: %w", err)
	}
	return values, nil
}

func buildSnapshot(id, takenAt string, values map[string]int64) (snapshot.Snapshot, error) {
	t, err := time.Parse(takenAtLayout, takenAt)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("snapshot %s: bad taken_at %q: %w", id, takenAt, err)
	}
	snap := snapshot.New(t.Local(), values)
	snap.ID = id
	return snap, nil
}
