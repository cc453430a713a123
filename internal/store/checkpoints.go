package store

import (
	"context"
	"fmt"
	"time"

	"github.com/courtwire/courtwire/internal/domain"
)

// BeginCheckpoint marks a work item running, inserting the row if this is
// its first attempt.
func (s *Store) BeginCheckpoint(ctx context.Context, pipeline, key, step string) error {
	now := time.Now().UTC()
	cp := domain.Checkpoint{
		PipelineName: pipeline,
		Key:          key,
		Step:         step,
		Status:       domain.CheckpointRunning,
		StartedAt:    &now,
	}
	_, err := upsertRows(ctx, s.db, checkpointSpec, []domain.Checkpoint{cp}, 1)
	if err != nil {
		return fmt.Errorf("failed to begin checkpoint %s/%s: %w", pipeline, key, err)
	}
	return nil
}

// CompleteCheckpoint marks a work item done.
func (s *Store) CompleteCheckpoint(ctx context.Context, pipeline, key, step string) error {
	return s.finishCheckpoint(ctx, pipeline, key, step, domain.CheckpointCompleted, nil)
}

// FailCheckpoint marks a work item failed with its error message.
func (s *Store) FailCheckpoint(ctx context.Context, pipeline, key, step string, cause error) error {
	msg := cause.Error()
	return s.finishCheckpoint(ctx, pipeline, key, step, domain.CheckpointFailed, &msg)
}

func (s *Store) finishCheckpoint(ctx context.Context, pipeline, key, step string, status domain.CheckpointStatus, errMsg *string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		UPDATE pipeline_state
		SET status = $1, completed_at = $2, error_message = $3
		WHERE pipeline_name = $4 AND key = $5 AND step = $6`,
		status, time.Now().UTC(), errMsg, pipeline, key, step)
	if err != nil {
		return fmt.Errorf("failed to finish checkpoint %s/%s: %w", pipeline, key, err)
	}
	return nil
}

// ResumableKeys returns the keys a resumed run should process: items still
// pending plus items that failed last time. Completed work is not repeated.
func (s *Store) ResumableKeys(ctx context.Context, pipeline, step string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var keys []string
	err := s.db.SelectContext(ctx, &keys, `
		SELECT key FROM pipeline_state
		WHERE pipeline_name = $1 AND step = $2 AND status IN ($3, $4)
		ORDER BY key`,
		pipeline, step, domain.CheckpointPending, domain.CheckpointFailed)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumable checkpoints: %w", err)
	}
	return keys, nil
}
