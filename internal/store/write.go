package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/quench/internal/ir"
	"github.com/roach88/quench/internal/workflow"
)

// SubmitWorkflow records a workflow on the launchpad and returns its
// submission ID.
//
// Submission is idempotent on the workflow content hash: resubmitting an
// identical graph returns the existing ID and inserted=false. A new
// submission gets the next logical seq; the header, every step and every
// link are written in a single transaction.
func (s *Store) SubmitWorkflow(ctx context.Context, wf *workflow.Workflow) (id string, inserted bool, err error) {
	if wf == nil {
		return "", false, errors.New("submit workflow: nil workflow")
	}

	payload, err := wf.MarshalCanonical()
	if err != nil {
		return "", false, fmt.Errorf("submit workflow: %w", err)
	}
	metadata, err := marshalObject(wf.Metadata())
	if err != nil {
		return "", false, fmt.Errorf("submit workflow: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("submit workflow: begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `SELECT id FROM workflows WHERE hash = ?`, wf.Hash()).Scan(&id)
	switch {
	case err == nil:
		slog.Debug("workflow already submitted", "id", id, "hash", wf.Hash())
		return id, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return "", false, fmt.Errorf("submit workflow: lookup hash: %w", err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM workflows`).Scan(&seq); err != nil {
		return "", false, fmt.Errorf("submit workflow: next seq: %w", err)
	}

	id = s.ids.Generate()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO workflows
		(id, seq, name, hash, step_count, metadata, payload, builder_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		seq,
		wf.Name(),
		wf.Hash(),
		wf.Len(),
		metadata,
		string(payload),
		ir.BuilderVersion,
		ir.IRVersion,
	)
	if err != nil {
		return "", false, fmt.Errorf("submit workflow: insert header: %w", err)
	}

	for pos, step := range wf.Steps() {
		if err := insertStep(ctx, tx, id, pos, step); err != nil {
			return "", false, fmt.Errorf("submit workflow: %w", err)
		}
	}

	links := wf.Links()
	parents := make([]string, 0, len(links))
	for p := range links {
		parents = append(parents, p)
	}
	slices.Sort(parents)
	for _, parent := range parents {
		for _, child := range links[parent] {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO step_links (workflow_id, parent_id, child_id)
				VALUES (?, ?, ?)
				ON CONFLICT DO NOTHING
			`, id, parent, child)
			if err != nil {
				return "", false, fmt.Errorf("submit workflow: insert link: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("submit workflow: commit: %w", err)
	}

	slog.Info("workflow submitted",
		"id", id,
		"seq", seq,
		"name", wf.Name(),
		"steps", wf.Len(),
		"hash", wf.Hash())

	return id, true, nil
}

func insertStep(ctx context.Context, tx *sql.Tx, workflowID string, pos int, step *workflow.Step) error {
	desc, err := step.ToIR()
	if err != nil {
		return fmt.Errorf("step %q: %w", step.Name, err)
	}
	descJSON, err := marshalObject(desc)
	if err != nil {
		return fmt.Errorf("step %q: %w", step.Name, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO steps
		(workflow_id, position, step_id, name, kind, structure_index, descriptor)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		workflowID,
		pos,
		step.ID,
		step.Name,
		string(step.Kind),
		step.StructureIndex,
		descJSON,
	)
	if err != nil {
		return fmt.Errorf("insert step %q: %w", step.Name, err)
	}
	return nil
}
