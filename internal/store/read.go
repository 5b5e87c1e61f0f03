package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const submissionColumns = `id, seq, name, hash, step_count, metadata, builder_version, ir_version`

// ReadWorkflow retrieves a submission header by ID.
// Returns ErrNotFound if the ID is unknown.
func (s *Store) ReadWorkflow(ctx context.Context, id string) (Submission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+submissionColumns+`
		FROM workflows
		WHERE id = ?
	`, id)

	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sub, err
}

// FindByHash retrieves the submission holding the given workflow hash.
// Returns ErrNotFound if no submission matches.
func (s *Store) FindByHash(ctx context.Context, hash string) (Submission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+submissionColumns+`
		FROM workflows
		WHERE hash = ?
	`, hash)

	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, fmt.Errorf("%w: hash %s", ErrNotFound, hash)
	}
	return sub, err
}

// ListWorkflows returns every submission ordered by seq.
// Returns an empty slice (not nil) when the launchpad is empty.
func (s *Store) ListWorkflows(ctx context.Context) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+submissionColumns+`
		FROM workflows
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query workflows: %w", err)
	}
	defer rows.Close()

	subs := []Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workflows: %w", err)
	}
	return subs, nil
}

// ReadSteps returns the steps of a submission in workflow order.
// Returns ErrNotFound if the submission does not exist.
func (s *Store) ReadSteps(ctx context.Context, workflowID string) ([]StoredStep, error) {
	if err := s.ensureExists(ctx, workflowID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT position, step_id, name, kind, structure_index, descriptor
		FROM steps
		WHERE workflow_id = ?
		ORDER BY position ASC
	`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	steps := []StoredStep{}
	for rows.Next() {
		var (
			st   StoredStep
			desc string
		)
		if err := rows.Scan(&st.Position, &st.StepID, &st.Name, &st.Kind, &st.StructureIndex, &desc); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		if st.Descriptor, err = unmarshalObject(desc); err != nil {
			return nil, fmt.Errorf("step %q: %w", st.Name, err)
		}
		steps = append(steps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return steps, nil
}

// ReadLinks returns the dependency links of a submission ordered by parent
// then child ID.
func (s *Store) ReadLinks(ctx context.Context, workflowID string) ([]Link, error) {
	if err := s.ensureExists(ctx, workflowID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT parent_id, child_id
		FROM step_links
		WHERE workflow_id = ?
		ORDER BY parent_id COLLATE BINARY ASC, child_id COLLATE BINARY ASC
	`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	links := []Link{}
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.ParentID, &l.ChildID); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}
	return links, nil
}

// ReadPayload returns the canonical JSON export stored with a submission.
func (s *Store) ReadPayload(ctx context.Context, id string) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM workflows WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return []byte(payload), nil
}

func (s *Store) ensureExists(ctx context.Context, id string) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM workflows WHERE id = ?`, id).Scan(&n); err != nil {
		return fmt.Errorf("check workflow: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (Submission, error) {
	var (
		sub      Submission
		metadata string
	)
	err := row.Scan(&sub.ID, &sub.Seq, &sub.Name, &sub.Hash, &sub.StepCount, &metadata, &sub.BuilderVersion, &sub.IRVersion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, err
		}
		return Submission{}, fmt.Errorf("scan workflow: %w", err)
	}
	if sub.Metadata, err = unmarshalObject(metadata); err != nil {
		return Submission{}, fmt.Errorf("workflow %s: %w", sub.ID, err)
	}
	return sub, nil
}
