package store

import (
	"errors"

	"github.com/roach88/quench/internal/ir"
)

// ErrNotFound is returned when a submission ID or hash is unknown.
var ErrNotFound = errors.New("submission not found")

// ErrSchemaVersion is returned by Open for a launchpad written by a newer schema.
var ErrSchemaVersion = errors.New("unsupported launchpad schema version")

// Submission is a stored workflow header.
type Submission struct {
	ID             string      `json:"id"`
	Seq            int64       `json:"seq"`
	Name           string      `json:"name"`
	Hash           string      `json:"hash"`
	StepCount      int         `json:"step_count"`
	Metadata       ir.IRObject `json:"metadata"`
	BuilderVersion string      `json:"builder_version"`
	IRVersion      string      `json:"ir_version"`
}

// StoredStep is one step row of a submission, in workflow order.
type StoredStep struct {
	Position       int         `json:"position"`
	StepID         string      `json:"step_id"`
	Name           string      `json:"name"`
	Kind           string      `json:"kind"`
	StructureIndex int         `json:"structure_index"`
	Descriptor     ir.IRObject `json:"descriptor"`
}

// Link is a parent to child dependency between two step IDs.
type Link struct {
	ParentID string `json:"parent_id"`
	ChildID  string `json:"child_id"`
}
