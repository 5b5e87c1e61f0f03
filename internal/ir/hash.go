package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows a future algorithm migration.
const (
	DomainStep      = "quench/step/v1"
	DomainWorkflow  = "quench/workflow/v1"
	DomainStructure = "quench/structure/v1"
)

// hashWithDomain computes SHA-256 with domain separation:
// SHA256(domain + 0x00 + data). The null byte keeps the domain/data
// boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StepID computes the content-addressed ID of a step descriptor.
// The descriptor must already contain the IDs of the step's parents, so two
// identical steps wired to different parents get different IDs.
func StepID(descriptor IRObject) (string, error) {
	canonical, err := MarshalCanonical(descriptor)
	if err != nil {
		return "", fmt.Errorf("StepID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainStep, canonical), nil
}

// WorkflowHash computes the content hash of a workflow from its name and the
// ordered IDs of its steps. Step IDs already cover parents and parameters.
func WorkflowHash(name string, stepIDs []string, metadata IRObject) (string, error) {
	ids := make(IRArray, len(stepIDs))
	for i, id := range stepIDs {
		ids[i] = IRString(id)
	}
	obj := IRObject{
		"name":     IRString(name),
		"steps":    ids,
		"metadata": metadata,
	}
	if metadata == nil {
		obj["metadata"] = IRObject{}
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("WorkflowHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainWorkflow, canonical), nil
}

// StructureHash computes the content hash of a structure's canonical tree.
func StructureHash(tree IRObject) (string, error) {
	canonical, err := MarshalCanonical(tree)
	if err != nil {
		return "", fmt.Errorf("StructureHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainStructure, canonical), nil
}

// MustStepID is like StepID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustStepID(descriptor IRObject) string {
	id, err := StepID(descriptor)
	if err != nil {
		panic(err)
	}
	return id
}
