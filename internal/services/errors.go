package services

import (
	"errors"
	"fmt"
)

// ===== COMMON SERVICE ERRORS =====

var (
	ErrNotFound            = errors.New("resource not found")
	ErrSourceBlockNotFound = errors.New("could not find the specified block id")
	ErrInvalidMessageType  = errors.New("invalid message type")
	ErrValidationFailed    = errors.New("validation failed")
)

// ===== CUSTOM ERROR TYPES =====

// ConsistencyError signals authoring-tree corruption: a step claims a parent
// whose computed step list does not contain it. This is surfaced to the
// caller, never swallowed, since a human needs to fix the tree.
type ConsistencyError struct {
	StepID   string `json:"step_id"`
	ParentID string `json:"parent_id"`
}

func (ce *ConsistencyError) Error() string {
	return fmt.Sprintf("step %s is not listed among the steps of its parent %s", ce.StepID, ce.ParentID)
}

// ===== ERROR HELPERS =====

func NewConsistencyError(stepID, parentID string) *ConsistencyError {
	return &ConsistencyError{StepID: stepID, ParentID: parentID}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrSourceBlockNotFound)
}

// IsConsistency checks if error represents an authoring-tree inconsistency
func IsConsistency(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}
