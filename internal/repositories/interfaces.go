package repositories

import (
	"context"
	"errors"

	"github.com/edcraft/mentoring-engine/internal/models"
	"gorm.io/gorm"
)

// ContentRepository is the narrow view onto the host's content tree store.
// The engine resolves and reads nodes; it never writes them.
type ContentRepository interface {
	// Resolve returns the node with the given id, qualifiers tolerated.
	Resolve(ctx context.Context, id string) (*models.ContentNode, error)
	// ResolveByName finds a node by its authoring name within a course.
	ResolveByName(ctx context.Context, courseID, name string) (*models.ContentNode, error)
	// ChildrenOf returns the ordered child ids of a node.
	ChildrenOf(ctx context.Context, node *models.ContentNode) ([]string, error)
	// ParentOf returns the node's parent, or nil when it has none.
	ParentOf(ctx context.Context, node *models.ContentNode) (*models.ContentNode, error)
}

// SubmissionRepository is the narrow view onto the submission store.
type SubmissionRepository interface {
	// Latest returns the most recent submission for one student, or nil.
	Latest(ctx context.Context, studentID, itemID, courseID, itemType string) (*models.SubmissionRecord, error)
	// LatestAll returns the most recent submission per student for an item.
	LatestAll(ctx context.Context, courseID, itemID, itemType string) ([]*models.SubmissionRecord, error)
}

// UserRepository reverses anonymized student ids.
type UserRepository interface {
	ByAnonymizedID(ctx context.Context, anonymizedID string) (*models.AnonymousUserMap, error)
}

// ReportRepository is the report sink: it persists full export row sets.
type ReportRepository interface {
	Store(ctx context.Context, courseID, filename string, rows [][]string) error
	Get(ctx context.Context, courseID, filename string) (*models.Report, error)
}

// Repository aggregates the per-concern repositories behind one handle.
type Repository interface {
	Content() ContentRepository
	Submission() SubmissionRepository
	User() UserRepository
	Report() ReportRepository
	Ping(ctx context.Context) error
	Close() error
}

// IsNotFoundError reports whether err is the store's "no such record" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
