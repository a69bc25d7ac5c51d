package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/edcraft/mentoring-engine/internal/identity"
	"github.com/edcraft/mentoring-engine/internal/models"
	"github.com/edcraft/mentoring-engine/internal/repositories"
	"gorm.io/gorm"
)

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeContentRepo is an in-memory content tree keyed by normalized id. The
// children map may list ids with no matching node, mimicking stale links in a
// real course tree.
type fakeContentRepo struct {
	nodes    map[string]*models.ContentNode
	children map[string][]string
}

func newFakeContentRepo(nodes ...*models.ContentNode) *fakeContentRepo {
	repo := &fakeContentRepo{
		nodes:    map[string]*models.ContentNode{},
		children: map[string][]string{},
	}
	for _, node := range nodes {
		repo.add(node)
	}
	return repo
}

func (f *fakeContentRepo) add(node *models.ContentNode) {
	f.nodes[node.NormalizedID()] = node
	if node.ParentID != nil {
		parentID := models.NormalizeID(*node.ParentID)
		f.children[parentID] = append(f.children[parentID], node.ID)
	}
}

func (f *fakeContentRepo) Resolve(ctx context.Context, id string) (*models.ContentNode, error) {
	node, ok := f.nodes[models.NormalizeID(id)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return node, nil
}

func (f *fakeContentRepo) ResolveByName(ctx context.Context, courseID, name string) (*models.ContentNode, error) {
	for _, node := range f.nodes {
		if node.CourseID == courseID && node.Name == name {
			return node, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeContentRepo) ChildrenOf(ctx context.Context, node *models.ContentNode) ([]string, error) {
	return f.children[node.NormalizedID()], nil
}

func (f *fakeContentRepo) ParentOf(ctx context.Context, node *models.ContentNode) (*models.ContentNode, error) {
	if node.ParentID == nil {
		return nil, nil
	}
	return f.Resolve(ctx, *node.ParentID)
}

// fakeSubmissionRepo serves canned latest-submission lists per item id.
type fakeSubmissionRepo struct {
	byItem map[string][]*models.SubmissionRecord
}

func (f *fakeSubmissionRepo) Latest(ctx context.Context, studentID, itemID, courseID, itemType string) (*models.SubmissionRecord, error) {
	for _, record := range f.byItem[itemID] {
		if record.StudentID == studentID {
			return record, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSubmissionRepo) LatestAll(ctx context.Context, courseID, itemID, itemType string) ([]*models.SubmissionRecord, error) {
	return f.byItem[itemID], nil
}

// fakeUserRepo is unused by the service tests directly; identity is stubbed.
type fakeUserRepo struct{}

func (f *fakeUserRepo) ByAnonymizedID(ctx context.Context, anonymizedID string) (*models.AnonymousUserMap, error) {
	return nil, gorm.ErrRecordNotFound
}

// fakeReportRepo stores reports in memory keyed by filename.
type fakeReportRepo struct {
	reports map[string]*models.Report
}

func (f *fakeReportRepo) Store(ctx context.Context, courseID, filename string, rows [][]string) error {
	encoded, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	if f.reports == nil {
		f.reports = map[string]*models.Report{}
	}
	f.reports[filename] = &models.Report{CourseID: courseID, Filename: filename, Rows: encoded}
	return nil
}

func (f *fakeReportRepo) Get(ctx context.Context, courseID, filename string) (*models.Report, error) {
	report, ok := f.reports[filename]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return report, nil
}

// fakeRepository aggregates the fakes behind the Repository interface.
type fakeRepository struct {
	content     *fakeContentRepo
	submissions *fakeSubmissionRepo
	reports     *fakeReportRepo
}

func newFakeRepository(content *fakeContentRepo) *fakeRepository {
	return &fakeRepository{
		content:     content,
		submissions: &fakeSubmissionRepo{byItem: map[string][]*models.SubmissionRecord{}},
		reports:     &fakeReportRepo{reports: map[string]*models.Report{}},
	}
}

func (f *fakeRepository) Content() repositories.ContentRepository       { return f.content }
func (f *fakeRepository) Submission() repositories.SubmissionRepository { return f.submissions }
func (f *fakeRepository) User() repositories.UserRepository             { return &fakeUserRepo{} }
func (f *fakeRepository) Report() repositories.ReportRepository         { return f.reports }
func (f *fakeRepository) Ping(ctx context.Context) error                { return nil }
func (f *fakeRepository) Close() error                                  { return nil }

// stubResolver maps anonymized ids to usernames; unmapped ids are unknown.
type stubResolver struct {
	usernames map[string]string
}

func (s *stubResolver) UsernameOf(ctx context.Context, anonymizedID string) (string, error) {
	username, ok := s.usernames[anonymizedID]
	if !ok {
		return "", &identity.UnknownStudentError{StudentID: anonymizedID}
	}
	return username, nil
}

func stringPtr(s string) *string {
	return &s
}

func containerNode(id, courseID string, blockType models.BlockType, parentID *string, displayName string) *models.ContentNode {
	return &models.ContentNode{
		ID:          id,
		CourseID:    courseID,
		BlockType:   blockType,
		ParentID:    parentID,
		DisplayName: displayName,
	}
}
