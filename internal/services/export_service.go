package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/edcraft/mentoring-engine/internal/identity"
	"github.com/edcraft/mentoring-engine/internal/models"
	"github.com/edcraft/mentoring-engine/internal/repositories"
	"github.com/xuri/excelize/v2"
)

// ExportService runs answer exports and renders stored reports for download.
type ExportService interface {
	// Export collects student answers below a source block into a report.
	// It always returns a structured result: the job runs asynchronously and
	// there is no direct caller to propagate an error to.
	Export(ctx context.Context, req *models.ExportRequest) *models.ExportResult

	// Render operations for stored reports
	RenderReportCSV(ctx context.Context, courseID, filename string) ([]byte, error)
	RenderReportExcel(ctx context.Context, courseID, filename string) ([]byte, error)
}

type exportService struct {
	repo     repositories.Repository
	identity identity.Resolver
	walker   TreeWalker
	logger   *slog.Logger
}

func NewExportService(repo repositories.Repository, identityResolver identity.Resolver, logger *slog.Logger) ExportService {
	return &exportService{
		repo:     repo,
		identity: identityResolver,
		walker:   NewTreeWalker(repo.Content(), logger),
		logger:   logger,
	}
}

// ===== EXPORT JOB =====

func (s *exportService) Export(ctx context.Context, req *models.ExportRequest) *models.ExportResult {
	start := time.Now()
	result := &models.ExportResult{
		StartTimestamp: float64(start.UnixNano()) / float64(time.Second),
		DisplayData:    [][]string{},
	}
	fail := func(msg string) *models.ExportResult {
		result.Error = msg
		result.GenerationTimeS = time.Since(start).Seconds()
		return result
	}

	s.logger.Info("Beginning data export",
		"task_id", req.TaskID,
		"course_id", req.CourseID,
		"source_block_id", req.SourceBlockID)

	src, err := s.resolveSource(ctx, req)
	if err != nil {
		if repositories.IsNotFoundError(err) || IsNotFound(err) {
			return fail("Could not find the specified Block ID.")
		}
		return fail(fmt.Sprintf("failed to resolve source block: %v", err))
	}

	root := src
	if req.GetRoot {
		for {
			parent, err := s.repo.Content().ParentOf(ctx, root)
			if err != nil {
				return fail(fmt.Sprintf("failed to resolve course root: %v", err))
			}
			if parent == nil {
				break
			}
			root = parent
		}
	}

	blockTypes := make([]models.BlockType, 0, len(req.BlockTypes))
	for _, bt := range req.BlockTypes {
		blockTypes = append(blockTypes, models.BlockType(bt))
	}

	blocks, err := s.walker.Collect(ctx, root, QuestionPredicate(blockTypes))
	if err != nil {
		return fail(fmt.Sprintf("failed to scan course tree: %v", err))
	}

	rows := [][]string{models.ExportHeader}
	skipped := 0
	for _, block := range blocks {
		blockRows, blockSkipped, err := s.extractRows(ctx, req, block)
		if err != nil {
			return fail(fmt.Sprintf("failed to extract answers for %s: %v", block.NormalizedID(), err))
		}
		rows = append(rows, blockRows...)
		skipped += blockSkipped
	}

	filename := fmt.Sprintf("pb-data-export-%s.csv", start.UTC().Format("2006-01-02-150405"))
	if err := s.repo.Report().Store(ctx, req.CourseID, filename, rows); err != nil {
		return fail(fmt.Sprintf("failed to store report: %v", err))
	}

	result.ReportFilename = filename
	result.GenerationTimeS = time.Since(start).Seconds()
	if len(rows) > 1 {
		preview := rows[1:]
		if len(preview) > models.DisplayDataLimit {
			preview = preview[:models.DisplayDataLimit]
		}
		result.DisplayData = preview
	}

	s.logger.Info("Done data export",
		"task_id", req.TaskID,
		"report_filename", filename,
		"row_count", len(rows)-1,
		"skipped_unknown_students", skipped,
		"generation_time_s", result.GenerationTimeS)

	return result
}

func (s *exportService) resolveSource(ctx context.Context, req *models.ExportRequest) (*models.ContentNode, error) {
	src, err := s.repo.Content().ResolveByName(ctx, req.CourseID, req.SourceBlockID)
	if err == nil {
		return src, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, err
	}
	// The source may be addressed by usage id rather than authoring name.
	return s.repo.Content().Resolve(ctx, req.SourceBlockID)
}

// extractRows builds the export rows for one question block. Rows whose
// student id cannot be reversed are skipped and counted, not fatal.
func (s *exportService) extractRows(ctx context.Context, req *models.ExportRequest, block *models.ContentNode) ([][]string, int, error) {
	section, subsection, unit, err := s.blockContext(ctx, block)
	if err != nil {
		return nil, 0, err
	}

	submissions, err := s.fetchSubmissions(ctx, req, block)
	if err != nil {
		return nil, 0, err
	}

	var rows [][]string
	skipped := 0
	for _, submission := range submissions {
		username, err := s.identity.UsernameOf(ctx, submission.StudentID)
		if err != nil {
			if identity.IsUnknownStudent(err) {
				s.logger.Warn("Skipping submission with unreversible student id",
					"task_id", req.TaskID,
					"item_id", submission.ItemID,
					"student_id", submission.StudentID)
				skipped++
				continue
			}
			return nil, skipped, err
		}

		answer, err := s.resolveAnswer(ctx, block, submission.Answer)
		if err != nil {
			return nil, skipped, err
		}

		if !strings.Contains(strings.ToLower(answer), strings.ToLower(req.MatchString)) {
			continue
		}

		rows = append(rows, []string{
			section, subsection, unit,
			string(block.BlockType), block.Question, answer, username,
		})
	}
	return rows, skipped, nil
}

// blockContext resolves the nearest chapter/sequential/vertical ancestor
// titles. Missing ancestor types yield empty strings, not errors.
func (s *exportService) blockContext(ctx context.Context, block *models.ContentNode) (section, subsection, unit string, err error) {
	namesByType := map[models.BlockType]string{}
	for node := block; node != nil; {
		if _, seen := namesByType[node.BlockType]; !seen {
			namesByType[node.BlockType] = node.DisplayName
		}
		parent, perr := s.repo.Content().ParentOf(ctx, node)
		if perr != nil {
			if repositories.IsNotFoundError(perr) {
				break
			}
			return "", "", "", fmt.Errorf("failed to resolve ancestor of %s: %w", node.NormalizedID(), perr)
		}
		node = parent
	}
	return namesByType[models.BlockChapter], namesByType[models.BlockSequential], namesByType[models.BlockVertical], nil
}

func (s *exportService) fetchSubmissions(ctx context.Context, req *models.ExportRequest, block *models.ContentNode) ([]*models.SubmissionRecord, error) {
	itemID := block.NormalizedID()
	itemType := string(block.BlockType)

	if req.StudentID != "" {
		record, err := s.repo.Submission().Latest(ctx, req.StudentID, itemID, req.CourseID, itemType)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to fetch submission: %w", err)
		}
		return []*models.SubmissionRecord{record}, nil
	}

	records, err := s.repo.Submission().LatestAll(ctx, req.CourseID, itemID, itemType)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submissions: %w", err)
	}
	return records, nil
}

// resolveAnswer substitutes a choice's display content for the stored value
// when the block exposes choice children and one of them matches.
func (s *exportService) resolveAnswer(ctx context.Context, block *models.ContentNode, answer string) (string, error) {
	if !block.BlockType.HasChildren() {
		return answer, nil
	}
	childIDs, err := s.repo.Content().ChildrenOf(ctx, block)
	if err != nil {
		return "", fmt.Errorf("failed to list choices of %s: %w", block.NormalizedID(), err)
	}
	for _, childID := range childIDs {
		child, err := s.repo.Content().Resolve(ctx, childID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				continue
			}
			return "", fmt.Errorf("failed to resolve choice %s: %w", childID, err)
		}
		if child.BlockType.IsChoice() && child.Value == answer {
			return child.Content, nil
		}
	}
	return answer, nil
}

// ===== REPORT RENDERING =====

func (s *exportService) RenderReportCSV(ctx context.Context, courseID, filename string) ([]byte, error) {
	rows, err := s.reportRows(ctx, courseID, filename)
	if err != nil {
		return nil, err
	}

	var buf strings.Builder
	writer := csv.NewWriter(&buf)
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return []byte(buf.String()), nil
}

func (s *exportService) RenderReportExcel(ctx context.Context, courseID, filename string) ([]byte, error) {
	rows, err := s.reportRows(ctx, courseID, filename)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheetName := "Answers"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	for rowIndex, row := range rows {
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+1)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *exportService) reportRows(ctx context.Context, courseID, filename string) ([][]string, error) {
	report, err := s.repo.Report().Get(ctx, courseID, filename)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load report %s: %w", filename, err)
	}
	var rows [][]string
	if err := json.Unmarshal(report.Rows, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode report rows: %w", err)
	}
	return rows, nil
}
