package app

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"time"

	"revendo/pkg/domain"
)

const reportReasonMaxLen = 1000

// FileReportInput identifies the reported entity and the grounds.
type FileReportInput struct {
	Kind           domain.ReportKind
	Category       string
	Reason         string
	ProductID      string
	CommentID      string
	ReportedUserID string
}

// FileReport records a user report against a product, comment or user.
func (a *App) FileReport(reporter domain.User, in FileReportInput) (domain.Report, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" || utf8.RuneCountInString(reason) > reportReasonMaxLen {
		return domain.Report{}, fmt.Errorf("%w: reason must be 1 to %d characters", ErrValidation, reportReasonMaxLen)
	}

	report := domain.Report{
		ID:         uuid.NewString(),
		ReporterID: reporter.ID,
		Kind:       in.Kind,
		Category:   strings.TrimSpace(in.Category),
		Reason:     reason,
		Status:     domain.ReportOpen,
		CreatedAt:  time.Now().UTC(),
	}
	switch in.Kind {
	case domain.ReportProduct:
		product, ok, err := a.store.GetProduct(in.ProductID)
		if err != nil {
			return domain.Report{}, fmt.Errorf("fetch product: %w", err)
		}
		if !ok {
			return domain.Report{}, fmt.Errorf("%w: product %s", ErrNotFound, in.ProductID)
		}
		if product.OwnerID == reporter.ID {
			return domain.Report{}, fmt.Errorf("%w: cannot report your own product", ErrValidation)
		}
		report.ProductID = product.ID
	case domain.ReportComment:
		comment, ok, err := a.store.GetComment(in.CommentID)
		if err != nil {
			return domain.Report{}, fmt.Errorf("fetch comment: %w", err)
		}
		if !ok {
			return domain.Report{}, fmt.Errorf("%w: comment %s", ErrNotFound, in.CommentID)
		}
		if comment.AuthorID == reporter.ID {
			return domain.Report{}, fmt.Errorf("%w: cannot report your own comment", ErrValidation)
		}
		report.CommentID = comment.ID
	case domain.ReportUser:
		if in.ReportedUserID == reporter.ID {
			return domain.Report{}, fmt.Errorf("%w: cannot report yourself", ErrValidation)
		}
		if _, ok, err := a.store.GetUserByID(in.ReportedUserID); err != nil {
			return domain.Report{}, fmt.Errorf("fetch user: %w", err)
		} else if !ok {
			return domain.Report{}, fmt.Errorf("%w: user %s", ErrNotFound, in.ReportedUserID)
		}
		report.ReportedUserID = in.ReportedUserID
	default:
		return domain.Report{}, fmt.Errorf("%w: unknown report kind %q", ErrValidation, in.Kind)
	}

	if err := a.store.SaveReport(report); err != nil {
		return domain.Report{}, fmt.Errorf("save report: %w", err)
	}
	return report, nil
}

// ListMyReports returns reports filed by the user, newest first.
func (a *App) ListMyReports(user domain.User) ([]domain.Report, error) {
	reports, err := a.store.ListReportsByReporter(user.ID)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}
