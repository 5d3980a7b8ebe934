package reconcile

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fakturpajak/backend/internal/domain/invoice"
	"github.com/fakturpajak/backend/internal/domain/reconcile"
)

// ApplyResult summarizes one reconciliation run. UpdatedInvoices and
// AmendedInvoices are disjoint: a header write counts in exactly one of them
// depending on the mapped status. FailedUpdates counts failed
// reference-groups, not the relations inside them.
type ApplyResult struct {
	TotalProcessed        int      `json:"total_processed"`
	UpdatedInvoices       int      `json:"updated_invoices"`
	AmendedInvoices       int      `json:"amended_invoices"`
	SkippedRecords        int      `json:"skipped_records"`
	ManualReviewRecords   int      `json:"manual_review_records"`
	HistoryRecordsCreated int      `json:"history_records_created"`
	FailedUpdates         int      `json:"failed_updates"`
	Errors                []string `json:"errors,omitempty"`
}

// ApplyService applies a Coretax export to the local invoice database.
//
// The run is grouped by business reference. Each group executes in its own
// transaction so one failing reference never rolls back the others; failures
// are reported per group and the run continues.
type ApplyService struct {
	scope   TransactionScope
	matcher *reconcile.Matcher
}

// NewApplyService creates a new ApplyService
func NewApplyService(scope TransactionScope) *ApplyService {
	return &ApplyService{
		scope:   scope,
		matcher: reconcile.NewMatcher(),
	}
}

// Apply runs one reconciliation pass over a batch of export records.
// A malformed amendment graph (cycle) aborts the whole batch before any
// write; per-reference failures abort only their own group.
func (s *ApplyService) Apply(ctx context.Context, records []reconcile.ExternalRecord) (*ApplyResult, error) {
	chains, err := reconcile.ResolveChains(records)
	if err != nil {
		return nil, err
	}

	refs, groups, err := chains.GroupByReference()
	if err != nil {
		return nil, err
	}

	result := &ApplyResult{}
	for _, ref := range refs {
		group := groups[ref]

		var stats ApplyResult
		err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			return s.applyGroup(ctx, repos, chains, ref, group, &stats)
		})
		if err != nil {
			// One failure and one error entry per reference-group, however
			// many relations the group holds
			result.TotalProcessed += len(group)
			result.FailedUpdates++
			result.Errors = append(result.Errors, fmt.Sprintf("reference %s: %v", ref, err))
			continue
		}
		result.merge(&stats)
	}
	return result, nil
}

// applyGroup processes one reference group inside its transaction, walking
// each chain from the original toward the final amendment
func (s *ApplyService) applyGroup(ctx context.Context, repos TransactionalRepositories, chains *reconcile.ChainSet, ref string, group []*reconcile.InvoiceRelation, stats *ApplyResult) error {
	candidates, err := repos.InvoiceRepo().FindByReference(ctx, ref)
	if err != nil {
		return err
	}

	for _, rel := range group {
		stats.TotalProcessed++

		match := s.matcher.Match(rel.Source, candidates)
		switch match.Action {
		case reconcile.ActionIgnore:
			// Already synced: nothing to write. A re-upload of the same
			// export must not grow the history trail.
			stats.SkippedRecords++
			continue
		case reconcile.ActionManual:
			stats.ManualReviewRecords++
			continue
		}

		target := match.Invoice
		if err := s.recordHistory(ctx, repos, chains, rel, target); err != nil {
			return err
		}
		stats.HistoryRecordsCreated++

		if !chains.IsChainFinal(rel.InvoiceNumber) {
			continue
		}

		// Never regress an assignment: write only when the invoice has no
		// number yet, or this run's chain proves the new number supersedes
		// the current one.
		current := target.AssignedInvoiceNumber
		if current != "" && current != rel.InvoiceNumber && !chains.Supersedes(rel.InvoiceNumber, current) {
			stats.SkippedRecords++
			continue
		}

		status := reconcile.MapStatus(rel.Status)
		if err := repos.InvoiceRepo().UpdateAssignment(ctx, target.ID, rel.InvoiceNumber, status); err != nil {
			return err
		}
		if status == invoice.StatusAmended {
			stats.AmendedInvoices++
		} else {
			stats.UpdatedInvoices++
		}
	}
	return nil
}

// recordHistory appends the header and detail snapshots for one chain position
func (s *ApplyService) recordHistory(ctx context.Context, repos TransactionalRepositories, chains *reconcile.ChainSet, rel *reconcile.InvoiceRelation, target *invoice.Invoice) error {
	index, err := chains.AmendmentIndex(rel.InvoiceNumber)
	if err != nil {
		return err
	}
	original, err := chains.OriginalOf(rel.InvoiceNumber)
	if err != nil {
		return err
	}

	snapshot := invoice.NewHistorySnapshot(target)
	snapshot.InvoiceNumber = rel.InvoiceNumber
	snapshot.OriginalInvoiceNumber = original
	snapshot.Status = reconcile.MapStatus(rel.Status)
	snapshot.AmendmentIndex = index
	snapshot.RecordID = rel.RecordID
	snapshot.AmendedRecordID = rel.AmendedRecordID
	snapshot.DocumentFormNumber = rel.DocumentFormNumber
	snapshot.Note = "recorded from Coretax export"

	if prev, ok := chains.PredecessorOf(rel.InvoiceNumber); ok {
		snapshot.PreviousInvoiceNumber = prev
	}
	if index > 0 {
		if date, ok := reconcile.ParseDate(rel.Date); ok {
			snapshot.AmendmentDate = &date
		}
	}
	if raw, err := json.Marshal(rel.Source); err == nil {
		snapshot.RawRecord = string(raw)
	}

	if err := repos.HistoryRepo().InsertSnapshot(ctx, snapshot); err != nil {
		return err
	}

	details, err := repos.InvoiceRepo().GetDetailLines(ctx, target.ID)
	if err != nil {
		return err
	}
	for _, line := range details {
		detailSnapshot := invoice.NewDetailHistorySnapshot(snapshot, line)
		if err := repos.HistoryRepo().InsertDetailSnapshot(ctx, detailSnapshot); err != nil {
			return err
		}
	}
	return nil
}

// merge folds one committed group's counters into the run totals
func (r *ApplyResult) merge(other *ApplyResult) {
	r.TotalProcessed += other.TotalProcessed
	r.UpdatedInvoices += other.UpdatedInvoices
	r.AmendedInvoices += other.AmendedInvoices
	r.SkippedRecords += other.SkippedRecords
	r.ManualReviewRecords += other.ManualReviewRecords
	r.HistoryRecordsCreated += other.HistoryRecordsCreated
	r.FailedUpdates += other.FailedUpdates
	r.Errors = append(r.Errors, other.Errors...)
}
