package reconcile

import (
	"context"
	"sort"

	"github.com/fakturpajak/backend/internal/domain/invoice"
	"github.com/fakturpajak/backend/internal/domain/reconcile"
	"github.com/google/uuid"
)

// MatchReport is the preview projection of one export record
type MatchReport struct {
	Reference      string                 `json:"reference"`
	InvoiceNumber  string                 `json:"invoice_number"`
	BuyerName      string                 `json:"buyer_name"`
	Action         reconcile.Action       `json:"action"`
	Quality        reconcile.MatchQuality `json:"quality"`
	Reason         string                 `json:"reason"`
	InvoiceID      *uuid.UUID             `json:"invoice_id,omitempty"`
	AmendmentIndex int                    `json:"amendment_index"`
	ChainFinal     bool                   `json:"chain_final"`
}

// PreviewStats aggregates the preview counts. The quality counters classify
// every evaluated chain position; Ignored counts positions whose invoice
// already carries the exported number.
type PreviewStats struct {
	TotalRecords      int `json:"total_records"`
	RecordsWithNumber int `json:"records_with_number"`
	DistinctNumbers   int `json:"distinct_numbers"`
	ExactMatches      int `json:"exact_matches"`
	PartialMatches    int `json:"partial_matches"`
	NoMatches         int `json:"no_matches"`
	Updates           int `json:"updates"`
	ManualReview      int `json:"manual_review"`
	Ignored           int `json:"ignored"`
}

// PreviewResult is the full dry-run projection of a reconciliation run
type PreviewResult struct {
	Stats   PreviewStats  `json:"stats"`
	Reports []MatchReport `json:"reports"`
}

// PreviewService computes what a reconciliation run would do without writing
// anything. It reads invoices through the plain repository, never a
// transaction scope.
type PreviewService struct {
	invoiceRepo invoice.Repository
	matcher     *reconcile.Matcher
}

// NewPreviewService creates a new PreviewService
func NewPreviewService(invoiceRepo invoice.Repository) *PreviewService {
	return &PreviewService{
		invoiceRepo: invoiceRepo,
		matcher:     reconcile.NewMatcher(),
	}
}

// Preview evaluates the match cascade for every distinct invoice number in the
// export. Reports come back ordered update, manual, ignore, then by reference
// and invoice number, so reviewers see actionable rows first.
func (s *PreviewService) Preview(ctx context.Context, records []reconcile.ExternalRecord) (*PreviewResult, error) {
	chains, err := reconcile.ResolveChains(records)
	if err != nil {
		return nil, err
	}

	withNumber := 0
	for _, rec := range records {
		if rec.HasInvoiceNumber() {
			withNumber++
		}
	}

	result := &PreviewResult{
		Stats: PreviewStats{
			TotalRecords:      len(records),
			RecordsWithNumber: withNumber,
			DistinctNumbers:   chains.Len(),
		},
	}

	candidateCache := make(map[string][]invoice.Invoice)
	for _, rel := range chains.Relations() {
		candidates, ok := candidateCache[rel.Reference]
		if !ok {
			candidates, err = s.invoiceRepo.FindByReference(ctx, rel.Reference)
			if err != nil {
				return nil, err
			}
			candidateCache[rel.Reference] = candidates
		}

		match := s.matcher.Match(rel.Source, candidates)
		index, err := chains.AmendmentIndex(rel.InvoiceNumber)
		if err != nil {
			return nil, err
		}

		report := MatchReport{
			Reference:      rel.Reference,
			InvoiceNumber:  rel.InvoiceNumber,
			BuyerName:      rel.BuyerName,
			Action:         match.Action,
			Quality:        match.Quality,
			Reason:         match.Reason,
			AmendmentIndex: index,
			ChainFinal:     chains.IsChainFinal(rel.InvoiceNumber),
		}
		if match.Invoice != nil {
			id := match.Invoice.ID
			report.InvoiceID = &id
		}
		result.Reports = append(result.Reports, report)

		switch match.Quality {
		case reconcile.MatchExact:
			result.Stats.ExactMatches++
		case reconcile.MatchPartial:
			result.Stats.PartialMatches++
		default:
			result.Stats.NoMatches++
		}

		switch match.Action {
		case reconcile.ActionUpdate:
			result.Stats.Updates++
		case reconcile.ActionManual:
			result.Stats.ManualReview++
		case reconcile.ActionIgnore:
			result.Stats.Ignored++
		}
	}

	sort.SliceStable(result.Reports, func(i, j int) bool {
		a, b := result.Reports[i], result.Reports[j]
		if a.Action != b.Action {
			return actionRank(a.Action) < actionRank(b.Action)
		}
		if a.Reference != b.Reference {
			return a.Reference < b.Reference
		}
		return a.InvoiceNumber < b.InvoiceNumber
	})
	return result, nil
}

func actionRank(a reconcile.Action) int {
	switch a {
	case reconcile.ActionUpdate:
		return 0
	case reconcile.ActionManual:
		return 1
	default:
		return 2
	}
}
