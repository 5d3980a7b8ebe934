package reconcile

import (
	"fmt"
	"strings"

	"github.com/fakturpajak/backend/internal/domain/invoice"
)

// MatchQuality classifies how confidently an export row was matched to a
// local invoice
type MatchQuality string

const (
	MatchExact   MatchQuality = "exact"
	MatchPartial MatchQuality = "partial"
	MatchNone    MatchQuality = "none"
)

// Action is the recommended follow-up for a match result. Ambiguity is data,
// not an error: manual rows are expected, common outcomes.
type Action string

const (
	ActionUpdate Action = "update" // safe to apply automatically
	ActionIgnore Action = "ignore" // already synced, nothing to do
	ActionManual Action = "manual" // needs human review
)

// MatchResult pairs one export row with at most one local invoice
type MatchResult struct {
	Record  ExternalRecord
	Invoice *invoice.Invoice
	Quality MatchQuality
	Action  Action
	Reason  string
}

// Rule evaluates one step of the matching cascade. It returns the decision
// and true when it is decisive, or false to pass to the next rule.
type Rule func(rec ExternalRecord, candidates []invoice.Invoice) (MatchResult, bool)

// Matcher maps an export row to zero-or-one local invoice using an ordered
// cascade of rules over the candidates sharing the row's reference:
//
//  1. no candidates                  -> none/manual
//  2. unique buyer-tax-id match      -> exact (update, or ignore if synced)
//  3. several tax-id matches         -> disambiguate by calendar date
//  4. no tax-id match                -> buyer-name containment fallback
//
// The cascade depends only on the candidate set for a reference, so results
// are deterministic and independent of input row order.
type Matcher struct {
	rules []Rule
}

// NewMatcher creates a matcher with the standard rule cascade
func NewMatcher() *Matcher {
	return &Matcher{
		rules: []Rule{
			ruleNoCandidates,
			ruleUniqueTaxID,
			ruleTaxIDWithDate,
			ruleBuyerNameFallback,
		},
	}
}

// Match evaluates the cascade for one export row against the local invoices
// sharing its reference. The row must carry a non-empty invoice number.
func (m *Matcher) Match(rec ExternalRecord, candidates []invoice.Invoice) MatchResult {
	for _, rule := range m.rules {
		if res, decided := rule(rec, candidates); decided {
			return res
		}
	}
	// The cascade is exhaustive; this is unreachable with the standard rules.
	return MatchResult{
		Record:  rec,
		Quality: MatchNone,
		Action:  ActionManual,
		Reason:  "no matching rule produced a decision",
	}
}

// ruleNoCandidates handles references unknown to the local database
func ruleNoCandidates(rec ExternalRecord, candidates []invoice.Invoice) (MatchResult, bool) {
	if len(candidates) > 0 {
		return MatchResult{}, false
	}
	return MatchResult{
		Record:  rec,
		Quality: MatchNone,
		Action:  ActionManual,
		Reason:  "no matching reference found",
	}, true
}

// ruleUniqueTaxID decides when exactly one candidate shares the buyer tax id
func ruleUniqueTaxID(rec ExternalRecord, candidates []invoice.Invoice) (MatchResult, bool) {
	matches := filterByTaxID(rec, candidates)
	if len(matches) != 1 {
		return MatchResult{}, false
	}
	return decideForCandidate(rec, matches[0], "matched by reference and buyer tax id"), true
}

// ruleTaxIDWithDate disambiguates multiple tax-id matches by calendar date
func ruleTaxIDWithDate(rec ExternalRecord, candidates []invoice.Invoice) (MatchResult, bool) {
	matches := filterByTaxID(rec, candidates)
	if len(matches) < 2 {
		return MatchResult{}, false
	}

	recDate, hasDate := rec.Date()
	var dateMatches []invoice.Invoice
	if hasDate {
		for _, c := range matches {
			if SameDay(c.InvoiceDate, recDate) {
				dateMatches = append(dateMatches, c)
			}
		}
	}

	if len(dateMatches) == 1 {
		return decideForCandidate(rec, dateMatches[0],
			"matched by reference, buyer tax id and invoice date"), true
	}

	return MatchResult{
		Record:  rec,
		Quality: MatchPartial,
		Action:  ActionManual,
		Reason:  fmt.Sprintf("%d candidates share reference and buyer tax id; date did not disambiguate", len(matches)),
	}, true
}

// ruleBuyerNameFallback handles tax-id mismatches with a name containment
// check. A name match alone is never applied automatically.
func ruleBuyerNameFallback(rec ExternalRecord, candidates []invoice.Invoice) (MatchResult, bool) {
	if len(filterByTaxID(rec, candidates)) != 0 {
		return MatchResult{}, false
	}

	var nameMatches []invoice.Invoice
	for _, c := range candidates {
		if buyerNameContains(c.BuyerName, rec.BuyerName) {
			nameMatches = append(nameMatches, c)
		}
	}

	if len(nameMatches) == 1 {
		match := nameMatches[0]
		return MatchResult{
			Record:  rec,
			Invoice: &match,
			Quality: MatchPartial,
			Action:  ActionManual,
			Reason:  "buyer tax id mismatch; matched by buyer name only",
		}, true
	}

	return MatchResult{
		Record:  rec,
		Quality: MatchNone,
		Action:  ActionManual,
		Reason:  "reference found but no matching buyer information",
	}, true
}

// decideForCandidate produces the exact-quality decision for a single
// confirmed candidate
func decideForCandidate(rec ExternalRecord, candidate invoice.Invoice, reason string) MatchResult {
	res := MatchResult{
		Record:  rec,
		Invoice: &candidate,
		Quality: MatchExact,
		Reason:  reason,
	}
	if candidate.IsSyncedWith(rec.InvoiceNumber) {
		res.Action = ActionIgnore
		res.Reason = reason + "; invoice number already assigned"
	} else {
		res.Action = ActionUpdate
	}
	return res
}

// filterByTaxID returns the candidates sharing the record's buyer tax id.
// A blank tax id never identifies a buyer: two blank ids are not treated as
// equal, and such rows fall through to the name fallback.
func filterByTaxID(rec ExternalRecord, candidates []invoice.Invoice) []invoice.Invoice {
	var matches []invoice.Invoice
	for _, c := range candidates {
		if c.BuyerTaxID != "" && c.BuyerTaxID == rec.BuyerTaxID {
			matches = append(matches, c)
		}
	}
	return matches
}

// buyerNameContains checks case-insensitive substring containment in either
// direction between two buyer names
func buyerNameContains(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
