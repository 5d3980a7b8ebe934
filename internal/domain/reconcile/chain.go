package reconcile

import (
	"sort"

	"github.com/fakturpajak/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ErrChainCycle is returned when the amendment links in an export form a
// cycle. Well-formed exports are DAGs; a cycle means corrupt input, and the
// whole batch is rejected rather than writing history in a wrong order.
var ErrChainCycle = shared.NewDomainError("CHAIN_CYCLE", "Amendment chain contains a cycle")

// InvoiceRelation describes one distinct invoice number from the export and
// its position in the amendment graph. One relation exists per distinct
// non-empty invoice number; when a number appears on several rows the last
// row wins.
type InvoiceRelation struct {
	InvoiceNumber        string
	AmendedInvoiceNumber string // forward link: the number that supersedes this one, empty if latest
	Status               string
	Reference            string
	Date                 string
	RecordID             string
	AmendedRecordID      string
	DocumentFormNumber   string
	BuyerTaxID           string
	BuyerName            string
	DPP                  decimal.Decimal
	PPN                  decimal.Decimal

	// Source is the export row the relation was built from, kept for match
	// evaluation and audit serialization.
	Source ExternalRecord
}

// ChainSet holds the resolved amendment graph for one reconciliation run:
// one InvoiceRelation per distinct invoice number plus the backward links
// needed to walk chains toward their original.
type ChainSet struct {
	relations   map[string]*InvoiceRelation
	predecessor map[string]string // invoice number -> the number it amends
}

// ResolveChains builds the amendment graph from a batch of export rows.
// Only rows with a non-empty invoice number participate. Forward links are
// resolved by mapping each row's AmendedRecordID through recordId ->
// invoiceNumber.
func ResolveChains(records []ExternalRecord) (*ChainSet, error) {
	byRecordID := make(map[string]string, len(records))
	for _, rec := range records {
		if rec.RecordID != "" && rec.HasInvoiceNumber() {
			byRecordID[rec.RecordID] = rec.InvoiceNumber
		}
	}

	cs := &ChainSet{
		relations:   make(map[string]*InvoiceRelation),
		predecessor: make(map[string]string),
	}

	for _, rec := range records {
		if !rec.HasInvoiceNumber() {
			continue
		}
		cs.relations[rec.InvoiceNumber] = &InvoiceRelation{
			InvoiceNumber:      rec.InvoiceNumber,
			Status:             rec.Status,
			Reference:          rec.Reference,
			Date:               rec.InvoiceDate,
			RecordID:           rec.RecordID,
			AmendedRecordID:    rec.AmendedRecordID,
			DocumentFormNumber: rec.DocumentFormNumber,
			BuyerTaxID:         rec.BuyerTaxID,
			BuyerName:          rec.BuyerName,
			DPP:                parseAmount(rec.SellingPrice),
			PPN:                parseAmount(rec.VAT),
			Source:             rec,
		}
	}

	// Second pass: resolve forward links through the record-id map
	for _, rec := range records {
		if !rec.HasInvoiceNumber() || rec.AmendedRecordID == "" {
			continue
		}
		target, ok := byRecordID[rec.AmendedRecordID]
		if !ok || target == rec.InvoiceNumber {
			continue
		}
		if prev, ok := cs.relations[target]; ok {
			prev.AmendedInvoiceNumber = rec.InvoiceNumber
			cs.predecessor[rec.InvoiceNumber] = target
		}
	}

	// Validate: every chain must terminate within len(relations) steps
	for number := range cs.relations {
		if _, err := cs.OriginalOf(number); err != nil {
			return nil, err
		}
	}

	return cs, nil
}

// parseAmount parses a decimal string from the export, zero on failure.
// Field format validation is not the resolver's job.
func parseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Len returns the number of distinct invoice numbers in the set
func (cs *ChainSet) Len() int {
	return len(cs.relations)
}

// Get returns the relation for an invoice number
func (cs *ChainSet) Get(number string) (*InvoiceRelation, bool) {
	rel, ok := cs.relations[number]
	return rel, ok
}

// Relations returns all relations ordered by invoice number for determinism
func (cs *ChainSet) Relations() []*InvoiceRelation {
	out := make([]*InvoiceRelation, 0, len(cs.relations))
	for _, rel := range cs.relations {
		out = append(out, rel)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceNumber < out[j].InvoiceNumber })
	return out
}

// PredecessorOf returns the invoice number immediately preceding the given
// one in its chain, if any
func (cs *ChainSet) PredecessorOf(number string) (string, bool) {
	prev, ok := cs.predecessor[number]
	return prev, ok
}

// OriginalOf walks backward from the given invoice number to the root of its
// chain. The walk is capped at the number of distinct invoice numbers; if the
// cap is exceeded the input contained a cycle.
func (cs *ChainSet) OriginalOf(number string) (string, error) {
	current := number
	for steps := 0; ; steps++ {
		if steps > len(cs.relations) {
			return "", ErrChainCycle
		}
		prev, ok := cs.predecessor[current]
		if !ok {
			return current, nil
		}
		current = prev
	}
}

// AmendmentIndex returns the 0-based position of an invoice number in its
// chain: 0 for the original, incrementing per amendment.
func (cs *ChainSet) AmendmentIndex(number string) (int, error) {
	chain, err := cs.ChainOf(number)
	if err != nil {
		return 0, err
	}
	return len(chain) - 1, nil
}

// ChainOf assembles the chain from the original up to the given node by
// walking backward and prepending.
func (cs *ChainSet) ChainOf(number string) ([]string, error) {
	chain := []string{number}
	current := number
	for steps := 0; ; steps++ {
		if steps > len(cs.relations) {
			return nil, ErrChainCycle
		}
		prev, ok := cs.predecessor[current]
		if !ok {
			return chain, nil
		}
		chain = append([]string{prev}, chain...)
		current = prev
	}
}

// IsChainFinal reports whether the invoice number has no successor, i.e. it
// is the latest state the export knows about
func (cs *ChainSet) IsChainFinal(number string) bool {
	rel, ok := cs.relations[number]
	return ok && rel.AmendedInvoiceNumber == ""
}

// Supersedes reports whether invoice number a sits at a later position than b
// within the same chain. Used by the applier to guard against regressing an
// already-assigned number.
func (cs *ChainSet) Supersedes(a, b string) bool {
	origA, errA := cs.OriginalOf(a)
	origB, errB := cs.OriginalOf(b)
	if errA != nil || errB != nil || origA != origB {
		return false
	}
	idxA, errA := cs.AmendmentIndex(a)
	idxB, errB := cs.AmendmentIndex(b)
	if errA != nil || errB != nil {
		return false
	}
	return idxA > idxB
}

// GroupByReference groups relations by their business reference, each group
// sorted by amendment index ascending (original first). References are
// returned in sorted order so a run processes groups deterministically.
func (cs *ChainSet) GroupByReference() ([]string, map[string][]*InvoiceRelation, error) {
	groups := make(map[string][]*InvoiceRelation)
	for _, rel := range cs.relations {
		groups[rel.Reference] = append(groups[rel.Reference], rel)
	}

	refs := make([]string, 0, len(groups))
	for ref, rels := range groups {
		var sortErr error
		sort.Slice(rels, func(i, j int) bool {
			idxI, errI := cs.AmendmentIndex(rels[i].InvoiceNumber)
			idxJ, errJ := cs.AmendmentIndex(rels[j].InvoiceNumber)
			if errI != nil || errJ != nil {
				sortErr = ErrChainCycle
				return false
			}
			if idxI != idxJ {
				return idxI < idxJ
			}
			return rels[i].InvoiceNumber < rels[j].InvoiceNumber
		})
		if sortErr != nil {
			return nil, nil, sortErr
		}
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs, groups, nil
}
