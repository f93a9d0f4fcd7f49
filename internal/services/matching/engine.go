package matching

import (
	"context"
	"regexp"
	"strconv"

	"deskmatch/internal/domain"
	"deskmatch/internal/ports"
)

var (
	// Whole-number tokens of 8 to 10 digits. Longer runs are left alone.
	barePattern = regexp.MustCompile(`\b\d{8,10}\b`)

	// Dash-compressed account codes as humans write them: 239-63450 and
	// 20-572883 both collapse to an 8-digit customer code.
	dash35Pattern = regexp.MustCompile(`\b(\d{3})-(\d{5})\b`)
	dash26Pattern = regexp.MustCompile(`\b(\d{2})-(\d{6})\b`)
)

// validRanges are the inclusive account-number bands accepted even without a
// reference row. The third band overlaps the first on purpose; membership in
// any band is enough.
var validRanges = [][2]int{
	{20600000, 20699999},
	{25300000, 25399999},
	{20300000, 24999999},
	{25900000, 25999999},
}

// InValidRange reports whether code is numeric and inside one of the
// accepted account-number bands.
func InValidRange(code string) bool {
	n, err := strconv.Atoi(code)
	if err != nil {
		return false
	}
	for _, r := range validRanges {
		if n >= r[0] && n <= r[1] {
			return true
		}
	}
	return false
}

// Engine extracts numeric candidates from free text and resolves them
// against the reference store.
type Engine struct {
	refs ports.ReferenceStore
}

func New(refs ports.ReferenceStore) *Engine {
	return &Engine{refs: refs}
}

// FindMatches scans text and returns every resolved candidate in extraction
// order: dash 3+5 codes first, then dash 2+6, then bare 8-10 digit tokens in
// text order. Customer-style candidates fall back to the valid-range check
// when the store has no row; invoice candidates never do. Candidates that
// resolve to nothing are dropped without error, and no deduplication is
// performed.
func (e *Engine) FindMatches(ctx context.Context, text string) ([]domain.Match, error) {
	var matches []domain.Match

	for _, groups := range dash35Pattern.FindAllStringSubmatch(text, -1) {
		found, err := e.matchCustomer(ctx, groups[1]+groups[2], domain.MatchCustomerDash, domain.MatchCustomerDashValid)
		if err != nil {
			return nil, err
		}
		matches = append(matches, found...)
	}

	for _, groups := range dash26Pattern.FindAllStringSubmatch(text, -1) {
		found, err := e.matchCustomer(ctx, groups[1]+groups[2], domain.MatchCustomerDash, domain.MatchCustomerDashValid)
		if err != nil {
			return nil, err
		}
		matches = append(matches, found...)
	}

	for _, token := range barePattern.FindAllString(text, -1) {
		switch {
		case len(token) == 10 && token[:2] == "00":
			// 00-prefixed document-style rendering of a customer code.
			found, err := e.matchCustomer(ctx, token[2:], domain.MatchCustomer, domain.MatchCustomerValid)
			if err != nil {
				return nil, err
			}
			matches = append(matches, found...)
		case len(token) == 8:
			found, err := e.matchCustomer(ctx, token, domain.MatchCustomer, domain.MatchCustomerValid)
			if err != nil {
				return nil, err
			}
			matches = append(matches, found...)
		case len(token) == 10:
			found, err := e.matchInvoice(ctx, token)
			if err != nil {
				return nil, err
			}
			matches = append(matches, found...)
		default:
			// 9-digit tokens carry no known format and stay unmatched.
		}
	}

	return matches, nil
}

// matchCustomer resolves an 8-digit customer candidate: reference lookup
// first, valid-range placeholder second, nothing third.
func (e *Engine) matchCustomer(ctx context.Context, code string, kind, validKind domain.MatchKind) ([]domain.Match, error) {
	records, err := e.refs.LookupByCustomer(ctx, code)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		matches := make([]domain.Match, 0, len(records))
		for _, rec := range records {
			matches = append(matches, domain.Match{Code: code, Kind: kind, Record: rec})
		}
		return matches, nil
	}
	if InValidRange(code) {
		return []domain.Match{{Code: code, Kind: validKind, Record: domain.PlaceholderRecord(code)}}, nil
	}
	return nil, nil
}

func (e *Engine) matchInvoice(ctx context.Context, code string) ([]domain.Match, error) {
	records, err := e.refs.LookupByDocumentOrReference(ctx, code)
	if err != nil {
		return nil, err
	}
	matches := make([]domain.Match, 0, len(records))
	for _, rec := range records {
		matches = append(matches, domain.Match{Code: code, Kind: domain.MatchInvoice, Record: rec})
	}
	return matches, nil
}
