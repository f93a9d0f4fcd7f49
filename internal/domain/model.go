package domain

import "github.com/shopspring/decimal"

// Core domain models used internally. Wire/CSV shapes live in the adapters;
// keep these decoupled where helpful.

// ReferenceRecord is one open-item row from the ERP export. Customer is the
// canonical 8-digit account code; DocumentNumber and Reference are the
// alternate invoice-style keys. (Customer, DocumentNumber) pairs are unique
// within a loaded set.
type ReferenceRecord struct {
	DocumentNumber string
	Reference      string
	CurrencyValue  decimal.Decimal
	CurrencyKey    string
	Name           string
	Customer       string
}

// UnregisteredAccountName is the display name carried by placeholder records
// for codes that pass the valid-range check without a reference row.
const UnregisteredAccountName = "VALID ACCOUNT (NOT IN LEDGER)"

// PlaceholderRecord builds the synthetic record used when the range fallback
// accepts a code the reference table does not know.
func PlaceholderRecord(code string) ReferenceRecord {
	return ReferenceRecord{
		Name:     UnregisteredAccountName,
		Customer: code,
	}
}

// MatchKind tags how a candidate was classified and resolved.
type MatchKind string

const (
	MatchCustomer          MatchKind = "customer"
	MatchCustomerValid     MatchKind = "customer_valid"
	MatchCustomerDash      MatchKind = "customer_dash"
	MatchCustomerDashValid MatchKind = "customer_dash_valid"
	MatchInvoice           MatchKind = "invoice"
)

// Match is one resolved candidate: the normalized code, how it matched, and
// the reference record behind it (real, or a placeholder for the *_valid
// kinds). Matches are transient; only the first one per text is persisted.
type Match struct {
	Code   string
	Kind   MatchKind
	Record ReferenceRecord
}

// ExtractionStatus tracks whether a ticket's linked email body was fetched.
// The zero value means no extraction attempt has been recorded.
type ExtractionStatus string

const (
	ExtractionUnset  ExtractionStatus = ""
	Extracted        ExtractionStatus = "extracted"
	NothingToExtract ExtractionStatus = "nothing_to_extract"
)

// Ticket is one service-desk ticket. AccountNumber and AccountName are set
// and cleared together by reconciliation; ExtractedText and ExtractionStatus
// are owned by the email-extraction flow; import touches only the
// description and domain.
type Ticket struct {
	Ticket           string
	ShortDescription string
	EmailDomain      string
	AccountNumber    *string
	AccountName      *string
	ExtractedText    *string
	ExtractionStatus ExtractionStatus
}

// Matched reports whether the ticket carries a non-empty account binding.
func (t Ticket) Matched() bool {
	return t.AccountNumber != nil && *t.AccountNumber != ""
}

// TicketStats aggregates the reconciliation state of the ticket table.
type TicketStats struct {
	TotalTickets           int
	MatchedTickets         int
	ExtractedCount         int
	NothingToExtractCount  int
	PendingExtractionCount int
}

// MatchPercentage is the matched share in percent, 0 for an empty table.
func (s TicketStats) MatchPercentage() float64 {
	if s.TotalTickets == 0 {
		return 0
	}
	return float64(s.MatchedTickets) / float64(s.TotalTickets) * 100
}
