package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"deskmatch/internal/domain"
	"deskmatch/internal/ports"
)

// Service loads the two tabular exports: ERP open items into the reference
// store and service-desk tickets into the ticket table.
type Service struct {
	refs    ports.ReferenceStore
	tickets ports.TicketRepository
	log     *zap.Logger
}

func New(refs ports.ReferenceStore, tickets ports.TicketRepository, log *zap.Logger) *Service {
	return &Service{refs: refs, tickets: tickets, log: log}
}

// Reference export column headers. Matching is whitespace-, quote- and
// BOM-tolerant but otherwise exact.
const (
	colDocumentNumber = "Document Number"
	colReference      = "Reference"
	colCurrencyValue  = "Company Code Currency Value"
	colCurrencyKey    = "Company Code Currency Key"
	colName           = "Name"
	colCustomer       = "Customer"
)

// LoadReferenceCSV reads ERP rows from r and loads them into the reference
// store. Rows with an empty customer code are skipped, as are rows whose
// currency value does not parse (the value becomes zero, the row stays).
func (s *Service) LoadReferenceCSV(ctx context.Context, r io.Reader, replace bool) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)
	if _, ok := cols[colCustomer]; !ok {
		return 0, fmt.Errorf("reference export is missing the %q column", colCustomer)
	}

	var records []domain.ReferenceRecord
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read row: %w", err)
		}
		customer := field(row, cols, colCustomer)
		if customer == "" {
			skipped++
			continue
		}
		value, err := decimal.NewFromString(field(row, cols, colCurrencyValue))
		if err != nil {
			value = decimal.Zero
		}
		records = append(records, domain.ReferenceRecord{
			DocumentNumber: field(row, cols, colDocumentNumber),
			Reference:      field(row, cols, colReference),
			CurrencyValue:  value,
			CurrencyKey:    field(row, cols, colCurrencyKey),
			Name:           field(row, cols, colName),
			Customer:       customer,
		})
	}

	loaded, err := s.refs.Load(ctx, records, replace)
	if err != nil {
		return 0, err
	}
	s.log.Info("reference data loaded",
		zap.Int("loaded", loaded),
		zap.Int("skipped", skipped),
		zap.Bool("replace", replace))
	return loaded, nil
}

// TicketImportResult counts what a ticket load did.
type TicketImportResult struct {
	Created int
	Updated int
}

// LoadTicketsCSV reads service-desk rows from r and upserts them. Two shapes
// are accepted: the raw desk export (number, short_description,
// u_sender_address, extra columns ignored) and the generic shape (ticket,
// short description, domain in the first three columns). Either way import
// only ever writes the description and email domain.
func (s *Service) LoadTicketsCSV(ctx context.Context, r io.Reader) (TicketImportResult, error) {
	var res TicketImportResult

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return res, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)

	_, deskShape := cols["number"]
	if deskShape {
		_, deskShape = cols["short_description"]
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read row: %w", err)
		}

		var imp ports.TicketImport
		if deskShape {
			imp = ports.TicketImport{
				Ticket:           field(row, cols, "number"),
				ShortDescription: field(row, cols, "short_description"),
				EmailDomain:      SenderDomain(field(row, cols, "u_sender_address")),
			}
		} else {
			imp = ports.TicketImport{Ticket: strings.TrimSpace(cell(row, 0))}
			imp.ShortDescription = strings.TrimSpace(cell(row, 1))
			imp.EmailDomain = strings.TrimSpace(cell(row, 2))
		}
		if imp.Ticket == "" {
			continue
		}

		created, err := s.tickets.UpsertImported(ctx, imp)
		if err != nil {
			return res, err
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}

	s.log.Info("tickets loaded", zap.Int("created", res.Created), zap.Int("updated", res.Updated))
	return res, nil
}

// SenderDomain derives the ticket's email domain from a sender address:
// the part after @, lowered and reduced to the registrable domain (eTLD+1)
// where the public suffix list knows it. Empty when there is no address.
func SenderDomain(address string) string {
	address = strings.TrimSpace(address)
	at := strings.LastIndex(address, "@")
	if at < 0 || at == len(address)-1 {
		return ""
	}
	host := strings.ToLower(address[at+1:])
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return registrable
}

// indexColumns maps cleaned header names to their positions. Cleaning strips
// surrounding whitespace, stray quotes and a UTF-8 BOM.
func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		name = strings.Trim(name, `" `)
		name = strings.TrimSpace(name)
		if name != "" {
			cols[name] = i
		}
	}
	return cols
}

func field(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok {
		return ""
	}
	return strings.TrimSpace(cell(row, i))
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
