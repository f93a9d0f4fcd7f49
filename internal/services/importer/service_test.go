package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"deskmatch/internal/adapters/memory"
	"deskmatch/internal/domain"
)

func newService(t *testing.T) (*Service, *memory.ReferenceStore, *memory.TicketRepository) {
	t.Helper()
	refs := memory.NewReferenceStore()
	tickets := memory.NewTicketRepository()
	return New(refs, tickets, zap.NewNop()), refs, tickets
}

const referenceCSV = `"Document Number",Reference,"Company Code Currency Value","Company Code Currency Key",Name,Customer
1800000001,9900000001,1250.50,EUR,Acme Corp,23963450
1800000002,9900000002,80.00,EUR,Acme Corp,23963450
1800000003,9900000003,42.00,USD,,
`

func TestLoadReferenceCSV(t *testing.T) {
	svc, refs, _ := newService(t)

	loaded, err := svc.LoadReferenceCSV(context.Background(), strings.NewReader(referenceCSV), true)
	require.NoError(t, err)
	// The row with an empty customer is skipped.
	assert.Equal(t, 2, loaded)

	records, err := refs.LookupByCustomer(context.Background(), "23963450")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "1800000001", records[0].DocumentNumber)
	assert.Equal(t, "1250.5", records[0].CurrencyValue.String())
	assert.Equal(t, "EUR", records[0].CurrencyKey)
}

func TestLoadReferenceCSV_BOMHeader(t *testing.T) {
	svc, refs, _ := newService(t)

	csv := "\ufeffDocument Number,Reference,Company Code Currency Value,Company Code Currency Key,Name,Customer\n" +
		"1800000001,,10,EUR,Acme Corp,23963450\n"
	loaded, err := svc.LoadReferenceCSV(context.Background(), strings.NewReader(csv), true)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)

	records, err := refs.LookupByCustomer(context.Background(), "23963450")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLoadReferenceCSV_Replace(t *testing.T) {
	svc, refs, _ := newService(t)

	_, err := svc.LoadReferenceCSV(context.Background(), strings.NewReader(referenceCSV), true)
	require.NoError(t, err)

	next := "Document Number,Reference,Company Code Currency Value,Company Code Currency Key,Name,Customer\n" +
		"1800000009,,5,EUR,Globex,20500000\n"
	_, err = svc.LoadReferenceCSV(context.Background(), strings.NewReader(next), true)
	require.NoError(t, err)

	gone, err := refs.LookupByCustomer(context.Background(), "23963450")
	require.NoError(t, err)
	assert.Empty(t, gone)
	kept, err := refs.LookupByCustomer(context.Background(), "20500000")
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestLoadReferenceCSV_MissingCustomerColumn(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.LoadReferenceCSV(context.Background(), strings.NewReader("a,b\n1,2\n"), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Customer")
}

const deskCSV = `number,state,assigned_to,short_description,u_sender_address
RITM001,open,,Invoice 0023963450 needs review,billing@mail.acme.com
RITM002,open,,printer broken,someone@gmail.com
`

func TestLoadTicketsCSV_DeskShape(t *testing.T) {
	svc, _, tickets := newService(t)

	res, err := svc.LoadTicketsCSV(context.Background(), strings.NewReader(deskCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 0, res.Updated)

	ticket, err := tickets.Get(context.Background(), "RITM001")
	require.NoError(t, err)
	assert.Equal(t, "Invoice 0023963450 needs review", ticket.ShortDescription)
	// Sender domain is reduced to the registrable domain.
	assert.Equal(t, "acme.com", ticket.EmailDomain)
}

func TestLoadTicketsCSV_GenericShape(t *testing.T) {
	svc, _, tickets := newService(t)

	csv := "ticket,short description,eml_domain,account number,Account Name\n" +
		"RITM009,help with 23963450,acme.com,ignored,ignored\n"
	res, err := svc.LoadTicketsCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	ticket, err := tickets.Get(context.Background(), "RITM009")
	require.NoError(t, err)
	assert.Equal(t, "help with 23963450", ticket.ShortDescription)
	assert.Equal(t, "acme.com", ticket.EmailDomain)
	// Import never writes account fields, even on first insert.
	assert.Nil(t, ticket.AccountNumber)
	assert.Nil(t, ticket.AccountName)
}

func TestLoadTicketsCSV_ReimportPreservesOwnedFields(t *testing.T) {
	svc, _, tickets := newService(t)

	_, err := svc.LoadTicketsCSV(context.Background(), strings.NewReader(deskCSV))
	require.NoError(t, err)

	require.NoError(t, tickets.SetAccount(context.Background(), "RITM001", "23963450", "Acme Corp"))
	require.NoError(t, tickets.SetEmailBody(context.Background(), "RITM001", "body", domain.Extracted))

	updated := "number,short_description,u_sender_address\n" +
		"RITM001,updated description,billing@mail.acme.com\n"
	res, err := svc.LoadTicketsCSV(context.Background(), strings.NewReader(updated))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 1, res.Updated)

	ticket, err := tickets.Get(context.Background(), "RITM001")
	require.NoError(t, err)
	assert.Equal(t, "updated description", ticket.ShortDescription)
	require.NotNil(t, ticket.AccountNumber)
	assert.Equal(t, "23963450", *ticket.AccountNumber)
	assert.Equal(t, domain.Extracted, ticket.ExtractionStatus)
}

func TestSenderDomain(t *testing.T) {
	tests := []struct {
		address string
		want    string
	}{
		{"billing@acme.com", "acme.com"},
		{"billing@mail.acme.com", "acme.com"},
		{"Billing@ACME.com", "acme.com"},
		{"user@sub.example.co.uk", "example.co.uk"},
		{"not-an-address", ""},
		{"trailing@", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SenderDomain(tt.address), "address %q", tt.address)
	}
}
