package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"deskmatch/internal/adapters/memory"
	"deskmatch/internal/domain"
	"deskmatch/internal/ports"
	"deskmatch/internal/services/matching"
)

type fixture struct {
	refs    *memory.ReferenceStore
	tickets *memory.TicketRepository
	svc     *Service
}

func newFixture(t *testing.T, records ...domain.ReferenceRecord) *fixture {
	t.Helper()
	refs := memory.NewReferenceStore()
	_, err := refs.Load(context.Background(), records, true)
	require.NoError(t, err)
	tickets := memory.NewTicketRepository()
	svc := New(matching.New(refs), tickets, zap.NewNop())
	return &fixture{refs: refs, tickets: tickets, svc: svc}
}

func (f *fixture) addTicket(t *testing.T, id, description string) {
	t.Helper()
	_, err := f.tickets.UpsertImported(context.Background(), ports.TicketImport{
		Ticket:           id,
		ShortDescription: description,
	})
	require.NoError(t, err)
}

func TestAssign_BindsFirstMatch(t *testing.T) {
	f := newFixture(t, domain.ReferenceRecord{Name: "Acme Corp", Customer: "23963450"})
	f.addTicket(t, "RITM001", "Invoice 0023963450 needs review")

	ok, err := f.svc.Assign(context.Background(), "RITM001", "Invoice 0023963450 needs review")
	require.NoError(t, err)
	assert.True(t, ok)

	ticket, err := f.tickets.Get(context.Background(), "RITM001")
	require.NoError(t, err)
	require.NotNil(t, ticket.AccountNumber)
	assert.Equal(t, "23963450", *ticket.AccountNumber)
	require.NotNil(t, ticket.AccountName)
	assert.Equal(t, "Acme Corp", *ticket.AccountName)
}

func TestAssign_RangeFallbackWithEmptyStore(t *testing.T) {
	f := newFixture(t)
	f.addTicket(t, "RITM001", "ref 20987654")

	ok, err := f.svc.Assign(context.Background(), "RITM001", "ref 20987654")
	require.NoError(t, err)
	assert.True(t, ok)

	ticket, err := f.tickets.Get(context.Background(), "RITM001")
	require.NoError(t, err)
	require.NotNil(t, ticket.AccountNumber)
	assert.Equal(t, "20987654", *ticket.AccountNumber)
	// Placeholder records carry the sentinel name.
	require.NotNil(t, ticket.AccountName)
	assert.Equal(t, domain.UnregisteredAccountName, *ticket.AccountName)
}

func TestAssign_ClearsOnNoMatch(t *testing.T) {
	f := newFixture(t, domain.ReferenceRecord{Name: "Acme Corp", Customer: "23963450"})
	f.addTicket(t, "RITM001", "x")
	require.NoError(t, f.tickets.SetAccount(context.Background(), "RITM001", "23963450", "Acme Corp"))

	ok, err := f.svc.Assign(context.Background(), "RITM001", "no codes in this text")
	require.NoError(t, err)
	assert.False(t, ok)

	ticket, err := f.tickets.Get(context.Background(), "RITM001")
	require.NoError(t, err)
	assert.Nil(t, ticket.AccountNumber)
	assert.Nil(t, ticket.AccountName)
}

func TestAssign_Idempotent(t *testing.T) {
	f := newFixture(t, domain.ReferenceRecord{Name: "Acme Corp", Customer: "23963450"})
	f.addTicket(t, "RITM001", "see 239-63450")

	for i := 0; i < 2; i++ {
		ok, err := f.svc.Assign(context.Background(), "RITM001", "see 239-63450")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ticket, err := f.tickets.Get(context.Background(), "RITM001")
	require.NoError(t, err)
	require.NotNil(t, ticket.AccountNumber)
	assert.Equal(t, "23963450", *ticket.AccountNumber)
}

func TestReconcileAll(t *testing.T) {
	f := newFixture(t, domain.ReferenceRecord{Name: "Acme Corp", Customer: "23963450"})
	f.addTicket(t, "RITM001", "Invoice 0023963450 needs review")
	f.addTicket(t, "RITM002", "nothing useful here")
	f.addTicket(t, "RITM003", "ref 20987654")

	matched, err := f.svc.ReconcileAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, matched)

	unmatched, err := f.tickets.Get(context.Background(), "RITM002")
	require.NoError(t, err)
	assert.Nil(t, unmatched.AccountNumber)
}

func TestRecordEmailBody_Extracted(t *testing.T) {
	f := newFixture(t, domain.ReferenceRecord{Name: "Acme Corp", Customer: "23963450"})
	f.addTicket(t, "RITM001", "no codes in the description")

	err := f.svc.RecordEmailBody(context.Background(), "RITM001", "please bill account 23963450")
	require.NoError(t, err)

	ticket, err := f.tickets.Get(context.Background(), "RITM001")
	require.NoError(t, err)
	assert.Equal(t, domain.Extracted, ticket.ExtractionStatus)
	require.NotNil(t, ticket.ExtractedText)
	require.NotNil(t, ticket.AccountNumber)
	assert.Equal(t, "23963450", *ticket.AccountNumber)
}

func TestRecordEmailBody_Blank(t *testing.T) {
	f := newFixture(t)
	f.addTicket(t, "RITM001", "desc")

	err := f.svc.RecordEmailBody(context.Background(), "RITM001", "   \n")
	require.NoError(t, err)

	ticket, err := f.tickets.Get(context.Background(), "RITM001")
	require.NoError(t, err)
	assert.Equal(t, domain.NothingToExtract, ticket.ExtractionStatus)
	assert.Nil(t, ticket.AccountNumber)
}
