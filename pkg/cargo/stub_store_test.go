package cargo

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

const fixedClockUnix int64 = 1767225600 // 2026-01-01T00:00:00Z

type stubStore struct {
	bookings              []Booking
	invoices              []Invoice
	entries               []LedgerEntry
	daybook               []DaybookEntry
	lastID                int64
	bookingConflicts      int
	invoiceConflicts      int
	insertLedgerError     error
	insertDaybookError    error
	listEntriesError      error
	summarizeError        error
	pingError             error
	transactionsCommitted int
}

type stubSnapshot struct {
	bookings []Booking
	invoices []Invoice
	entries  []LedgerEntry
	daybook  []DaybookEntry
	lastID   int64
}

func newStubStore(test *testing.T) *stubStore {
	test.Helper()
	return &stubStore{}
}

func mustNewService(test *testing.T, store Store, options ...ServiceOption) *Service {
	test.Helper()
	service, err := NewService(store, func() int64 { return fixedClockUnix }, options...)
	if err != nil {
		test.Fatalf("service init failed: %v", err)
	}
	return service
}

func mustPartyName(test *testing.T, raw string) PartyName {
	test.Helper()
	party, err := NewPartyName(raw)
	if err != nil {
		test.Fatalf("party name: %v", err)
	}
	return party
}

func mustPositiveAmount(test *testing.T, raw float64) PositiveAmount {
	test.Helper()
	amount, err := NewPositiveAmount(decimal.NewFromFloat(raw))
	if err != nil {
		test.Fatalf("positive amount: %v", err)
	}
	return amount
}

func mustEntryAmount(test *testing.T, raw float64) EntryAmount {
	test.Helper()
	amount, err := NewEntryAmount(decimal.NewFromFloat(raw))
	if err != nil {
		test.Fatalf("entry amount: %v", err)
	}
	return amount
}

func mustDate(test *testing.T, raw string) time.Time {
	test.Helper()
	parsed, err := ParseDate(raw)
	if err != nil {
		test.Fatalf("date: %v", err)
	}
	return parsed
}

func (store *stubStore) snapshot() stubSnapshot {
	return stubSnapshot{
		bookings: append([]Booking(nil), store.bookings...),
		invoices: append([]Invoice(nil), store.invoices...),
		entries:  append([]LedgerEntry(nil), store.entries...),
		daybook:  append([]DaybookEntry(nil), store.daybook...),
		lastID:   store.lastID,
	}
}

func (store *stubStore) restore(snapshot stubSnapshot) {
	store.bookings = snapshot.bookings
	store.invoices = snapshot.invoices
	store.entries = snapshot.entries
	store.daybook = snapshot.daybook
	store.lastID = snapshot.lastID
}

func (store *stubStore) nextID() int64 {
	store.lastID++
	return store.lastID
}

func (store *stubStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error {
	snapshot := store.snapshot()
	if err := fn(ctx, store); err != nil {
		store.restore(snapshot)
		return err
	}
	store.transactionsCommitted++
	return nil
}

func (store *stubStore) Ping(context.Context) error {
	return store.pingError
}

func (store *stubStore) MaxBiltyNumber(context.Context) (int64, bool, error) {
	var currentMax int64
	for _, booking := range store.bookings {
		if booking.BiltyNumber.Int64() > currentMax {
			currentMax = booking.BiltyNumber.Int64()
		}
	}
	return currentMax, len(store.bookings) > 0, nil
}

func (store *stubStore) InsertBooking(_ context.Context, booking *Booking) error {
	if store.bookingConflicts > 0 {
		store.bookingConflicts--
		return WrapError("store", "booking", "duplicate", ErrDuplicateBiltyNumber)
	}
	for _, existing := range store.bookings {
		if existing.BiltyNumber == booking.BiltyNumber {
			return WrapError("store", "booking", "duplicate", ErrDuplicateBiltyNumber)
		}
	}
	booking.ID = store.nextID()
	booking.CreatedAt = time.Unix(fixedClockUnix, 0).UTC()
	store.bookings = append(store.bookings, *booking)
	return nil
}

func (store *stubStore) GetBooking(_ context.Context, biltyNumber BiltyNumber) (Booking, error) {
	for _, booking := range store.bookings {
		if booking.BiltyNumber == biltyNumber {
			return booking, nil
		}
	}
	return Booking{}, WrapError("store", "booking", "get", ErrBookingNotFound)
}

func (store *stubStore) ListBookings(context.Context) ([]Booking, error) {
	bookings := append([]Booking(nil), store.bookings...)
	sort.Slice(bookings, func(left, right int) bool { return bookings[left].ID > bookings[right].ID })
	return bookings, nil
}

func (store *stubStore) MaxInvoiceNumber(context.Context) (int64, bool, error) {
	var currentMax int64
	for _, invoice := range store.invoices {
		if invoice.InvoiceNumber.Int64() > currentMax {
			currentMax = invoice.InvoiceNumber.Int64()
		}
	}
	return currentMax, len(store.invoices) > 0, nil
}

func (store *stubStore) InsertInvoice(_ context.Context, invoice *Invoice) error {
	if store.invoiceConflicts > 0 {
		store.invoiceConflicts--
		return WrapError("store", "invoice", "duplicate", ErrDuplicateInvoiceNumber)
	}
	for _, existing := range store.invoices {
		if existing.InvoiceNumber == invoice.InvoiceNumber {
			return WrapError("store", "invoice", "duplicate", ErrDuplicateInvoiceNumber)
		}
	}
	invoice.ID = InvoiceID(store.nextID())
	store.invoices = append(store.invoices, *invoice)
	return nil
}

func (store *stubStore) GetInvoice(_ context.Context, invoiceID InvoiceID) (Invoice, error) {
	for _, invoice := range store.invoices {
		if invoice.ID == invoiceID {
			return invoice, nil
		}
	}
	return Invoice{}, WrapError("store", "invoice", "get", ErrInvoiceNotFound)
}

func (store *stubStore) ListInvoices(context.Context) ([]Invoice, error) {
	invoices := append([]Invoice(nil), store.invoices...)
	sort.Slice(invoices, func(left, right int) bool { return invoices[left].ID > invoices[right].ID })
	return invoices, nil
}

func (store *stubStore) DeleteInvoice(_ context.Context, invoiceID InvoiceID) error {
	for index, invoice := range store.invoices {
		if invoice.ID == invoiceID {
			store.invoices = append(store.invoices[:index:index], store.invoices[index+1:]...)
			return nil
		}
	}
	return WrapError("store", "invoice", "delete", ErrInvoiceNotFound)
}

func (store *stubStore) InsertLedgerEntry(_ context.Context, entry *LedgerEntry) error {
	if store.insertLedgerError != nil {
		return store.insertLedgerError
	}
	entry.ID = store.nextID()
	store.entries = append(store.entries, *entry)
	return nil
}

func (store *stubStore) ListLedgerEntries(_ context.Context, party PartyName) ([]LedgerEntry, error) {
	if store.listEntriesError != nil {
		return nil, store.listEntriesError
	}
	var matched []LedgerEntry
	for _, entry := range store.entries {
		if entry.PartyName == party.String() {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

func (store *stubStore) DeleteLedgerEntriesByInvoice(_ context.Context, invoiceID InvoiceID) (int64, error) {
	kept := store.entries[:0:0]
	var removed int64
	for _, entry := range store.entries {
		if entry.InvoiceID != nil && *entry.InvoiceID == invoiceID {
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	store.entries = kept
	return removed, nil
}

func (store *stubStore) SummarizeParties(context.Context) ([]PartySummary, error) {
	if store.summarizeError != nil {
		return nil, store.summarizeError
	}
	byParty := map[string]*PartySummary{}
	for _, entry := range store.entries {
		summary, ok := byParty[entry.PartyName]
		if !ok {
			summary = &PartySummary{PartyName: entry.PartyName, TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
			byParty[entry.PartyName] = summary
		}
		summary.TotalDebit = summary.TotalDebit.Add(entry.Debit)
		summary.TotalCredit = summary.TotalCredit.Add(entry.Credit)
	}
	summaries := make([]PartySummary, 0, len(byParty))
	for _, summary := range byParty {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(left, right int) bool { return summaries[left].PartyName < summaries[right].PartyName })
	return summaries, nil
}

func (store *stubStore) InsertDaybookEntry(_ context.Context, entry *DaybookEntry) error {
	if store.insertDaybookError != nil {
		return store.insertDaybookError
	}
	entry.ID = store.nextID()
	store.daybook = append(store.daybook, *entry)
	return nil
}

func (store *stubStore) ListDaybookEntries(context.Context) ([]DaybookEntry, error) {
	entries := append([]DaybookEntry(nil), store.daybook...)
	sort.Slice(entries, func(left, right int) bool { return entries[left].ID > entries[right].ID })
	return entries, nil
}
