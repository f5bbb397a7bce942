package cargo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BiltyNumber identifies a booking (waybill number).
type BiltyNumber int64

// InvoiceNumber is the business number printed on an invoice.
type InvoiceNumber int64

// InvoiceID is the storage identifier of an invoice row.
type InvoiceID int64

// PartyName identifies a ledger counterparty.
type PartyName struct {
	value string
}

// PositiveAmount is a strictly positive money amount.
type PositiveAmount struct {
	value decimal.Decimal
}

// EntryAmount is a non-negative money amount used on a ledger side.
type EntryAmount struct {
	value decimal.Decimal
}

// PostingMode selects how an invoice is posted.
type PostingMode string

const (
	PostingDoubleEntry PostingMode = "double_entry"
	PostingDaybook     PostingMode = "daybook"
)

// InvoiceStatus tracks the payment state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusUnpaid    InvoiceStatus = "unpaid"
	InvoiceStatusPartial   InvoiceStatus = "partial"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// NewBiltyNumber validates a bilty number.
func NewBiltyNumber(raw int64) (BiltyNumber, error) {
	if raw <= 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidBiltyNumber)
	}
	return BiltyNumber(raw), nil
}

// Int64 exposes the raw number.
func (number BiltyNumber) Int64() int64 {
	return int64(number)
}

// NewInvoiceNumber validates an invoice number.
func NewInvoiceNumber(raw int64) (InvoiceNumber, error) {
	if raw <= 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidInvoiceNumber)
	}
	return InvoiceNumber(raw), nil
}

// Int64 exposes the raw number.
func (number InvoiceNumber) Int64() int64 {
	return int64(number)
}

// NewInvoiceID validates an invoice row id.
func NewInvoiceID(raw int64) (InvoiceID, error) {
	if raw <= 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidInvoiceID)
	}
	return InvoiceID(raw), nil
}

// Int64 exposes the raw id.
func (id InvoiceID) Int64() int64 {
	return int64(id)
}

// NewPartyName validates and normalizes a party name.
func NewPartyName(raw string) (PartyName, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return PartyName{}, fmt.Errorf("%w: empty value", ErrInvalidPartyName)
	}
	return PartyName{value: trimmed}, nil
}

// String returns the normalized name.
func (name PartyName) String() string {
	return name.value
}

// IsZero reports whether the name was never set.
func (name PartyName) IsZero() bool {
	return name.value == ""
}

// NewPositiveAmount validates an amount and ensures it is strictly positive.
func NewPositiveAmount(raw decimal.Decimal) (PositiveAmount, error) {
	if !raw.IsPositive() {
		return PositiveAmount{}, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	if err := checkColumnFit(raw, moneyScale); err != nil {
		return PositiveAmount{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return PositiveAmount{value: raw}, nil
}

// Decimal returns the amount.
func (amount PositiveAmount) Decimal() decimal.Decimal {
	return amount.value
}

// NewEntryAmount validates a ledger side amount (zero allowed).
func NewEntryAmount(raw decimal.Decimal) (EntryAmount, error) {
	if raw.IsNegative() {
		return EntryAmount{}, fmt.Errorf("%w: must not be negative", ErrInvalidEntryAmount)
	}
	if err := checkColumnFit(raw, moneyScale); err != nil {
		return EntryAmount{}, fmt.Errorf("%w: %v", ErrInvalidEntryAmount, err)
	}
	return EntryAmount{value: raw}, nil
}

// Decimal returns the amount.
func (amount EntryAmount) Decimal() decimal.Decimal {
	return amount.value
}

// checkColumnFit reports whether value fits a numeric(14, scale) column without rounding.
func checkColumnFit(value decimal.Decimal, scale int32) error {
	if !value.Equal(value.Truncate(scale)) {
		return fmt.Errorf("at most %d decimal places", scale)
	}
	limit := decimal.New(1, numericPrecision-scale)
	if value.Abs().GreaterThanOrEqual(limit) {
		return fmt.Errorf("must be below %s", limit.String())
	}
	return nil
}

// ParsePostingMode validates a posting mode; empty input yields an empty mode.
func ParsePostingMode(raw string) (PostingMode, error) {
	switch mode := PostingMode(strings.TrimSpace(strings.ToLower(raw))); mode {
	case "", PostingDoubleEntry, PostingDaybook:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPostingMode, raw)
	}
}

// String returns the mode label.
func (mode PostingMode) String() string {
	return string(mode)
}

// ParseInvoiceStatus validates a status; empty input defaults to unpaid.
func ParseInvoiceStatus(raw string) (InvoiceStatus, error) {
	switch status := InvoiceStatus(strings.TrimSpace(strings.ToLower(raw))); status {
	case "":
		return InvoiceStatusUnpaid, nil
	case InvoiceStatusUnpaid, InvoiceStatusPartial, InvoiceStatusPaid, InvoiceStatusCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidInvoiceStatus, raw)
	}
}

// String returns the status label.
func (status InvoiceStatus) String() string {
	return string(status)
}

// ParseDate reads a calendar day in YYYY-MM-DD (or RFC3339) form.
// Empty input yields the zero time.
func ParseDate(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(dateLayout, trimmed); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return truncateToDay(parsed), nil
}

// FormatDate renders a calendar day as YYYY-MM-DD.
func FormatDate(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Format(dateLayout)
}

func truncateToDay(value time.Time) time.Time {
	year, month, day := value.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Booking is a stored shipment record.
type Booking struct {
	ID            int64
	BiltyNumber   BiltyNumber
	Date          time.Time
	Sender        string
	Receiver      string
	VehicleNumber string
	DriverName    string
	DriverPhone   string
	Weight        decimal.Decimal
	Quantity      int64
	Price         decimal.Decimal
	Remarks       string
	Pickup        string
	Drop          string
	CreatedAt     time.Time
}

// BookingInput carries a booking to be created. A zero BiltyNumber requests allocation.
type BookingInput struct {
	BiltyNumber   BiltyNumber
	Date          time.Time
	Sender        string
	Receiver      string
	VehicleNumber string
	DriverName    string
	DriverPhone   string
	Weight        decimal.Decimal
	Quantity      int64
	Price         decimal.Decimal
	Remarks       string
	Pickup        string
	Drop          string
}

func (input BookingInput) validate() error {
	if strings.TrimSpace(input.Sender) == "" {
		return fmt.Errorf("%w: sender is required", ErrInvalidBooking)
	}
	if strings.TrimSpace(input.Receiver) == "" {
		return fmt.Errorf("%w: receiver is required", ErrInvalidBooking)
	}
	if input.Weight.IsNegative() {
		return fmt.Errorf("%w: weight must not be negative", ErrInvalidBooking)
	}
	if err := checkColumnFit(input.Weight, weightScale); err != nil {
		return fmt.Errorf("%w: weight %v", ErrInvalidBooking, err)
	}
	if input.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidBooking)
	}
	if err := checkColumnFit(input.Price, moneyScale); err != nil {
		return fmt.Errorf("%w: price %v", ErrInvalidBooking, err)
	}
	if input.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidBooking)
	}
	return nil
}

// Invoice is a stored billing document.
type Invoice struct {
	ID            InvoiceID
	InvoiceNumber InvoiceNumber
	Date          time.Time
	PartyName     string
	Description   string
	Amount        decimal.Decimal
	Status        InvoiceStatus
	Posting       PostingMode
	CreatedAt     time.Time
}

// InvoiceInput carries an invoice to be created. A zero InvoiceNumber requests allocation
// and an empty Posting uses the service default.
type InvoiceInput struct {
	InvoiceNumber InvoiceNumber
	Date          time.Time
	Party         PartyName
	Description   string
	Amount        PositiveAmount
	Status        InvoiceStatus
	Posting       PostingMode
}

// LedgerEntry is a single debit/credit line against a party.
type LedgerEntry struct {
	ID          int64
	InvoiceID   *InvoiceID
	PartyName   string
	Date        time.Time
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	CreatedAt   time.Time
}

// ManualEntryInput carries a hand-written ledger line.
type ManualEntryInput struct {
	Party       PartyName
	InvoiceID   *InvoiceID
	Date        time.Time
	Description string
	Debit       EntryAmount
	Credit      EntryAmount
}

// DaybookEntry is one line of the chronological financial log.
type DaybookEntry struct {
	ID          int64
	Date        time.Time
	Type        string
	RefNumber   string
	Description string
	Amount      decimal.Decimal
	CreatedAt   time.Time
}

// PartySummary aggregates the ledger of one party.
type PartySummary struct {
	PartyName   string
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Balance     decimal.Decimal
}

// PartyLedger is the ordered ledger of one party with its derived balance.
type PartyLedger struct {
	PartyName   string
	Entries     []LedgerEntry
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Balance     decimal.Decimal
}

// GodownRow is one line of the warehouse view.
type GodownRow struct {
	BiltyNumber BiltyNumber
	Party       string
	Item        string
	QuantityIn  int64
	QuantityOut int64
}

// Store is the persistence contract used by Service.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error
	Ping(ctx context.Context) error

	MaxBiltyNumber(ctx context.Context) (int64, bool, error)
	InsertBooking(ctx context.Context, booking *Booking) error
	GetBooking(ctx context.Context, biltyNumber BiltyNumber) (Booking, error)
	ListBookings(ctx context.Context) ([]Booking, error)

	MaxInvoiceNumber(ctx context.Context) (int64, bool, error)
	InsertInvoice(ctx context.Context, invoice *Invoice) error
	GetInvoice(ctx context.Context, invoiceID InvoiceID) (Invoice, error)
	ListInvoices(ctx context.Context) ([]Invoice, error)
	DeleteInvoice(ctx context.Context, invoiceID InvoiceID) error

	InsertLedgerEntry(ctx context.Context, entry *LedgerEntry) error
	ListLedgerEntries(ctx context.Context, party PartyName) ([]LedgerEntry, error)
	DeleteLedgerEntriesByInvoice(ctx context.Context, invoiceID InvoiceID) (int64, error)
	SummarizeParties(ctx context.Context) ([]PartySummary, error)

	InsertDaybookEntry(ctx context.Context, entry *DaybookEntry) error
	ListDaybookEntries(ctx context.Context) ([]DaybookEntry, error)
}
