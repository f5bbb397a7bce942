package httpapi

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/cargo/pkg/cargo"
	"github.com/shopspring/decimal"
)

const timestampLayout = time.RFC3339

// flexibleInt accepts a JSON number or a numeric string; empty and null mean zero.
type flexibleInt int64

func (value *flexibleInt) UnmarshalJSON(raw []byte) error {
	trimmed := strings.TrimSpace(strings.Trim(string(raw), `"`))
	if trimmed == "" || trimmed == "null" {
		*value = 0
		return nil
	}
	parsed, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return fmt.Errorf("expected integer, got %s", string(raw))
	}
	*value = flexibleInt(parsed)
	return nil
}

// flexibleDecimal accepts a JSON number or a numeric string; empty and null mean zero.
type flexibleDecimal struct {
	decimal.Decimal
}

func (value *flexibleDecimal) UnmarshalJSON(raw []byte) error {
	trimmed := strings.TrimSpace(strings.Trim(string(raw), `"`))
	if trimmed == "" || trimmed == "null" {
		value.Decimal = decimal.Zero
		return nil
	}
	parsed, err := decimal.NewFromString(trimmed)
	if err != nil {
		return fmt.Errorf("expected number, got %s", string(raw))
	}
	value.Decimal = parsed
	return nil
}

type legacyBookingRequest struct {
	BiltyNo      flexibleInt `json:"bilty_no"`
	SenderName   string      `json:"sender_name"`
	ReceiverName string      `json:"receiver_name"`
}

type bookingRequest struct {
	BiltyNo     flexibleInt     `json:"bilty_no"`
	Date        string          `json:"date"`
	Sender      string          `json:"sender"`
	Receiver    string          `json:"receiver"`
	VehicleNo   string          `json:"vehicle_no"`
	DriverName  string          `json:"driver_name"`
	DriverPhone string          `json:"driver_phone"`
	Weight      flexibleDecimal `json:"weight"`
	Quantity    flexibleInt     `json:"quantity"`
	Price       flexibleDecimal `json:"price"`
	Remarks     string          `json:"remarks"`
	Pickup      string          `json:"pickup"`
	Drop        string          `json:"drop"`
}

func (request bookingRequest) toInput() (cargo.BookingInput, error) {
	bookingDate, err := cargo.ParseDate(request.Date)
	if err != nil {
		return cargo.BookingInput{}, err
	}
	biltyNumber, err := optionalBiltyNumber(int64(request.BiltyNo))
	if err != nil {
		return cargo.BookingInput{}, err
	}
	return cargo.BookingInput{
		BiltyNumber:   biltyNumber,
		Date:          bookingDate,
		Sender:        request.Sender,
		Receiver:      request.Receiver,
		VehicleNumber: request.VehicleNo,
		DriverName:    request.DriverName,
		DriverPhone:   request.DriverPhone,
		Weight:        request.Weight.Decimal,
		Quantity:      int64(request.Quantity),
		Price:         request.Price.Decimal,
		Remarks:       request.Remarks,
		Pickup:        request.Pickup,
		Drop:          request.Drop,
	}, nil
}

type invoiceRequest struct {
	InvoiceNo   flexibleInt     `json:"invoice_no"`
	Date        string          `json:"date"`
	PartyName   string          `json:"party_name"`
	Description string          `json:"description"`
	Amount      flexibleDecimal `json:"amount"`
	Status      string          `json:"status"`
	Posting     string          `json:"posting"`
}

func (request invoiceRequest) toInput() (cargo.InvoiceInput, error) {
	var input cargo.InvoiceInput
	if request.InvoiceNo != 0 {
		invoiceNumber, err := cargo.NewInvoiceNumber(int64(request.InvoiceNo))
		if err != nil {
			return cargo.InvoiceInput{}, err
		}
		input.InvoiceNumber = invoiceNumber
	}
	invoiceDate, err := cargo.ParseDate(request.Date)
	if err != nil {
		return cargo.InvoiceInput{}, err
	}
	party, err := cargo.NewPartyName(request.PartyName)
	if err != nil {
		return cargo.InvoiceInput{}, err
	}
	amount, err := cargo.NewPositiveAmount(request.Amount.Decimal)
	if err != nil {
		return cargo.InvoiceInput{}, err
	}
	status, err := cargo.ParseInvoiceStatus(request.Status)
	if err != nil {
		return cargo.InvoiceInput{}, err
	}
	posting, err := cargo.ParsePostingMode(request.Posting)
	if err != nil {
		return cargo.InvoiceInput{}, err
	}
	input.Date = invoiceDate
	input.Party = party
	input.Description = request.Description
	input.Amount = amount
	input.Status = status
	input.Posting = posting
	return input, nil
}

type manualEntryRequest struct {
	PartyName   string          `json:"party_name"`
	InvoiceID   flexibleInt     `json:"invoice_id"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Debit       flexibleDecimal `json:"debit"`
	Credit      flexibleDecimal `json:"credit"`
}

func (request manualEntryRequest) toInput() (cargo.ManualEntryInput, error) {
	var input cargo.ManualEntryInput
	party, err := cargo.NewPartyName(request.PartyName)
	if err != nil {
		return cargo.ManualEntryInput{}, err
	}
	if request.InvoiceID != 0 {
		invoiceID, err := cargo.NewInvoiceID(int64(request.InvoiceID))
		if err != nil {
			return cargo.ManualEntryInput{}, err
		}
		input.InvoiceID = &invoiceID
	}
	entryDate, err := cargo.ParseDate(request.Date)
	if err != nil {
		return cargo.ManualEntryInput{}, err
	}
	debit, err := cargo.NewEntryAmount(request.Debit.Decimal)
	if err != nil {
		return cargo.ManualEntryInput{}, err
	}
	credit, err := cargo.NewEntryAmount(request.Credit.Decimal)
	if err != nil {
		return cargo.ManualEntryInput{}, err
	}
	input.Party = party
	input.Date = entryDate
	input.Description = request.Description
	input.Debit = debit
	input.Credit = credit
	return input, nil
}

func optionalBiltyNumber(raw int64) (cargo.BiltyNumber, error) {
	if raw == 0 {
		return 0, nil
	}
	return cargo.NewBiltyNumber(raw)
}

type bookingPayload struct {
	ID          int64   `json:"id"`
	BiltyNo     int64   `json:"bilty_no"`
	Date        string  `json:"date"`
	Sender      string  `json:"sender"`
	Receiver    string  `json:"receiver"`
	VehicleNo   string  `json:"vehicle_no"`
	DriverName  string  `json:"driver_name"`
	DriverPhone string  `json:"driver_phone"`
	Weight      float64 `json:"weight"`
	Quantity    int64   `json:"quantity"`
	Price       float64 `json:"price"`
	Remarks     string  `json:"remarks"`
	Pickup      string  `json:"pickup"`
	Drop        string  `json:"drop"`
	CreatedAt   string  `json:"created_at"`
}

func newBookingPayload(booking cargo.Booking) bookingPayload {
	return bookingPayload{
		ID:          booking.ID,
		BiltyNo:     booking.BiltyNumber.Int64(),
		Date:        cargo.FormatDate(booking.Date),
		Sender:      booking.Sender,
		Receiver:    booking.Receiver,
		VehicleNo:   booking.VehicleNumber,
		DriverName:  booking.DriverName,
		DriverPhone: booking.DriverPhone,
		Weight:      booking.Weight.InexactFloat64(),
		Quantity:    booking.Quantity,
		Price:       booking.Price.InexactFloat64(),
		Remarks:     booking.Remarks,
		Pickup:      booking.Pickup,
		Drop:        booking.Drop,
		CreatedAt:   formatTimestamp(booking.CreatedAt),
	}
}

type invoicePayload struct {
	ID          int64   `json:"id"`
	InvoiceNo   int64   `json:"invoice_no"`
	Date        string  `json:"date"`
	PartyName   string  `json:"party_name"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Status      string  `json:"status"`
	Posting     string  `json:"posting"`
	CreatedAt   string  `json:"created_at"`
}

func newInvoicePayload(invoice cargo.Invoice) invoicePayload {
	return invoicePayload{
		ID:          invoice.ID.Int64(),
		InvoiceNo:   invoice.InvoiceNumber.Int64(),
		Date:        cargo.FormatDate(invoice.Date),
		PartyName:   invoice.PartyName,
		Description: invoice.Description,
		Amount:      invoice.Amount.InexactFloat64(),
		Status:      invoice.Status.String(),
		Posting:     invoice.Posting.String(),
		CreatedAt:   formatTimestamp(invoice.CreatedAt),
	}
}

type ledgerEntryPayload struct {
	ID          int64   `json:"id"`
	InvoiceID   *int64  `json:"invoice_id"`
	PartyName   string  `json:"party_name"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
	CreatedAt   string  `json:"created_at"`
}

func newLedgerEntryPayload(entry cargo.LedgerEntry) ledgerEntryPayload {
	payload := ledgerEntryPayload{
		ID:          entry.ID,
		PartyName:   entry.PartyName,
		Date:        cargo.FormatDate(entry.Date),
		Description: entry.Description,
		Debit:       entry.Debit.InexactFloat64(),
		Credit:      entry.Credit.InexactFloat64(),
		CreatedAt:   formatTimestamp(entry.CreatedAt),
	}
	if entry.InvoiceID != nil {
		invoiceID := entry.InvoiceID.Int64()
		payload.InvoiceID = &invoiceID
	}
	return payload
}

type partyLedgerPayload struct {
	PartyName   string               `json:"party_name"`
	Entries     []ledgerEntryPayload `json:"entries"`
	TotalDebit  float64              `json:"total_debit"`
	TotalCredit float64              `json:"total_credit"`
	Balance     float64              `json:"balance"`
}

func newPartyLedgerPayload(ledger cargo.PartyLedger) partyLedgerPayload {
	entries := make([]ledgerEntryPayload, 0, len(ledger.Entries))
	for _, entry := range ledger.Entries {
		entries = append(entries, newLedgerEntryPayload(entry))
	}
	return partyLedgerPayload{
		PartyName:   ledger.PartyName,
		Entries:     entries,
		TotalDebit:  ledger.TotalDebit.InexactFloat64(),
		TotalCredit: ledger.TotalCredit.InexactFloat64(),
		Balance:     ledger.Balance.InexactFloat64(),
	}
}

type partyPayload struct {
	PartyName   string  `json:"party_name"`
	Balance     float64 `json:"balance"`
	TotalDebit  float64 `json:"total_debit"`
	TotalCredit float64 `json:"total_credit"`
}

type daybookPayload struct {
	ID          int64   `json:"id"`
	Date        string  `json:"date"`
	Type        string  `json:"type"`
	RefNo       string  `json:"ref_no"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	CreatedAt   string  `json:"created_at"`
}

type godownPayload struct {
	Bilty  int64  `json:"bilty"`
	Party  string `json:"party"`
	Item   string `json:"item"`
	QtyIn  int64  `json:"qtyIn"`
	QtyOut int64  `json:"qtyOut"`
}

func formatTimestamp(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(timestampLayout)
}
