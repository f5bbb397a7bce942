package gormstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/MarkoPoloResearchLab/cargo/pkg/cargo"
	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	constraintBookingBiltyNo  = "idx_bookings_bilty_no"
	constraintInvoiceNumber   = "idx_invoices_invoice_no"
	pgUniqueViolationCode     = "23505"
	sqliteConstraintCode      = 19
	errorOperationStore       = "store"
	errorSubjectBooking       = "booking"
	errorSubjectInvoice       = "invoice"
	errorSubjectEntry         = "entry"
	errorSubjectDaybook       = "daybook"
	errorSubjectParty         = "party"
	errorSubjectConnection    = "connection"
	errorCodeDuplicate        = "duplicate"
	errorCodeGet              = "get"
	errorCodeInsert           = "insert"
	errorCodeDelete           = "delete"
	errorCodeList             = "list"
	errorCodeMax              = "max"
	errorCodeSummarize        = "summarize"
	errorCodePing             = "ping"
	orderNewestFirst          = "id DESC"
	orderLedgerChronological  = "date ASC, id ASC"
	orderDaybookNewestFirst   = "date DESC, id DESC"
	orderPartyRows            = "party_name ASC, id ASC"
	selectPartySides          = "party_name, debit, credit"
	selectMaxBiltyNumber      = "max(bilty_no) as value"
	selectMaxInvoiceNumber    = "max(invoice_no) as value"
	whereBiltyNumber          = "bilty_no = ?"
	whereInvoiceID            = "id = ?"
	whereLedgerInvoiceID      = "invoice_id = ?"
	whereLedgerPartyName      = "party_name = ?"
)

// Store implements cargo.Store using GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates every table managed by the store.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// WithTx executes fn within a transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore cargo.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction})
	})
}

// Ping checks the underlying connection pool.
func (store *Store) Ping(ctx context.Context) error {
	sqlDB, err := store.db.DB()
	if err != nil {
		return wrapStoreError(errorSubjectConnection, errorCodePing, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return wrapStoreError(errorSubjectConnection, errorCodePing, err)
	}
	return nil
}

func (store *Store) MaxBiltyNumber(ctx context.Context) (int64, bool, error) {
	var result sqlMax
	err := store.db.WithContext(ctx).Model(&Booking{}).Select(selectMaxBiltyNumber).Scan(&result).Error
	if err != nil {
		return 0, false, wrapStoreError(errorSubjectBooking, errorCodeMax, err)
	}
	return result.Value.Int64, result.Value.Valid, nil
}

func (store *Store) InsertBooking(ctx context.Context, booking *cargo.Booking) error {
	model := Booking{
		BiltyNo:      booking.BiltyNumber.Int64(),
		Date:         datatypes.Date(booking.Date),
		Sender:       booking.Sender,
		Receiver:     booking.Receiver,
		VehicleNo:    booking.VehicleNumber,
		DriverName:   booking.DriverName,
		DriverPhone:  booking.DriverPhone,
		Weight:       booking.Weight,
		Quantity:     booking.Quantity,
		Price:        booking.Price,
		Remarks:      booking.Remarks,
		Pickup:       booking.Pickup,
		DropLocation: booking.Drop,
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err, constraintBookingBiltyNo) {
		return wrapStoreError(errorSubjectBooking, errorCodeDuplicate, cargo.ErrDuplicateBiltyNumber)
	}
	if err != nil {
		return wrapStoreError(errorSubjectBooking, errorCodeInsert, err)
	}
	booking.ID = model.ID
	booking.CreatedAt = model.CreatedAt.UTC()
	return nil
}

func (store *Store) GetBooking(ctx context.Context, biltyNumber cargo.BiltyNumber) (cargo.Booking, error) {
	var model Booking
	err := store.db.WithContext(ctx).Where(whereBiltyNumber, biltyNumber.Int64()).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cargo.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeGet, cargo.ErrBookingNotFound)
		}
		return cargo.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeGet, err)
	}
	return mapBooking(model), nil
}

func (store *Store) ListBookings(ctx context.Context) ([]cargo.Booking, error) {
	var rows []Booking
	if err := store.db.WithContext(ctx).Order(orderNewestFirst).Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectBooking, errorCodeList, err)
	}
	bookings := make([]cargo.Booking, 0, len(rows))
	for _, row := range rows {
		bookings = append(bookings, mapBooking(row))
	}
	return bookings, nil
}

func (store *Store) MaxInvoiceNumber(ctx context.Context) (int64, bool, error) {
	var result sqlMax
	err := store.db.WithContext(ctx).Model(&Invoice{}).Select(selectMaxInvoiceNumber).Scan(&result).Error
	if err != nil {
		return 0, false, wrapStoreError(errorSubjectInvoice, errorCodeMax, err)
	}
	return result.Value.Int64, result.Value.Valid, nil
}

func (store *Store) InsertInvoice(ctx context.Context, invoice *cargo.Invoice) error {
	model := Invoice{
		InvoiceNo:   invoice.InvoiceNumber.Int64(),
		Date:        datatypes.Date(invoice.Date),
		PartyName:   invoice.PartyName,
		Description: invoice.Description,
		Amount:      invoice.Amount,
		Status:      invoice.Status.String(),
		Posting:     invoice.Posting.String(),
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err, constraintInvoiceNumber) {
		return wrapStoreError(errorSubjectInvoice, errorCodeDuplicate, cargo.ErrDuplicateInvoiceNumber)
	}
	if err != nil {
		return wrapStoreError(errorSubjectInvoice, errorCodeInsert, err)
	}
	invoice.ID = cargo.InvoiceID(model.ID)
	invoice.CreatedAt = model.CreatedAt.UTC()
	return nil
}

func (store *Store) GetInvoice(ctx context.Context, invoiceID cargo.InvoiceID) (cargo.Invoice, error) {
	var model Invoice
	err := store.db.WithContext(ctx).Where(whereInvoiceID, invoiceID.Int64()).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cargo.Invoice{}, wrapStoreError(errorSubjectInvoice, errorCodeGet, cargo.ErrInvoiceNotFound)
		}
		return cargo.Invoice{}, wrapStoreError(errorSubjectInvoice, errorCodeGet, err)
	}
	return mapInvoice(model), nil
}

func (store *Store) ListInvoices(ctx context.Context) ([]cargo.Invoice, error) {
	var rows []Invoice
	if err := store.db.WithContext(ctx).Order(orderNewestFirst).Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectInvoice, errorCodeList, err)
	}
	invoices := make([]cargo.Invoice, 0, len(rows))
	for _, row := range rows {
		invoices = append(invoices, mapInvoice(row))
	}
	return invoices, nil
}

func (store *Store) DeleteInvoice(ctx context.Context, invoiceID cargo.InvoiceID) error {
	result := store.db.WithContext(ctx).Where(whereInvoiceID, invoiceID.Int64()).Delete(&Invoice{})
	if result.Error != nil {
		return wrapStoreError(errorSubjectInvoice, errorCodeDelete, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectInvoice, errorCodeDelete, cargo.ErrInvoiceNotFound)
	}
	return nil
}

func (store *Store) InsertLedgerEntry(ctx context.Context, entry *cargo.LedgerEntry) error {
	model := LedgerEntry{
		PartyName:   entry.PartyName,
		Date:        datatypes.Date(entry.Date),
		Description: entry.Description,
		Debit:       entry.Debit,
		Credit:      entry.Credit,
	}
	if entry.InvoiceID != nil {
		invoiceID := entry.InvoiceID.Int64()
		model.InvoiceID = &invoiceID
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return wrapStoreError(errorSubjectEntry, errorCodeInsert, err)
	}
	entry.ID = model.ID
	entry.CreatedAt = model.CreatedAt.UTC()
	return nil
}

func (store *Store) ListLedgerEntries(ctx context.Context, party cargo.PartyName) ([]cargo.LedgerEntry, error) {
	var rows []LedgerEntry
	err := store.db.WithContext(ctx).
		Where(whereLedgerPartyName, party.String()).
		Order(orderLedgerChronological).
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectEntry, errorCodeList, err)
	}
	entries := make([]cargo.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, mapLedgerEntry(row))
	}
	return entries, nil
}

func (store *Store) DeleteLedgerEntriesByInvoice(ctx context.Context, invoiceID cargo.InvoiceID) (int64, error) {
	result := store.db.WithContext(ctx).Where(whereLedgerInvoiceID, invoiceID.Int64()).Delete(&LedgerEntry{})
	if result.Error != nil {
		return 0, wrapStoreError(errorSubjectEntry, errorCodeDelete, result.Error)
	}
	return result.RowsAffected, nil
}

// SummarizeParties totals each party's ledger in decimal arithmetic. SQLite keeps
// numeric columns as REAL, so a SQL sum() would drift from PartyLedger.
func (store *Store) SummarizeParties(ctx context.Context) ([]cargo.PartySummary, error) {
	var rows []partySides
	err := store.db.WithContext(ctx).
		Model(&LedgerEntry{}).
		Select(selectPartySides).
		Order(orderPartyRows).
		Scan(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectParty, errorCodeSummarize, err)
	}
	summaries := make([]cargo.PartySummary, 0)
	for _, row := range rows {
		last := len(summaries) - 1
		if last < 0 || summaries[last].PartyName != row.PartyName {
			summaries = append(summaries, cargo.PartySummary{
				PartyName:   row.PartyName,
				TotalDebit:  decimal.Zero,
				TotalCredit: decimal.Zero,
			})
			last++
		}
		summaries[last].TotalDebit = summaries[last].TotalDebit.Add(row.Debit)
		summaries[last].TotalCredit = summaries[last].TotalCredit.Add(row.Credit)
	}
	return summaries, nil
}

func (store *Store) InsertDaybookEntry(ctx context.Context, entry *cargo.DaybookEntry) error {
	model := DaybookEntry{
		Date:        datatypes.Date(entry.Date),
		Type:        entry.Type,
		RefNo:       entry.RefNumber,
		Description: entry.Description,
		Amount:      entry.Amount,
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return wrapStoreError(errorSubjectDaybook, errorCodeInsert, err)
	}
	entry.ID = model.ID
	entry.CreatedAt = model.CreatedAt.UTC()
	return nil
}

func (store *Store) ListDaybookEntries(ctx context.Context) ([]cargo.DaybookEntry, error) {
	var rows []DaybookEntry
	if err := store.db.WithContext(ctx).Order(orderDaybookNewestFirst).Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectDaybook, errorCodeList, err)
	}
	entries := make([]cargo.DaybookEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, cargo.DaybookEntry{
			ID:          row.ID,
			Date:        dateOf(row.Date),
			Type:        row.Type,
			RefNumber:   row.RefNo,
			Description: row.Description,
			Amount:      row.Amount,
			CreatedAt:   row.CreatedAt.UTC(),
		})
	}
	return entries, nil
}

func wrapStoreError(subject string, code string, err error) error {
	return cargo.WrapError(errorOperationStore, subject, code, err)
}

type sqlMax struct {
	Value sql.NullInt64
}

type partySides struct {
	PartyName string
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

func mapBooking(row Booking) cargo.Booking {
	return cargo.Booking{
		ID:            row.ID,
		BiltyNumber:   cargo.BiltyNumber(row.BiltyNo),
		Date:          dateOf(row.Date),
		Sender:        row.Sender,
		Receiver:      row.Receiver,
		VehicleNumber: row.VehicleNo,
		DriverName:    row.DriverName,
		DriverPhone:   row.DriverPhone,
		Weight:        row.Weight,
		Quantity:      row.Quantity,
		Price:         row.Price,
		Remarks:       row.Remarks,
		Pickup:        row.Pickup,
		Drop:          row.DropLocation,
		CreatedAt:     row.CreatedAt.UTC(),
	}
}

func mapInvoice(row Invoice) cargo.Invoice {
	return cargo.Invoice{
		ID:            cargo.InvoiceID(row.ID),
		InvoiceNumber: cargo.InvoiceNumber(row.InvoiceNo),
		Date:          dateOf(row.Date),
		PartyName:     row.PartyName,
		Description:   row.Description,
		Amount:        row.Amount,
		Status:        cargo.InvoiceStatus(row.Status),
		Posting:       cargo.PostingMode(row.Posting),
		CreatedAt:     row.CreatedAt.UTC(),
	}
}

func mapLedgerEntry(row LedgerEntry) cargo.LedgerEntry {
	entry := cargo.LedgerEntry{
		ID:          row.ID,
		PartyName:   row.PartyName,
		Date:        dateOf(row.Date),
		Description: row.Description,
		Debit:       row.Debit,
		Credit:      row.Credit,
		CreatedAt:   row.CreatedAt.UTC(),
	}
	if row.InvoiceID != nil {
		invoiceID := cargo.InvoiceID(*row.InvoiceID)
		entry.InvoiceID = &invoiceID
	}
	return entry
}

func dateOf(value datatypes.Date) time.Time {
	year, month, day := time.Time(value).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func isUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraint
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}
