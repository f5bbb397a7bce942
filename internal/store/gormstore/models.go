package gormstore

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Booking mirrors the bookings table.
type Booking struct {
	ID           int64           `gorm:"primaryKey;autoIncrement"`
	BiltyNo      int64           `gorm:"not null;uniqueIndex:idx_bookings_bilty_no"`
	Date         datatypes.Date  `gorm:"not null"`
	Sender       string          `gorm:"not null"`
	Receiver     string          `gorm:"not null"`
	VehicleNo    string          `gorm:"not null"`
	DriverName   string          `gorm:"not null"`
	DriverPhone  string          `gorm:"not null"`
	Weight       decimal.Decimal `gorm:"type:numeric(14,3);not null"`
	Quantity     int64           `gorm:"not null"`
	Price        decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Remarks      string          `gorm:"not null"`
	Pickup       string          `gorm:"not null"`
	DropLocation string          `gorm:"not null"`
	CreatedAt    time.Time       `gorm:"not null"`
}

func (Booking) TableName() string { return "bookings" }

// Invoice mirrors the invoices table.
type Invoice struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	InvoiceNo   int64           `gorm:"not null;uniqueIndex:idx_invoices_invoice_no"`
	Date        datatypes.Date  `gorm:"not null"`
	PartyName   string          `gorm:"not null;index:idx_invoices_party_name"`
	Description string          `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Status      string          `gorm:"not null"`
	Posting     string          `gorm:"not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

func (Invoice) TableName() string { return "invoices" }

// LedgerEntry mirrors the ledger_entries table.
type LedgerEntry struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	InvoiceID   *int64          `gorm:"index:idx_ledger_entries_invoice_id"`
	Invoice     *Invoice        `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	PartyName   string          `gorm:"not null;index:idx_ledger_entries_party_date,priority:1"`
	Date        datatypes.Date  `gorm:"not null;index:idx_ledger_entries_party_date,priority:2"`
	Description string          `gorm:"not null"`
	Debit       decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Credit      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }

// DaybookEntry mirrors the daybook table.
type DaybookEntry struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	Date        datatypes.Date  `gorm:"not null;index:idx_daybook_date"`
	Type        string          `gorm:"not null"`
	RefNo       string          `gorm:"not null"`
	Description string          `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

func (DaybookEntry) TableName() string { return "daybook" }

// Models lists every table managed by the store, in dependency order.
func Models() []any {
	return []any{&Booking{}, &Invoice{}, &LedgerEntry{}, &DaybookEntry{}}
}
