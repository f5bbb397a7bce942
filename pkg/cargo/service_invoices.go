package cargo

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// CreateInvoice stores an invoice and posts it in the same transaction.
//
// Each invoice is posted exactly one way: double_entry writes a debit to the
// party and a matching credit to the company account; daybook appends one
// daybook line. A failure anywhere rolls back the invoice and its postings.
func (service *Service) CreateInvoice(ctx context.Context, input InvoiceInput) (Invoice, error) {
	var created Invoice
	operationError := service.validateInvoiceInput(&input)
	if operationError == nil {
		invoiceDate := service.dayOrToday(input.Date)
		operationError = service.withAllocation(ctx, input.InvoiceNumber != 0, ErrDuplicateInvoiceNumber, func(ctx context.Context, transactionStore Store) error {
			invoiceNumber := input.InvoiceNumber
			if invoiceNumber == 0 {
				currentMax, present, err := transactionStore.MaxInvoiceNumber(ctx)
				if err != nil {
					return err
				}
				invoiceNumber = InvoiceNumber(NextSequenceNumber(currentMax, present))
			}
			invoice := Invoice{
				InvoiceNumber: invoiceNumber,
				Date:          invoiceDate,
				PartyName:     input.Party.String(),
				Description:   strings.TrimSpace(input.Description),
				Amount:        input.Amount.Decimal(),
				Status:        input.Status,
				Posting:       input.Posting,
			}
			if err := transactionStore.InsertInvoice(ctx, &invoice); err != nil {
				return err
			}
			if err := service.postInvoice(ctx, transactionStore, invoice); err != nil {
				return err
			}
			created = invoice
			return nil
		})
	}
	service.logOperation(ctx, OperationLog{
		Operation: operationCreateInvoice,
		Party:     input.Party.String(),
		Reference: created.InvoiceNumber.Int64(),
		Amount:    input.Amount.Decimal(),
		Error:     operationError,
	})
	if operationError != nil {
		return Invoice{}, operationError
	}
	return created, nil
}

func (service *Service) validateInvoiceInput(input *InvoiceInput) error {
	if input.Party.IsZero() {
		return fmt.Errorf("%w: empty value", ErrInvalidPartyName)
	}
	if !input.Amount.Decimal().IsPositive() {
		return fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	status, err := ParseInvoiceStatus(input.Status.String())
	if err != nil {
		return err
	}
	input.Status = status
	posting, err := ParsePostingMode(input.Posting.String())
	if err != nil {
		return err
	}
	if posting == "" {
		posting = service.postingMode
	}
	input.Posting = posting
	return nil
}

func (service *Service) postInvoice(ctx context.Context, transactionStore Store, invoice Invoice) error {
	description := invoiceDescription(invoice)
	switch invoice.Posting {
	case PostingDaybook:
		return transactionStore.InsertDaybookEntry(ctx, &DaybookEntry{
			Date:        invoice.Date,
			Type:        daybookTypeInvoice,
			RefNumber:   strconv.FormatInt(invoice.InvoiceNumber.Int64(), 10),
			Description: description,
			Amount:      invoice.Amount,
		})
	default:
		invoiceID := invoice.ID
		debit := LedgerEntry{
			InvoiceID:   &invoiceID,
			PartyName:   invoice.PartyName,
			Date:        invoice.Date,
			Description: description,
			Debit:       invoice.Amount,
		}
		if err := transactionStore.InsertLedgerEntry(ctx, &debit); err != nil {
			return err
		}
		credit := LedgerEntry{
			InvoiceID:   &invoiceID,
			PartyName:   service.companyAccount.String(),
			Date:        invoice.Date,
			Description: description,
			Credit:      invoice.Amount,
		}
		return transactionStore.InsertLedgerEntry(ctx, &credit)
	}
}

func invoiceDescription(invoice Invoice) string {
	if invoice.Description == "" {
		return fmt.Sprintf("Invoice #%d", invoice.InvoiceNumber)
	}
	return fmt.Sprintf("Invoice #%d: %s", invoice.InvoiceNumber, invoice.Description)
}

// GetInvoice fetches an invoice by row id.
func (service *Service) GetInvoice(ctx context.Context, invoiceID InvoiceID) (Invoice, error) {
	return service.store.GetInvoice(ctx, invoiceID)
}

// ListInvoices returns all invoices, newest first.
func (service *Service) ListInvoices(ctx context.Context) ([]Invoice, error) {
	return service.store.ListInvoices(ctx)
}

// DeleteInvoice removes an invoice together with every ledger entry posted against it.
// Daybook lines are an append-only log and are left in place.
func (service *Service) DeleteInvoice(ctx context.Context, invoiceID InvoiceID) error {
	var deleted Invoice
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		invoice, err := transactionStore.GetInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		if _, err := transactionStore.DeleteLedgerEntriesByInvoice(ctx, invoiceID); err != nil {
			return err
		}
		if err := transactionStore.DeleteInvoice(ctx, invoiceID); err != nil {
			return err
		}
		deleted = invoice
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationDeleteInvoice,
		Party:     deleted.PartyName,
		Reference: deleted.InvoiceNumber.Int64(),
		Amount:    deleted.Amount,
		Error:     operationError,
	})
	return operationError
}
