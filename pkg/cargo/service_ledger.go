package cargo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// PartyLedger returns a party's entries in date order and the balance derived from them.
func (service *Service) PartyLedger(ctx context.Context, party PartyName) (PartyLedger, error) {
	entries, err := service.store.ListLedgerEntries(ctx, party)
	if err != nil {
		return PartyLedger{}, err
	}
	sort.SliceStable(entries, func(left, right int) bool {
		if entries[left].Date.Equal(entries[right].Date) {
			return entries[left].ID < entries[right].ID
		}
		return entries[left].Date.Before(entries[right].Date)
	})
	totalDebit, totalCredit := sumSides(entries)
	return PartyLedger{
		PartyName:   party.String(),
		Entries:     entries,
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
		Balance:     totalDebit.Sub(totalCredit),
	}, nil
}

// AddManualEntry appends a hand-written debit and/or credit line for a party.
func (service *Service) AddManualEntry(ctx context.Context, input ManualEntryInput) (LedgerEntry, error) {
	var created LedgerEntry
	operationError := validateManualEntry(input)
	if operationError == nil {
		operationError = service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
			if input.InvoiceID != nil {
				if _, err := transactionStore.GetInvoice(ctx, *input.InvoiceID); err != nil {
					if errors.Is(err, ErrInvoiceNotFound) {
						return fmt.Errorf("%w: %d", ErrUnknownInvoice, input.InvoiceID.Int64())
					}
					return err
				}
			}
			entry := LedgerEntry{
				InvoiceID:   input.InvoiceID,
				PartyName:   input.Party.String(),
				Date:        service.dayOrToday(input.Date),
				Description: strings.TrimSpace(input.Description),
				Debit:       input.Debit.Decimal(),
				Credit:      input.Credit.Decimal(),
			}
			if err := transactionStore.InsertLedgerEntry(ctx, &entry); err != nil {
				return err
			}
			created = entry
			return nil
		})
	}
	service.logOperation(ctx, OperationLog{
		Operation: operationManualEntry,
		Party:     input.Party.String(),
		Reference: created.ID,
		Amount:    input.Debit.Decimal().Sub(input.Credit.Decimal()),
		Error:     operationError,
	})
	if operationError != nil {
		return LedgerEntry{}, operationError
	}
	return created, nil
}

func validateManualEntry(input ManualEntryInput) error {
	if input.Party.IsZero() {
		return fmt.Errorf("%w: empty value", ErrInvalidPartyName)
	}
	if input.Debit.Decimal().IsNegative() || input.Credit.Decimal().IsNegative() {
		return fmt.Errorf("%w: must not be negative", ErrInvalidEntryAmount)
	}
	if !input.Debit.Decimal().IsPositive() && !input.Credit.Decimal().IsPositive() {
		return ErrMissingEntryAmount
	}
	return nil
}

// ListParties aggregates every party that has at least one ledger entry.
func (service *Service) ListParties(ctx context.Context) ([]PartySummary, error) {
	summaries, err := service.store.SummarizeParties(ctx)
	if err != nil {
		return nil, err
	}
	for index := range summaries {
		summaries[index].Balance = summaries[index].TotalDebit.Sub(summaries[index].TotalCredit)
	}
	return summaries, nil
}

// ListDaybook returns daybook lines, newest first.
func (service *Service) ListDaybook(ctx context.Context) ([]DaybookEntry, error) {
	return service.store.ListDaybookEntries(ctx)
}
