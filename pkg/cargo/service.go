package cargo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Service contains the domain logic over a Store.
type Service struct {
	store            Store
	nowFn            func() int64
	logger           OperationLogger
	companyAccount   PartyName
	postingMode      PostingMode
	allocateAttempts int
}

// NewService wires a Service.
func NewService(store Store, now func() int64, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{
		store:            store,
		nowFn:            now,
		companyAccount:   PartyName{value: defaultCompanyAccount},
		postingMode:      PostingDoubleEntry,
		allocateAttempts: defaultAllocateAttempts,
	}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	if service.companyAccount.IsZero() {
		return nil, fmt.Errorf("%w: company account is empty", ErrInvalidServiceConfig)
	}
	if service.postingMode != PostingDoubleEntry && service.postingMode != PostingDaybook {
		return nil, fmt.Errorf("%w: posting mode %q", ErrInvalidServiceConfig, service.postingMode)
	}
	if service.allocateAttempts < 1 {
		return nil, fmt.Errorf("%w: allocation attempts must be positive", ErrInvalidServiceConfig)
	}
	return service, nil
}

// NextSequenceNumber returns the number following the current maximum, or
// FirstSequenceNumber when no number has been issued yet.
func NextSequenceNumber(currentMax int64, present bool) int64 {
	if !present {
		return FirstSequenceNumber
	}
	return currentMax + 1
}

// Ping reports whether the underlying store is reachable.
func (service *Service) Ping(ctx context.Context) error {
	return service.store.Ping(ctx)
}

// CreateBooking stores a booking, allocating its bilty number when none is supplied.
func (service *Service) CreateBooking(ctx context.Context, input BookingInput) (Booking, error) {
	var created Booking
	operationError := input.validate()
	if operationError == nil {
		bookingDate := service.dayOrToday(input.Date)
		operationError = service.withAllocation(ctx, input.BiltyNumber != 0, ErrDuplicateBiltyNumber, func(ctx context.Context, transactionStore Store) error {
			biltyNumber := input.BiltyNumber
			if biltyNumber == 0 {
				currentMax, present, err := transactionStore.MaxBiltyNumber(ctx)
				if err != nil {
					return err
				}
				biltyNumber = BiltyNumber(NextSequenceNumber(currentMax, present))
			}
			booking := Booking{
				BiltyNumber:   biltyNumber,
				Date:          bookingDate,
				Sender:        strings.TrimSpace(input.Sender),
				Receiver:      strings.TrimSpace(input.Receiver),
				VehicleNumber: strings.TrimSpace(input.VehicleNumber),
				DriverName:    strings.TrimSpace(input.DriverName),
				DriverPhone:   strings.TrimSpace(input.DriverPhone),
				Weight:        input.Weight,
				Quantity:      input.Quantity,
				Price:         input.Price,
				Remarks:       strings.TrimSpace(input.Remarks),
				Pickup:        strings.TrimSpace(input.Pickup),
				Drop:          strings.TrimSpace(input.Drop),
			}
			if err := transactionStore.InsertBooking(ctx, &booking); err != nil {
				return err
			}
			created = booking
			return nil
		})
	}
	service.logOperation(ctx, OperationLog{
		Operation: operationCreateBooking,
		Party:     strings.TrimSpace(input.Sender),
		Reference: created.BiltyNumber.Int64(),
		Amount:    input.Price,
		Error:     operationError,
	})
	if operationError != nil {
		return Booking{}, operationError
	}
	return created, nil
}

// GetBooking fetches a booking by bilty number.
func (service *Service) GetBooking(ctx context.Context, biltyNumber BiltyNumber) (Booking, error) {
	return service.store.GetBooking(ctx, biltyNumber)
}

// ListBookings returns all bookings, most recent first.
func (service *Service) ListBookings(ctx context.Context) ([]Booking, error) {
	return service.store.ListBookings(ctx)
}

// Godown projects bookings into the warehouse view. Goods never leave the
// godown through this system, so QuantityOut is always zero.
func (service *Service) Godown(ctx context.Context) ([]GodownRow, error) {
	bookings, err := service.store.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]GodownRow, 0, len(bookings))
	for _, booking := range bookings {
		rows = append(rows, GodownRow{
			BiltyNumber: booking.BiltyNumber,
			Party:       booking.Sender,
			Item:        godownItemLabel,
			QuantityIn:  booking.Quantity,
			QuantityOut: 0,
		})
	}
	return rows, nil
}

// withAllocation runs fn in a transaction. When the record number was
// allocated (not supplied), a uniqueness conflict retries the whole
// transaction so that a concurrent writer observing the same maximum loses
// only one attempt.
func (service *Service) withAllocation(ctx context.Context, supplied bool, duplicate error, fn func(ctx context.Context, txStore Store) error) error {
	attempts := service.allocateAttempts
	if supplied {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = service.store.WithTx(ctx, fn)
		if !errors.Is(lastErr, duplicate) {
			return lastErr
		}
	}
	if supplied {
		return lastErr
	}
	return WrapError("service", "sequence", "exhausted", fmt.Errorf("%w: %v", ErrSequenceExhausted, lastErr))
}

func (service *Service) today() time.Time {
	return truncateToDay(time.Unix(service.nowFn(), 0))
}

func (service *Service) dayOrToday(value time.Time) time.Time {
	if value.IsZero() {
		return service.today()
	}
	return truncateToDay(value)
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}

func sumSides(entries []LedgerEntry) (decimal.Decimal, decimal.Decimal) {
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, entry := range entries {
		totalDebit = totalDebit.Add(entry.Debit)
		totalCredit = totalCredit.Add(entry.Credit)
	}
	return totalDebit, totalCredit
}
