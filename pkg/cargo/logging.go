package cargo

import (
	"context"

	"github.com/shopspring/decimal"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// OperationLogger records domain-level events emitted by Service operations.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes a state-changing cargo operation.
type OperationLog struct {
	Operation string
	Party     string
	Reference int64
	Amount    decimal.Decimal
	Status    string
	Error     error
}

// WithOperationLogger wires a logger that receives callbacks for every operation.
func WithOperationLogger(logger OperationLogger) ServiceOption {
	return func(service *Service) {
		service.logger = logger
	}
}

// WithCompanyAccount overrides the ledger account credited by double-entry invoice postings.
func WithCompanyAccount(account PartyName) ServiceOption {
	return func(service *Service) {
		service.companyAccount = account
	}
}

// WithPostingMode sets the posting applied to invoices that do not request one.
func WithPostingMode(mode PostingMode) ServiceOption {
	return func(service *Service) {
		service.postingMode = mode
	}
}

// WithAllocationAttempts bounds how often a conflicting allocated number is retried.
func WithAllocationAttempts(attempts int) ServiceOption {
	return func(service *Service) {
		service.allocateAttempts = attempts
	}
}
