package cargo

const (
	operationCreateBooking  = "create_booking"
	operationCreateInvoice  = "create_invoice"
	operationDeleteInvoice  = "delete_invoice"
	operationManualEntry    = "manual_entry"
	operationStatusOK       = "ok"
	operationStatusError    = "error"
	defaultCompanyAccount   = "Company"
	defaultAllocateAttempts = 5
	godownItemLabel         = "General Goods"
	daybookTypeInvoice      = "invoice"
	dateLayout              = "2006-01-02"

	// Stored amounts are numeric(14,2); weights are numeric(14,3).
	numericPrecision int32 = 14
	moneyScale       int32 = 2
	weightScale      int32 = 3

	// FirstSequenceNumber is allocated when a numbered table is empty.
	FirstSequenceNumber int64 = 1001
)
