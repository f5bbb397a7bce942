package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/MarkoPoloResearchLab/cargo/pkg/cargo"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	statusSuccess = "success"
	statusError   = "error"

	legacyBookingSaved = "Booking Saved"

	messageBookingNotFound = "Booking not found"
	messageInvoiceNotFound = "Not found"

	errorCodeInvalidPayload    = "invalid_payload"
	errorCodeInvalidRequest    = "invalid_request"
	errorCodeMissingAmount     = "missing_amount"
	errorCodeDuplicateBilty    = "duplicate_bilty_no"
	errorCodeDuplicateInvoice  = "duplicate_invoice_no"
	errorCodeBookingNotFound   = "booking_not_found"
	errorCodeInvoiceNotFound   = "invoice_not_found"
	errorCodeSequenceExhausted = "sequence_exhausted"
	errorCodeStoreUnavailable  = "store_unavailable"
	errorCodeInternal          = "internal_error"
)

type httpHandler struct {
	logger  *zap.Logger
	service *cargo.Service
	cfg     Config
}

func (handler *httpHandler) handleHealth(ctx *gin.Context) {
	if err := handler.service.Ping(ctx.Request.Context()); err != nil {
		handler.logger.Warn("health check failed", zap.Error(err))
		ctx.JSON(http.StatusServiceUnavailable, errorResponse(errorCodeStoreUnavailable, err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (handler *httpHandler) handleLegacyBooking(ctx *gin.Context) {
	var request legacyBookingRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.String(http.StatusBadRequest, "Error: %v", err)
		return
	}
	biltyNumber, err := optionalBiltyNumber(int64(request.BiltyNo))
	if err != nil {
		ctx.String(http.StatusBadRequest, "Error: %v", err)
		return
	}
	_, err = handler.service.CreateBooking(ctx.Request.Context(), cargo.BookingInput{
		BiltyNumber: biltyNumber,
		Sender:      request.SenderName,
		Receiver:    request.ReceiverName,
	})
	if err != nil {
		status, _, message := handler.classifyError(err)
		ctx.String(status, "Error: %s", message)
		return
	}
	ctx.String(http.StatusOK, legacyBookingSaved)
}

func (handler *httpHandler) handleGetBooking(ctx *gin.Context) {
	// Keys that can never name a booking read as unknown bookings.
	raw, err := strconv.ParseInt(ctx.Param("bilty_no"), 10, 64)
	if err != nil {
		handler.respondError(ctx, fmt.Errorf("%w: %q", cargo.ErrBookingNotFound, ctx.Param("bilty_no")))
		return
	}
	biltyNumber, err := cargo.NewBiltyNumber(raw)
	if err != nil {
		handler.respondError(ctx, fmt.Errorf("%w: %v", cargo.ErrBookingNotFound, err))
		return
	}
	booking, err := handler.service.GetBooking(ctx.Request.Context(), biltyNumber)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, newBookingPayload(booking))
}

func (handler *httpHandler) handleCreateBooking(ctx *gin.Context) {
	var request bookingRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, err.Error()))
		return
	}
	input, err := request.toInput()
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	booking, err := handler.service.CreateBooking(ctx.Request.Context(), input)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"status": statusSuccess, "bilty_no": booking.BiltyNumber.Int64()})
}

func (handler *httpHandler) handleListBookings(ctx *gin.Context) {
	bookings, err := handler.service.ListBookings(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	payload := make([]bookingPayload, 0, len(bookings))
	for _, booking := range bookings {
		payload = append(payload, newBookingPayload(booking))
	}
	ctx.JSON(http.StatusOK, payload)
}

func (handler *httpHandler) handleCreateInvoice(ctx *gin.Context) {
	var request invoiceRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, err.Error()))
		return
	}
	input, err := request.toInput()
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	invoice, err := handler.service.CreateInvoice(ctx.Request.Context(), input)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"status":     statusSuccess,
		"invoice_no": invoice.InvoiceNumber.Int64(),
		"invoice_id": invoice.ID.Int64(),
	})
}

func (handler *httpHandler) handleListInvoices(ctx *gin.Context) {
	invoices, err := handler.service.ListInvoices(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	payload := make([]invoicePayload, 0, len(invoices))
	for _, invoice := range invoices {
		payload = append(payload, newInvoicePayload(invoice))
	}
	ctx.JSON(http.StatusOK, payload)
}

func (handler *httpHandler) handleGetInvoice(ctx *gin.Context) {
	invoiceID, ok := handler.invoiceIDParam(ctx)
	if !ok {
		return
	}
	invoice, err := handler.service.GetInvoice(ctx.Request.Context(), invoiceID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, newInvoicePayload(invoice))
}

func (handler *httpHandler) handleDeleteInvoice(ctx *gin.Context) {
	invoiceID, ok := handler.invoiceIDParam(ctx)
	if !ok {
		return
	}
	if err := handler.service.DeleteInvoice(ctx.Request.Context(), invoiceID); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": statusSuccess})
}

func (handler *httpHandler) invoiceIDParam(ctx *gin.Context) (cargo.InvoiceID, bool) {
	raw, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		handler.respondError(ctx, fmt.Errorf("%w: %q", cargo.ErrInvalidInvoiceID, ctx.Param("id")))
		return 0, false
	}
	invoiceID, err := cargo.NewInvoiceID(raw)
	if err != nil {
		handler.respondError(ctx, err)
		return 0, false
	}
	return invoiceID, true
}

func (handler *httpHandler) handlePartyLedger(ctx *gin.Context) {
	party, err := cargo.NewPartyName(ctx.Param("party"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ledger, err := handler.service.PartyLedger(ctx.Request.Context(), party)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, newPartyLedgerPayload(ledger))
}

func (handler *httpHandler) handleManualEntry(ctx *gin.Context) {
	var request manualEntryRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, err.Error()))
		return
	}
	input, err := request.toInput()
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	entry, err := handler.service.AddManualEntry(ctx.Request.Context(), input)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"status": statusSuccess, "entry_id": entry.ID})
}

func (handler *httpHandler) handleListParties(ctx *gin.Context) {
	summaries, err := handler.service.ListParties(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	payload := make([]partyPayload, 0, len(summaries))
	for _, summary := range summaries {
		payload = append(payload, partyPayload{
			PartyName:   summary.PartyName,
			Balance:     summary.Balance.InexactFloat64(),
			TotalDebit:  summary.TotalDebit.InexactFloat64(),
			TotalCredit: summary.TotalCredit.InexactFloat64(),
		})
	}
	ctx.JSON(http.StatusOK, payload)
}

func (handler *httpHandler) handleListDaybook(ctx *gin.Context) {
	entries, err := handler.service.ListDaybook(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	payload := make([]daybookPayload, 0, len(entries))
	for _, entry := range entries {
		payload = append(payload, daybookPayload{
			ID:          entry.ID,
			Date:        cargo.FormatDate(entry.Date),
			Type:        entry.Type,
			RefNo:       entry.RefNumber,
			Description: entry.Description,
			Amount:      entry.Amount.InexactFloat64(),
			CreatedAt:   formatTimestamp(entry.CreatedAt),
		})
	}
	ctx.JSON(http.StatusOK, payload)
}

func (handler *httpHandler) handleGodown(ctx *gin.Context) {
	rows, err := handler.service.Godown(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	payload := make([]godownPayload, 0, len(rows))
	for _, row := range rows {
		payload = append(payload, godownPayload{
			Bilty:  row.BiltyNumber.Int64(),
			Party:  row.Party,
			Item:   row.Item,
			QtyIn:  row.QuantityIn,
			QtyOut: row.QuantityOut,
		})
	}
	ctx.JSON(http.StatusOK, payload)
}

func (handler *httpHandler) respondError(ctx *gin.Context, err error) {
	status, code, message := handler.classifyError(err)
	ctx.JSON(status, errorResponse(code, message))
}

func (handler *httpHandler) classifyError(err error) (int, string, string) {
	switch {
	case errors.Is(err, cargo.ErrBookingNotFound):
		return http.StatusNotFound, errorCodeBookingNotFound, messageBookingNotFound
	case errors.Is(err, cargo.ErrInvoiceNotFound):
		return http.StatusNotFound, errorCodeInvoiceNotFound, messageInvoiceNotFound
	case errors.Is(err, cargo.ErrSequenceExhausted):
		handler.logger.Warn("sequence allocation exhausted", zap.Error(err))
		return http.StatusConflict, errorCodeSequenceExhausted, err.Error()
	case errors.Is(err, cargo.ErrDuplicateBiltyNumber):
		return http.StatusBadRequest, errorCodeDuplicateBilty, err.Error()
	case errors.Is(err, cargo.ErrDuplicateInvoiceNumber):
		return http.StatusBadRequest, errorCodeDuplicateInvoice, err.Error()
	case errors.Is(err, cargo.ErrMissingEntryAmount):
		return http.StatusBadRequest, errorCodeMissingAmount, err.Error()
	case cargo.IsValidationError(err):
		return http.StatusBadRequest, errorCodeInvalidRequest, err.Error()
	default:
		handler.logger.Error("request failed", zap.Error(err))
		return http.StatusInternalServerError, errorCodeInternal, err.Error()
	}
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"status":  statusError,
		"code":    code,
		"error":   message,
		"message": message,
	}
}
