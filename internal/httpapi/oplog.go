package httpapi

import (
	"context"

	"github.com/MarkoPoloResearchLab/cargo/pkg/cargo"
	"go.uber.org/zap"
)

// ZapOperationLogger reports cargo operations through zap.
type ZapOperationLogger struct {
	logger *zap.Logger
}

// NewZapOperationLogger returns an OperationLogger writing to logger.
func NewZapOperationLogger(logger *zap.Logger) *ZapOperationLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapOperationLogger{logger: logger}
}

// LogOperation implements cargo.OperationLogger.
func (operationLogger *ZapOperationLogger) LogOperation(ctx context.Context, entry cargo.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("party", entry.Party),
		zap.Int64("reference", entry.Reference),
		zap.String("amount", entry.Amount.String()),
		zap.String("status", entry.Status),
	}
	if requestID := requestIDFromContext(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if entry.Error != nil {
		operationLogger.logger.Warn("cargo operation failed", append(fields, zap.Error(entry.Error))...)
		return
	}
	operationLogger.logger.Info("cargo operation", fields...)
}
