package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog.Logger with reservation-domain helpers
type Logger struct {
	*slog.Logger
}

// New creates a new logger instance
func New() *Logger {
	level := getLogLevel(os.Getenv("LOG_LEVEL"))

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// Text handler while developing, JSON in release mode
	var handler slog.Handler
	if gin.Mode() == gin.DebugMode {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// getLogLevel converts string to slog.Level
func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithError adds error to logger context
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("error", err.Error()))}
}

// WithFields adds multiple fields to logger context
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	return &Logger{Logger: l.Logger.With(args...)}
}

// LogHTTPRequest logs an HTTP request
func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	l.Logger.InfoContext(c.Request.Context(),
		"HTTP Request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
	)
}

// Reservation pipeline logging

// LogSeatHeld logs a successful seat hold
func (l *Logger) LogSeatHeld(ctx context.Context, seatID, userID string, expiresAt time.Time) {
	l.Logger.InfoContext(ctx,
		"Seat Held",
		slog.String("seat_id", seatID),
		slog.String("user_id", userID),
		slog.Time("hold_expires_at", expiresAt),
	)
}

// LogSeatsReleased logs a batch seat release
func (l *Logger) LogSeatsReleased(ctx context.Context, userID string, released int64) {
	l.Logger.InfoContext(ctx,
		"Seats Released",
		slog.String("user_id", userID),
		slog.Int64("released", released),
	)
}

// LogSweep logs the outcome of one expiry-sweeper tick
func (l *Logger) LogSweep(ctx context.Context, reclaimed int64, err error) {
	if err != nil {
		l.Logger.ErrorContext(ctx,
			"Expiry Sweep Failed",
			slog.String("error", err.Error()),
		)
		return
	}
	if reclaimed > 0 {
		l.Logger.InfoContext(ctx,
			"Expiry Sweep",
			slog.Int64("seats_reclaimed", reclaimed),
		)
	}
}

// LogBookingConfirmed logs a committed booking
func (l *Logger) LogBookingConfirmed(ctx context.Context, bookingID, userID string, totalPrice int64, seatCount int) {
	l.Logger.InfoContext(ctx,
		"Booking Confirmed",
		slog.String("booking_id", bookingID),
		slog.String("user_id", userID),
		slog.Int64("total_price", totalPrice),
		slog.Int("seats", seatCount),
	)
}

// LogPaymentOutcome logs an inbound payment outcome and its compensation
func (l *Logger) LogPaymentOutcome(ctx context.Context, bookingID, outcome string, seatsReleased bool) {
	l.Logger.InfoContext(ctx,
		"Payment Outcome Applied",
		slog.String("booking_id", bookingID),
		slog.String("outcome", outcome),
		slog.Bool("seats_released", seatsReleased),
	)
}

// LogBookingCancelled logs a cancelled booking
func (l *Logger) LogBookingCancelled(ctx context.Context, bookingID, cancelledBy string) {
	l.Logger.InfoContext(ctx,
		"Booking Cancelled",
		slog.String("booking_id", bookingID),
		slog.String("cancelled_by", cancelledBy),
	)
}

// Global logger instance (can be replaced with dependency injection)
var defaultLogger = New()

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger instance
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
