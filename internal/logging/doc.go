// Package logging provides structured logging utilities for leadcal.
//
// It centralizes attribute naming and PII handling so tool handlers, the
// calendar provider and the record store all log the same way with the
// standard library's slog package.
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "book")
//	logger.Info("booking created", logging.Calendar(calendarID))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("lead verified",
//	    logging.UserHash(email),
//	    logging.Phone(phone))
//
// # Security Considerations
//
//   - Lead emails are hashed to prevent PII leakage while allowing correlation
//   - Phone numbers are masked to their last four digits
//   - Tokens are never logged directly
package logging
