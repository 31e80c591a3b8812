// Package logging provides structured logging for the completion pipeline.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging with JSON and text formats
//   - Context-aware logging with request IDs and model names
//   - Configurable log levels (debug, info, warn, error)
//
// # Usage
//
//	// Create a logger
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Log structured data
//	logger.Info("Request completed",
//	    "request_id", "req-123",
//	    "model", "gemini-1.5-flash",
//	    "duration_ms", 1234,
//	)
//
//	// Create context-aware logger
//	ctx := logging.WithRequestID(context.Background(), "req-123")
//	ctxLogger := logger.WithContext(ctx)
//	ctxLogger.Info("Processing")  // Includes request_id automatically
//
// Packages that accept a *slog.Logger directly can use the Slog accessor:
//
//	limiter := ratelimit.New(logger.Slog())
//
// # Performance
//
// Messages below the configured level are dropped before argument
// processing, so disabled log calls cost under a microsecond.
package logging
