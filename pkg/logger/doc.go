// Package logger builds log/slog loggers for the membership service.
//
// New returns a *slog.Logger whose handler is wrapped by a decorator that
// copies request-scoped values (request ID, user ID) from the context into
// every record. Output is JSON by default; WithDevelopment switches to text at
// debug level.
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "membershipd"),
//	    logger.WithContextExtractors(requestid.LogAttr),
//	)
//	log.InfoContext(ctx, "payment applied", logger.SessionID(id), logger.Tier("gold"))
//
// The attr helpers keep key names consistent across packages.
package logger
