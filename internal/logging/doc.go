// Package logging provides structured logging for minerdash.
//
// This package wraps zap with convenience functions for the logging patterns
// used by the dashboard client and the backend server, and it owns the
// per-subsystem verbosity table that dashboards change at runtime.
//
// # Process Logger
//
// The process logger is silent unless a level is given on the command line or
// through MINERDASH_LOG_LEVEL:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// Output goes to stderr in console format because the terminal dashboard
// draws on stdout.
//
// # Subsystem Loggers
//
// A Subsystems table hands out one named zap logger per miner subsystem. Each
// logger's core consults the subsystem's current level on every entry, so
// Apply takes effect on the running process without rebuilding loggers:
//
//	subs, _ := logging.NewSubsystems(logging.GetLogger().Core(), levels.Defaults())
//	plotLog := subs.Logger("plotReader")
//	plotLog.Debug("scoop read", zap.Uint64("nonce", n))
//
//	_ = subs.Apply(newState) // all-or-nothing
//
// Ten dashboard levels map onto zap's six: off disables the logger, fatal
// maps to Fatal, critical to DPanic, error to Error, warning to Warn, notice
// and information to Info, debug, trace and all to Debug.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging
