// Package logging provides structured logging for flowgate built on Zap.
//
// The Logger wraps *zap.Logger with context-aware methods so correlation
// fields (project, agent) attached to a context.Context are emitted on every
// log line. flowgate is a short-lived CLI process, so the logger writes to
// stderr by default and carries no sampling or exporter machinery.
package logging
