// Package log provides the leveled, printf-style logger used by every stage.
//
// DefaultLogger writes through the standard library logger with a
// "[trendreport] " prefix. GologLogger adapts kataras/golog and is what the
// command line installs. Packages log through the package-level functions
// (Debug, Info, Warn, Error); swap the backend with SetDefaultLogger:
//
//	log.SetDefaultLogger(log.NewGologLoggerWithLevel(log.LogLevelDebug, "[trendreport]"))
//	log.Info("[Market] collected %d documents", n)
package log
