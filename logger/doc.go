// Package logger provides structured logging on top of zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers carrying structured fields.
//
//	log := logger.Get(logger.ComponentDiscovery)
//	log.Warn("dispatch failed", logger.Fields(logger.FieldPeer, "10.0.0.2:7800"))
package logger
