// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

// Package testmelog adorns the logxi package with a component tag and the
// host name so every
// line from any engine component carries enough context to be grepped
// without a correlating id.
package testmelog

import (
	"os"

	logxi "github.com/karlmutch/logxi/v1"
)

var hostName string

func init() {
	hostName, _ = os.Hostname()
}

// Logger wraps a logxi.Logger tagged with the owning component's name.
type Logger struct {
	component string
	log       logxi.Logger
}

// New returns a Logger for the named component (e.g. "discovery",
// "scheduler", "service").
func New(component string) *Logger {
	return &Logger{
		component: component,
		log:       logxi.New(component),
	}
}

func (l *Logger) decorate(args []interface{}) []interface{} {
	allArgs := make([]interface{}, 0, len(args)+2)
	allArgs = append(allArgs, args...)
	allArgs = append(allArgs, "host", hostName)
	return allArgs
}

func (l *Logger) Trace(msg string, args ...interface{}) {
	l.log.Trace(msg, l.decorate(args)...)
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.log.Debug(msg, l.decorate(args)...)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.log.Info(msg, l.decorate(args)...)
}

func (l *Logger) Warn(msg string, args ...interface{}) error {
	return l.log.Warn(msg, l.decorate(args)...)
}

func (l *Logger) Error(msg string, args ...interface{}) error {
	return l.log.Error(msg, l.decorate(args)...)
}

// SetLevel adjusts verbosity; cmd/testme raises the level to debug via this
// method when -debug is set.
func (l *Logger) SetLevel(lvl int) {
	l.log.SetLevel(lvl)
}

func (l *Logger) IsTrace() bool { return l.log.IsTrace() }
func (l *Logger) IsDebug() bool { return l.log.IsDebug() }
