// Package logging routes the command's log output to stderr or a rotating file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/natefinch/lumberjack"
)

// Config selects where log messages go
type Config struct {
	Logfile string
	MaxSize int // megabytes
	MaxAge  int // days
	Verbose bool
}

var verbose = true

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SetLogger sends log messages to a rotating log file, or leaves them on
// stderr when no file is configured. The returned closer releases the file.
func (c *Config) SetLogger() io.Closer {
	verbose = c == nil || c.Verbose
	if c == nil || c.Logfile == "" {
		log.SetOutput(os.Stderr)
		return nopCloser{}
	}
	fmt.Printf("Sending log messages to: %s\n", c.Logfile)
	l := &lumberjack.Logger{
		Filename: c.Logfile,
		MaxSize:  c.MaxSize,
		MaxAge:   c.MaxAge,
	}
	log.SetOutput(l)
	return l
}

// Infof logs at INFO level; suppressed unless verbose
func Infof(format string, args ...interface{}) {
	if !verbose {
		return
	}
	log.Printf(" INFO "+format, args...)
}

// Warningf logs at WARNING level
func Warningf(format string, args ...interface{}) {
	log.Printf(" WARNING "+format, args...)
}

// Errorf logs at ERROR level
func Errorf(format string, args ...interface{}) {
	log.Printf(" ERROR "+format, args...)
}

// Fatalf logs at CRITICAL level and exits
func Fatalf(format string, args ...interface{}) {
	log.Fatalf(" CRITICAL "+format, args...)
}
