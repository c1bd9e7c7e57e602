package logger

import (
	"fmt"
	"log"
	"strings"
)

// log levels, lowest to highest
const (
	levelDebug = iota
	levelInfo
	levelWarning
	levelError
)

var currentLevel = levelInfo

// setLevel maps the configured level name to the internal threshold
func setLevel(name string) {
	switch strings.ToUpper(name) {
	case "DEBUG":
		currentLevel = levelDebug
	case "INFO":
		currentLevel = levelInfo
	case "WARNING", "WARN":
		currentLevel = levelWarning
	case "ERROR", "FATAL":
		currentLevel = levelError
	default:
		currentLevel = levelInfo
	}
}

func output(level int, tag, format string, args ...interface{}) {
	if level < currentLevel {
		return
	}
	// Calldepth 3: output -> leveled helper -> caller
	log.Output(3, fmt.Sprintf("[%s] %s", tag, fmt.Sprintf(format, args...)))
}

// Debugf logs a debug-level message
func Debugf(format string, args ...interface{}) {
	output(levelDebug, "DEBUG", format, args...)
}

// Infof logs an info-level message
func Infof(format string, args ...interface{}) {
	output(levelInfo, "INFO", format, args...)
}

// Warningf logs a warning-level message
func Warningf(format string, args ...interface{}) {
	output(levelWarning, "WARNING", format, args...)
}

// Errorf logs an error-level message
func Errorf(format string, args ...interface{}) {
	output(levelError, "ERROR", format, args...)
}

// Error logs an error-level message without formatting
func Error(args ...interface{}) {
	if levelError < currentLevel {
		return
	}
	log.Output(2, fmt.Sprintf("[ERROR] %s", fmt.Sprint(args...)))
}
