package utils

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

var (
	// InfoLogger records request and workflow milestones
	InfoLogger *log.Logger
	// ErrorLogger records failures, in its own file so operators can tail it
	ErrorLogger *log.Logger
	// DebugLogger records verbose diagnostics alongside info
	DebugLogger *log.Logger
)

// InitLogger opens the dated log files and wires up the level loggers. Info
// and debug share the application log; errors get a separate file. The
// directory defaults to ./logs and can be moved with LOG_DIR.
func InitLogger() error {
	dir := os.Getenv("LOG_DIR")
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %v", dir, err)
	}

	date := time.Now().Format("2006-01-02")
	appFile, err := openLogFile(filepath.Join(dir, fmt.Sprintf("plateful-%s.log", date)))
	if err != nil {
		return err
	}
	errorFile, err := openLogFile(filepath.Join(dir, fmt.Sprintf("plateful-error-%s.log", date)))
	if err != nil {
		return err
	}

	InfoLogger = log.New(appFile, "INFO  ", log.Ldate|log.Ltime)
	DebugLogger = log.New(appFile, "DEBUG ", log.Ldate|log.Ltime)
	ErrorLogger = log.New(errorFile, "ERROR ", log.Ldate|log.Ltime)
	return nil
}

func openLogFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %v", path, err)
	}
	return f, nil
}

// LogInfo logs an informational message
func LogInfo(format string, v ...interface{}) {
	if InfoLogger != nil {
		InfoLogger.Printf(format, v...)
	}
}

// LogError logs an error message
func LogError(format string, v ...interface{}) {
	if ErrorLogger != nil {
		ErrorLogger.Printf(format, v...)
	}
}

// LogDebug logs a debug message
func LogDebug(format string, v ...interface{}) {
	if DebugLogger != nil {
		DebugLogger.Printf(format, v...)
	}
}
