package common

import (
	"os"

	"github.com/sirupsen/logrus"
)

type LogLevel int32

const (
	DEBUG_INFO_DETAIL     LogLevel = 1
	DEBUG_INFO            LogLevel = 2
	RDB_OP_FUNC_CALL      LogLevel = 4
	DEBUGGING             LogLevel = 8
	INFO                  LogLevel = 16
	WARN                  LogLevel = 32
	ERROR                 LogLevel = 64
	FATAL                 LogLevel = 128
	BUFFER_INTERNAL_STATE LogLevel = 256
	DEADLOCK_INFO         LogLevel = 512
)

// LogLevelSetting is the mask of active log kinds.
var LogLevelSetting = INFO | WARN | ERROR | FATAL

// Logger is the sink of every message emitted by ShPrintf and the helpers below.
var Logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: false, FullTimestamp: true})
	return l
}

func IsLogKindActive(logLevel LogLevel) bool {
	return logLevel&LogLevelSetting > 0
}

func ShPrintf(logLevel LogLevel, fmtStl string, a ...interface{}) {
	if !IsLogKindActive(logLevel) {
		return
	}
	Logger.Logf(logrusLevel(logLevel), fmtStl, a...)
}

// ShLogWithFields is ShPrintf with structured fields attached.
func ShLogWithFields(logLevel LogLevel, fields logrus.Fields, fmtStl string, a ...interface{}) {
	if !IsLogKindActive(logLevel) {
		return
	}
	Logger.WithFields(fields).Logf(logrusLevel(logLevel), fmtStl, a...)
}

func logrusLevel(logLevel LogLevel) logrus.Level {
	switch {
	case logLevel&FATAL > 0, logLevel&ERROR > 0:
		return logrus.ErrorLevel
	case logLevel&WARN > 0:
		return logrus.WarnLevel
	case logLevel&INFO > 0:
		return logrus.InfoLevel
	case logLevel&DEBUG_INFO_DETAIL > 0:
		return logrus.TraceLevel
	default:
		return logrus.DebugLevel
	}
}
