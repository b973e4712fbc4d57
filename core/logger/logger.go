package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorPurple = "\033[35m"
	colorWhite  = "\033[37m"
	colorGray   = "\033[90m"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) color() string {
	switch l {
	case DEBUG:
		return colorGray
	case INFO:
		return colorBlue
	case WARN:
		return colorYellow
	case ERROR:
		return colorRed
	case FATAL:
		return colorPurple
	default:
		return colorWhite
	}
}

type leveledLogger struct {
	mu      sync.RWMutex
	verbose bool
	writers map[LogLevel][]io.Writer
}

var global *leveledLogger

func init() {
	global = &leveledLogger{writers: make(map[LogLevel][]io.Writer)}
	for level := DEBUG; level <= FATAL; level++ {
		global.writers[level] = []io.Writer{os.Stdout}
	}
}

// SetVerbose enables or disables DEBUG output.
func SetVerbose(verbose bool) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.verbose = verbose
}

func IsVerbose() bool {
	global.mu.RLock()
	defer global.mu.RUnlock()
	return global.verbose
}

// SetWriter replaces the output writer for a single level.
func SetWriter(level LogLevel, writer io.Writer) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.writers[level] = []io.Writer{writer}
}

// SetWriterForAll replaces the output writer for every level.
func SetWriterForAll(writer io.Writer) {
	global.mu.Lock()
	defer global.mu.Unlock()
	for level := DEBUG; level <= FATAL; level++ {
		global.writers[level] = []io.Writer{writer}
	}
}

// AddWriter appends an additional writer for a single level.
func AddWriter(level LogLevel, writer io.Writer) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.writers[level] = append(global.writers[level], writer)
}

// AddWriterForAll appends an additional writer for every level.
func AddWriterForAll(writer io.Writer) {
	for level := DEBUG; level <= FATAL; level++ {
		AddWriter(level, writer)
	}
}

// SetErrorWriter routes ERROR and FATAL output to stderr.
func SetErrorWriter() {
	SetWriter(ERROR, os.Stderr)
	SetWriter(FATAL, os.Stderr)
}

func (ll *leveledLogger) format(level LogLevel, message string) string {
	timestamp := time.Now().Format("06-01-02 15:04:05")
	return fmt.Sprintf(
		"%s[%s]%s %s%-5s%s %s%s\n",
		colorGray, timestamp, colorReset,
		level.color(), level.String(), colorReset,
		message, colorReset,
	)
}

func (ll *leveledLogger) log(level LogLevel, format string, args ...interface{}) {
	ll.mu.RLock()
	if level == DEBUG && !ll.verbose {
		ll.mu.RUnlock()
		return
	}
	writers := ll.writers[level]
	ll.mu.RUnlock()

	line := ll.format(level, fmt.Sprintf(format, args...))
	for _, w := range writers {
		fmt.Fprint(w, line)
	}

	if level == FATAL {
		os.Exit(1)
	}
}

func Debug(format string, args ...interface{}) {
	global.log(DEBUG, format, args...)
}

func Info(format string, args ...interface{}) {
	global.log(INFO, format, args...)
}

func Warn(format string, args ...interface{}) {
	global.log(WARN, format, args...)
}

func Error(format string, args ...interface{}) {
	global.log(ERROR, format, args...)
}

func Fatal(format string, args ...interface{}) {
	global.log(FATAL, format, args...)
}
