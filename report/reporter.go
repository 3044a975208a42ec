package report

import (
	"sync"
	"time"
)

// Reporter is responsible for reporting errors, warnings, and other kinds of
// messages to the user during compilation.  The reporter respects the set log
// level and is synchronized: its methods can be safely called from multiple
// goroutines.  Errors are always counted, even when they are not displayed.
type Reporter struct {
	// The mutex used to synchonize different error method calls.
	m *sync.Mutex

	// The selected log level of the reporter.  This must be one of the
	// enumerated log levels below.
	logLevel int

	// The number of errors and warnings reported so far.
	errorCount, warnCount int

	// All compile messages in the order they were reported.
	messages []*CompileMessage

	startTime time.Time
}

// Enumeration of the different possible log levels.
const (
	LogLevelSilent  = iota // Displays no output.
	LogLevelError          // Displays only errors to the user.
	LogLevelWarn           // Displays only warnings and errors to the user.
	LogLevelVerbose        // Displays all compilation messages to the user (default).
)

// LogLevelNames maps the log level names accepted on the command line to
// their log levels.
var LogLevelNames = map[string]int{
	"silent":  LogLevelSilent,
	"error":   LogLevelError,
	"warn":    LogLevelWarn,
	"verbose": LogLevelVerbose,
}

// rep is the global reporter instance.
var rep = newReporter(LogLevelVerbose)

func newReporter(logLevel int) *Reporter {
	return &Reporter{
		m:         &sync.Mutex{},
		logLevel:  logLevel,
		startTime: time.Now(),
	}
}

// InitReporter initializes the global error reporter to the given log level.
// Any previously recorded messages and counts are discarded.
func InitReporter(logLevel int) {
	rep = newReporter(logLevel)
}

// -----------------------------------------------------------------------------

// CompileMessage is a single diagnostic produced while compiling a file.
type CompileMessage struct {
	// The path to the file the message concerns.  This may be empty.
	File string

	// The position of the message.  This may be nil.
	Position *TextPosition

	Message string
	IsError bool
}

func (cm *CompileMessage) String() string {
	kind := "warning"
	if cm.IsError {
		kind = "error"
	}

	if cm.Position == nil {
		return cm.File + ": " + kind + ": " + cm.Message
	}

	return formatLocation(cm.File, cm.Position) + ": " + kind + ": " + cm.Message
}
