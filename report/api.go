package report

import (
	"fmt"
	"os"
	"time"
)

// LocalCompileError is a compilation error that occurs in a context in which
// the file is known by the error handler and thus doesn't need to be passed
// along with the error.
type LocalCompileError struct {
	// The error message.
	Message string

	// The position at which the error occurs.
	Position *TextPosition
}

func (lce *LocalCompileError) Error() string {
	return lce.Message
}

// Raise creates a new local compile error.
func Raise(pos *TextPosition, msg string, args ...interface{}) *LocalCompileError {
	return &LocalCompileError{Message: sprintf(msg, args), Position: pos}
}

func sprintf(msg string, args []interface{}) string {
	if len(args) == 0 {
		return msg
	}

	return fmt.Sprintf(msg, args...)
}

// -----------------------------------------------------------------------------

// ReportICE reports an internal compiler error.  These are errors that
// specifically result for a bug or unexpected condition occurring with the
// compiler: they are not intended to ever happen.  These errors are always
// displayed regardless of log level.
func ReportICE(message string, args ...interface{}) {
	rep.m.Lock()
	defer rep.m.Unlock()

	displayICE(sprintf(message, args))

	os.Exit(-1)
}

// ReportFatal reports a fatal error.  These are errors that should cause all
// compilation to stop immediately.  However, they are expected errors that
// generally result from invalid configuration of some form: missing project
// file, unreadable source, etc.
func ReportFatal(message string, args ...interface{}) {
	if rep.logLevel > LogLevelSilent {
		rep.m.Lock()
		defer rep.m.Unlock()

		displayFatal(sprintf(message, args))
	}

	os.Exit(1)
}

// ReportCompileError reports a compilation error: ie. erroneous input code. The
// file is the path to the erroneous source file.  The position may be nil in
// which case no position information will be printed.
func ReportCompileError(file string, pos *TextPosition, message string, args ...interface{}) {
	rep.m.Lock()
	defer rep.m.Unlock()

	cm := &CompileMessage{File: file, Position: pos, Message: sprintf(message, args), IsError: true}
	rep.messages = append(rep.messages, cm)
	rep.errorCount++

	if rep.logLevel > LogLevelSilent {
		displayCompileMessage(cm)
	}
}

// ReportCompileWarning reports a compilation warning.  The arguments are of the
// same form as those to ReportCompileError.
func ReportCompileWarning(file string, pos *TextPosition, message string, args ...interface{}) {
	rep.m.Lock()
	defer rep.m.Unlock()

	cm := &CompileMessage{File: file, Position: pos, Message: sprintf(message, args)}
	rep.messages = append(rep.messages, cm)
	rep.warnCount++

	if rep.logLevel >= LogLevelWarn {
		displayCompileMessage(cm)
	}
}

// ReportStdError reports a non-fatal, standard Go error.
func ReportStdError(file string, err error) {
	rep.m.Lock()
	defer rep.m.Unlock()

	rep.messages = append(rep.messages, &CompileMessage{File: file, Message: err.Error(), IsError: true})
	rep.errorCount++

	if rep.logLevel > LogLevelSilent {
		displayStdError(file, err)
	}
}

// ReportPhase announces the start of a compilation phase.  It only displays at
// the verbose log level.
func ReportPhase(name string, args ...interface{}) {
	if rep.logLevel == LogLevelVerbose {
		rep.m.Lock()
		defer rep.m.Unlock()

		displayPhase(sprintf(name, args))
	}
}

// ReportCompilationFinished reports the concluding message for compilation.
func ReportCompilationFinished(outputPath string) {
	if rep.logLevel > LogLevelSilent {
		rep.m.Lock()
		defer rep.m.Unlock()

		displayFinished(rep.errorCount, rep.warnCount, outputPath, time.Since(rep.startTime))
	}
}

// -----------------------------------------------------------------------------

// AnyErrors returns whether or not any errors were detected.
func AnyErrors() bool {
	return rep.errorCount > 0
}

// ErrorCount returns the number of errors reported so far.
func ErrorCount() int {
	return rep.errorCount
}

// WarningCount returns the number of warnings reported so far.
func WarningCount() int {
	return rep.warnCount
}

// Messages returns all the errors and warnings reported so far in order.
func Messages() []*CompileMessage {
	rep.m.Lock()
	defer rep.m.Unlock()

	msgs := make([]*CompileMessage, len(rep.messages))
	copy(msgs, rep.messages)
	return msgs
}

// -----------------------------------------------------------------------------

// CatchErrors catches any errors thrown by a `panic` during a stage of
// compilation. In effect, this handler determines when any errors
// "unrecoverable" within a given subsection of the compiler should stop
// bubbling.
// NB: This function must ALWAYS be deferred.
func CatchErrors(file string) {
	if x := recover(); x != nil {
		if cerr, ok := x.(*LocalCompileError); ok {
			ReportCompileError(file, cerr.Position, cerr.Message)
		} else if serr, ok := x.(error); ok {
			ReportStdError(file, serr)
		} else {
			ReportFatal("%s", x)
		}
	}
}
