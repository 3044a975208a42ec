package report

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/pterm/pterm"
)

var (
	SuccessColorFG = pterm.FgLightGreen
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	WarnColorFG    = pterm.FgYellow
	WarnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	ErrorColorFG   = pterm.FgRed
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG    = SuccessColorFG
	InfoStyleBG    = SuccessStyleBG
)

// messageWidth is the column at which diagnostic text is wrapped.
const messageWidth = 72

// WrapText word-wraps text to the diagnostic width and indents it.
func WrapText(text string, indentBy uint) string {
	return indent.String(wordwrap.String(text, messageWidth), indentBy)
}

// formatLocation returns the `file:line:col` prefix of a message.
func formatLocation(file string, pos *TextPosition) string {
	return fmt.Sprintf("%s:%d:%d", file, pos.StartLn, pos.StartCol+1)
}

// displayICE displays an internal compiler error message.
func displayICE(message string) {
	ErrorStyleBG.Print("Internal Compiler Error")
	ErrorColorFG.Println(" " + message)
	fmt.Print("This error was not supposed to happen: please report it along with the source that caused it.\n\n")
}

// displayFatal displays a fatal error message.
func displayFatal(message string) {
	ErrorStyleBG.Print("Fatal Error")
	ErrorColorFG.Println(" " + message)
	fmt.Println()
}

// displayStdError displays a standard Go error.
func displayStdError(file string, err error) {
	ErrorStyleBG.Print("Error")
	ErrorColorFG.Println(" " + file + ": " + err.Error())
	fmt.Println()
}

// DisplayInfoMessage displays an informational message with a title.
func DisplayInfoMessage(title, message string) {
	InfoStyleBG.Print(title)
	InfoColorFG.Println(" " + message)
}

// displayPhase displays the name of a compilation phase.
func displayPhase(name string) {
	InfoColorFG.Println("-- " + name)
}

// displayFinished displays the closing summary of compilation.
func displayFinished(errorCount, warnCount int, outputPath string, elapsed time.Duration) {
	fmt.Println()
	if errorCount == 0 {
		SuccessStyleBG.Print("Done")
		SuccessColorFG.Printf(" %d warning(s), compiled to %s in %.3fs\n", warnCount, outputPath, elapsed.Seconds())
	} else {
		ErrorStyleBG.Print("Failed")
		ErrorColorFG.Printf(" %d error(s), %d warning(s)\n", errorCount, warnCount)
	}
}

// displayCompileMessage displays a compilation error or warning.
func displayCompileMessage(cm *CompileMessage) {
	displayBanner(cm)

	if cm.Position == nil {
		fmt.Println(WrapText(cm.Message, 2))
	} else {
		fmt.Println(WrapText(formatLocation(filepath.Base(cm.File), cm.Position)+": "+cm.Message, 2))
		displaySourceText(cm.File, cm.Position)
	}
}

// displayBanner displays the banner on top of all compilation messages.
func displayBanner(cm *CompileMessage) {
	fmt.Print("\n-- ")

	var kindLen int
	if cm.IsError {
		ErrorStyleBG.Print("Error")
		kindLen = 5
	} else {
		WarnStyleBG.Print("Warning")
		kindLen = 7
	}

	fmt.Print(" ")

	fileName := filepath.Base(cm.File)
	bannerLen := pterm.GetTerminalWidth() / 2
	if bannerLen > 50 {
		bannerLen = 50
	}

	dashCount := bannerLen - len(fileName) - kindLen - 1
	if dashCount < 2 {
		dashCount = 2
	}

	fmt.Print(strings.Repeat("-", dashCount) + " ")
	InfoColorFG.Println(fileName)
}

// displaySourceText displays the source lines covered by a text position with
// the erroneous text underlined.  Sources which cannot be read are skipped.
func displaySourceText(file string, pos *TextPosition) {
	f, err := os.Open(file)
	if err != nil {
		return
	}
	defer f.Close()

	endLn := pos.EndLn
	if endLn < pos.StartLn {
		endLn = pos.StartLn
	}

	var lines []string
	sc := bufio.NewScanner(f)
	for ln := 1; sc.Scan(); ln++ {
		if pos.StartLn <= ln && ln <= endLn {
			lines = append(lines, strings.ReplaceAll(sc.Text(), "\t", " "))
		}
	}

	if sc.Err() != nil || len(lines) == 0 {
		return
	}

	// Calculate the minimum line indentation.
	minIndent := math.MaxInt
	for _, line := range lines {
		lineIndent := len(line) - len(strings.TrimLeft(line, " "))
		if lineIndent < minIndent {
			minIndent = lineIndent
		}
	}

	maxLineNumLen := len(strconv.Itoa(endLn))
	lineNumFmtStr := "%-" + strconv.Itoa(maxLineNumLen) + "v | "

	fmt.Println()
	for i, line := range lines {
		fmt.Printf(lineNumFmtStr, i+pos.StartLn)
		fmt.Println(line[minIndent:])

		fmt.Print(strings.Repeat(" ", maxLineNumLen), " | ")

		// Underlining starts at the start column on the first line and
		// continues from the line start on all subsequent lines.
		carretStart := 0
		if i == 0 {
			carretStart = pos.StartCol - minIndent
		}

		carretEnd := len(line) - minIndent
		if i == len(lines)-1 && pos.EndCol-minIndent < carretEnd {
			carretEnd = pos.EndCol - minIndent
		}

		if carretStart < 0 {
			carretStart = 0
		}
		if carretEnd <= carretStart {
			carretEnd = carretStart + 1
		}

		fmt.Print(strings.Repeat(" ", carretStart))
		ErrorColorFG.Println(strings.Repeat("^", carretEnd-carretStart))
	}

	fmt.Println()
}
