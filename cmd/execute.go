package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"oberonc/common"
	"oberonc/depm"
	"oberonc/report"

	"github.com/ComedicChimera/olive"
)

// Execute is the main entry point for the `oberonc` CLI utility.  It returns
// the exit code of the process.
func Execute() int {
	return run(os.Args)
}

// run parses the command line and executes the selected subcommand.
func run(args []string) int {
	// set up the argument parser and all its subcommands and arguments
	cli := olive.NewCLI("oberonc", "oberonc compiles Oberon modules to LLVM IR", true)
	logLvlArg := cli.AddSelectorArg("loglevel", "ll", "the compiler log level", false, []string{"silent", "error", "warn", "verbose"})
	logLvlArg.SetDefaultValue("verbose")

	buildCmd := cli.AddSubcommand("build", "compile a module", true)
	buildCmd.AddPrimaryArg("project-path", "the path to the project directory, project file or source file", true)
	buildCmd.AddStringArg("out-dir", "o", "the directory to write the generated IR to", false)
	buildCmd.AddFlag("main", "m", "generate a `main` function calling the module body")
	buildCmd.AddFlag("check", "c", "only check the module and write its symbol file")

	symCmd := cli.AddSubcommand("symbols", "list the declarations of a symbol file", true)
	symCmd.AddPrimaryArg("symbol-file", "the path to the symbol file", true)

	cli.AddSubcommand("version", "print the compiler version", false)

	// run the argument parser
	result, err := olive.ParseArgs(cli, args)
	if err != nil {
		report.ReportStdError("", err)
		return 2
	}

	logLevel := report.LogLevelNames[result.Arguments["loglevel"].(string)]

	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "build":
		return execBuildCommand(subResult, logLevel)
	case "symbols":
		return execSymbolsCommand(subResult, logLevel)
	case "version":
		report.DisplayInfoMessage("Oberon Version", common.OberonVersion)
	}

	return 0
}

// execBuildCommand executes the build subcommand and handles all errors.
func execBuildCommand(result *olive.ArgParseResult, logLevel int) int {
	report.InitReporter(logLevel)

	projPath, _ := result.PrimaryArg()

	proj, err := depm.LoadProject(projPath)
	if err != nil {
		report.ReportStdError(projPath, err)
		return 1
	}

	if outDir, ok := result.Arguments["out-dir"]; ok {
		if proj.OutDir, err = filepath.Abs(outDir.(string)); err != nil {
			report.ReportStdError(projPath, err)
			return 1
		}
	}

	if result.HasFlag("main") {
		proj.EnableMain = true
	}

	c := NewCompiler(proj)

	outPath := ""
	if c.Analyze() && !result.HasFlag("check") {
		outPath = c.Generate()
	}

	report.ReportCompilationFinished(outPath)

	if report.AnyErrors() {
		return 1
	}

	return 0
}

// execSymbolsCommand executes the symbols subcommand: the symbol file is
// imported on its own and its declarations are listed.
func execSymbolsCommand(result *olive.ArgParseResult, logLevel int) int {
	report.InitReporter(logLevel)

	path, _ := result.PrimaryArg()
	name := strings.TrimSuffix(filepath.Base(path), common.SymbolFileExt)

	decls, err := ListSymbols(path, name)
	if err != nil {
		report.ReportStdError(path, err)
		return 1
	}

	for _, line := range decls {
		report.DisplayInfoMessage(name, line)
	}

	return 0
}
