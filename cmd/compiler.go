package cmd

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"

	"oberonc/ast"
	"oberonc/common"
	"oberonc/depm"
	"oberonc/generate"
	"oberonc/report"
	"oberonc/sema"
	"oberonc/symfile"
	"oberonc/syntax"
	"oberonc/typing"

	"github.com/pkg/errors"
)

// Compiler represents the state of the compilation of a single module.
type Compiler struct {
	// proj is the project being compiled.
	proj *depm.Project

	// ctx is the type context shared by all modules of the compilation.
	ctx *typing.Context

	// table is the symbol table holding the universe, the imported modules and
	// the compiled module.
	table *depm.SymbolTable

	// module is the analyzed module.  It is nil until analysis succeeds.
	module *ast.Module
}

// NewCompiler creates a new compiler for a project.
func NewCompiler(proj *depm.Project) *Compiler {
	c := &Compiler{
		proj:  proj,
		ctx:   typing.NewContext(),
		table: depm.NewSymbolTable(),
	}

	depm.PopulateUniverse(c.table, c.ctx)
	return c
}

// Analyze runs the analysis phase of the compiler: the source file is parsed
// and checked and the symbol file of the module is written.  It returns
// whether analysis succeeded.
func (c *Compiler) Analyze() bool {
	report.ReportPhase("Analyzing %s", c.proj.Name)

	f, err := os.Open(c.proj.SourcePath)
	if err != nil {
		report.ReportStdError(c.proj.SourcePath, errors.Wrap(err, "unable to open source file"))
		return false
	}
	defer f.Close()

	if err := os.MkdirAll(c.proj.SymDir, os.ModePerm); err != nil {
		report.ReportStdError(c.proj.SourcePath, errors.Wrap(err, "unable to create symbol directory"))
		return false
	}

	s := sema.New(c.proj.SourcePath, sema.Config{
		SymbolPath: c.proj.SymbolPath(),
		SymbolDir:  c.proj.SymDir,
	}, c.ctx, c.table)

	module := syntax.NewParser(c.proj.SourcePath, f, s).Parse()
	if module == nil || report.AnyErrors() {
		return false
	}

	if module.Name() != c.proj.Name {
		report.ReportStdError(c.proj.SourcePath, errors.Errorf("source file declares module %s instead of %s", module.Name(), c.proj.Name))
		return false
	}

	c.module = module
	return true
}

// Generate runs the generation phase of the compiler and writes the LLVM IR
// of the module.  It returns the path to the generated file or the empty
// string if generation failed.
func (c *Compiler) Generate() string {
	report.ReportPhase("Generating %s", c.proj.Name)

	g := generate.NewGenerator(generate.Config{
		EnableMain: c.proj.EnableMain,
		Sanitize:   c.proj.Sanitize,
	}, c.ctx, c.module)

	mod, err := g.Generate()
	if err != nil {
		report.ReportStdError(c.proj.SourcePath, err)
		return ""
	}

	mod.SourceFilename = filepath.Base(c.proj.SourcePath)

	if err := os.MkdirAll(c.proj.OutDir, os.ModePerm); err != nil {
		report.ReportStdError(c.proj.SourcePath, errors.Wrap(err, "unable to create output directory"))
		return ""
	}

	outPath := filepath.Join(c.proj.OutDir, c.proj.Name+common.IRFileExt)
	if err := ioutil.WriteFile(outPath, []byte(mod.String()), 0644); err != nil {
		report.ReportStdError(c.proj.SourcePath, errors.Wrapf(err, "unable to write `%s`", outPath))
		return ""
	}

	return outPath
}

// -----------------------------------------------------------------------------

// ListSymbols imports a symbol file into an empty symbol table and returns a
// description of each of its declarations.
func ListSymbols(path, module string) ([]string, error) {
	ctx := typing.NewContext()
	table := depm.NewSymbolTable()
	depm.PopulateUniverse(table, ctx)

	decls, err := symfile.ReadFile(path, module, table, ctx)
	if err != nil {
		return nil, err
	}

	lines := make([]string, len(decls))
	for i, decl := range decls {
		lines[i] = describeDecl(decl)
	}

	return lines, nil
}

// describeDecl returns a one line description of an imported declaration.
func describeDecl(decl ast.Decl) string {
	if cd, ok := decl.(*ast.ConstDecl); ok {
		return fmt.Sprintf("%s %s = %s", decl.Kind(), decl.Name(), formatConst(cd.Value))
	}

	return fmt.Sprintf("%s %s: %s", decl.Kind(), decl.Name(), typing.Format(decl.Type()))
}

func formatConst(expr ast.Expr) string {
	switch v := expr.(type) {
	case *ast.IntegerLit:
		return strconv.FormatInt(v.Value, 10)
	case *ast.RealLit:
		return strconv.FormatFloat(v.Value, 'g', -1, 64)
	case *ast.BooleanLit:
		if v.Value {
			return "TRUE"
		}

		return "FALSE"
	case *ast.CharLit:
		return fmt.Sprintf("%XX", v.Value)
	case *ast.StringLit:
		return strconv.Quote(v.Value)
	case *ast.SetLit:
		return fmt.Sprintf("SET(%#x)", v.Value)
	case *ast.NilLit:
		return "NIL"
	}

	return "?"
}
