package depm

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"oberonc/common"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// tomlProject represents a project as it is encoded in TOML.
type tomlProject struct {
	Name       string   `toml:"name"`
	Source     string   `toml:"source"`
	OutDir     string   `toml:"out-dir"`
	SymDir     string   `toml:"sym-dir"`
	Include    []string `toml:"include"`
	EnableMain bool     `toml:"enable-main"`
	Sanitize   []string `toml:"sanitize"`
}

// Enumeration of runtime checks that can be enabled with the `sanitize` option.
const (
	SanitizeBounds = "bounds"
	SanitizeNil    = "nil"
	SanitizeDiv    = "div"
	SanitizeGuard  = "guard"
)

// Project is a loaded and validated project: the module to compile along with
// the options to compile it with.  All paths are absolute.
type Project struct {
	// Name is the name of the main module.
	Name string

	// Root is the directory containing the project file or the source file.
	Root string

	// SourcePath is the path to the source file of the main module.
	SourcePath string

	// OutDir is the directory the generated IR is written to.
	OutDir string

	// SymDir is the directory symbol files are written to.
	SymDir string

	// Include is the list of directories searched for symbol files of
	// imported modules.
	Include []string

	// EnableMain indicates that a `main` function calling the module body
	// should be generated.
	EnableMain bool

	// Sanitize is the set of enabled runtime checks.
	Sanitize map[string]bool
}

// LoadProject loads and validates a project.  The path is either a directory
// containing a project file, a project file or an Oberon source file.  A
// source file is compiled with default options.
func LoadProject(path string) (*Project, error) {
	abspath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid project path `%s`", path)
	}

	finfo, err := os.Stat(abspath)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open project at `%s`", path)
	}

	if finfo.IsDir() {
		abspath = filepath.Join(abspath, common.ProjectFileName)
	} else if strings.HasSuffix(abspath, common.SourceFileExt) {
		name := strings.TrimSuffix(filepath.Base(abspath), common.SourceFileExt)
		return newProject(filepath.Dir(abspath), &tomlProject{Name: name, Source: filepath.Base(abspath)})
	}

	f, err := os.Open(abspath)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open project file at `%s`", abspath)
	}
	defer f.Close()

	buff, err := ioutil.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading project file at `%s`", abspath)
	}

	tomlProj := &tomlProject{}
	if err := toml.Unmarshal(buff, tomlProj); err != nil {
		return nil, errors.Wrapf(err, "error parsing project file at `%s`", abspath)
	}

	return newProject(filepath.Dir(abspath), tomlProj)
}

// newProject validates the TOML project and resolves all of its paths relative
// to the project root.
func newProject(root string, tomlProj *tomlProject) (*Project, error) {
	if tomlProj.Name == "" {
		return nil, errors.Errorf("project at `%s` is missing a module name", root)
	}

	if !IsValidIdentifier(tomlProj.Name) {
		return nil, errors.Errorf("module name `%s` must be a valid identifier", tomlProj.Name)
	}

	resolve := func(path, def string) string {
		if path == "" {
			path = def
		}

		if filepath.IsAbs(path) {
			return path
		}

		return filepath.Join(root, path)
	}

	proj := &Project{
		Name:       tomlProj.Name,
		Root:       root,
		SourcePath: resolve(tomlProj.Source, tomlProj.Name+common.SourceFileExt),
		OutDir:     resolve(tomlProj.OutDir, "."),
		EnableMain: tomlProj.EnableMain,
		Sanitize:   make(map[string]bool),
	}

	proj.SymDir = resolve(tomlProj.SymDir, filepath.Dir(proj.SourcePath))

	for _, inc := range tomlProj.Include {
		proj.Include = append(proj.Include, resolve(inc, "."))
	}

	for _, check := range tomlProj.Sanitize {
		switch check {
		case SanitizeBounds, SanitizeNil, SanitizeDiv, SanitizeGuard:
			proj.Sanitize[check] = true
		default:
			return nil, errors.Errorf("unknown sanitize option `%s` in project `%s`", check, tomlProj.Name)
		}
	}

	return proj, nil
}

// SymbolPath returns the directories searched for symbol files in order: the
// directory of the source file, the symbol directory and the include path.
func (p *Project) SymbolPath() []string {
	dirs := []string{filepath.Dir(p.SourcePath)}
	if p.SymDir != dirs[0] {
		dirs = append(dirs, p.SymDir)
	}

	return append(dirs, p.Include...)
}

// FindSymbolFile searches the given directories for the symbol file of a
// module.  It returns the path to the first symbol file found.
func FindSymbolFile(module string, dirs []string) (string, bool) {
	for _, dir := range dirs {
		path := filepath.Join(dir, module+common.SymbolFileExt)
		if finfo, err := os.Stat(path); err == nil && !finfo.IsDir() {
			return path, true
		}
	}

	return "", false
}

// IsValidIdentifier returns whether or not a given string would be a valid
// identifier (module name, alias, etc.).
func IsValidIdentifier(idstr string) bool {
	if idstr == "" {
		return false
	}

	if ('a' <= idstr[0] && idstr[0] <= 'z') || ('A' <= idstr[0] && idstr[0] <= 'Z') {
		for _, c := range idstr[1:] {
			if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
				continue
			}

			return false
		}

		return true
	}

	return false
}
