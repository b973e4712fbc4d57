package compiler

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"
	"text/template"
	"time"

	"github.com/nholloway/viewmill/core/logger"
	"github.com/nholloway/viewmill/core/models"
	"github.com/nholloway/viewmill/core/paths"
	"github.com/nholloway/viewmill/core/shared"
	"github.com/nholloway/viewmill/core/vfs"
)

// ViewCompiler turns a view file into a compiled template artifact. Each
// existing ancestor import file is parsed into the template set before the
// view itself, root-most first, so a directory's import file shapes every
// view beneath it. This layering is exactly why the cache watches the whole
// import chain: a change to any of these files changes the compile result.
type ViewCompiler struct {
	fs         vfs.Provider
	importName string
	funcMap    template.FuncMap
}

var GlobalFuncMap = template.FuncMap{}

func RegisterGlobalFunc(name string, fn interface{}) {
	GlobalFuncMap[name] = fn
}

func RegisterGlobalFuncs(funcs template.FuncMap) {
	for name, fn := range funcs {
		GlobalFuncMap[name] = fn
	}
}

func getDefaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"upper":     strings.ToUpper,
		"lower":     strings.ToLower,
		"title":     shared.ToTitle,
		"trim":      strings.TrimSpace,
		"replace":   strings.ReplaceAll,
		"contains":  strings.Contains,
		"hasPrefix": strings.HasPrefix,
		"hasSuffix": strings.HasSuffix,
		"split":     strings.Split,
		"join":      strings.Join,

		"now":        time.Now,
		"formatTime": func(layout string, t time.Time) string { return t.Format(layout) },
		"date":       func(t time.Time) string { return t.Format("2006-01-02") },
		"datetime":   func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },

		"default": func(def, val interface{}) interface{} {
			if val == nil || val == "" {
				return def
			}
			return val
		},
		"env": os.Getenv,
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	}
}

// NewViewCompiler creates a compiler over the given file provider.
// importName is the conventional per-directory import file name.
func NewViewCompiler(fsp vfs.Provider, importName string) *ViewCompiler {
	funcMap := template.FuncMap{}
	for name, fn := range getDefaultFuncMap() {
		funcMap[name] = fn
	}
	for name, fn := range GlobalFuncMap {
		funcMap[name] = fn
	}
	return &ViewCompiler{
		fs:         fsp,
		importName: importName,
		funcMap:    funcMap,
	}
}

func (vc *ViewCompiler) AddFunc(name string, fn interface{}) {
	vc.funcMap[name] = fn
}

func (vc *ViewCompiler) AddFuncs(funcs template.FuncMap) {
	for name, fn := range funcs {
		vc.funcMap[name] = fn
	}
}

// Compile satisfies models.CompileFunc. The ancestor import files are
// parsed root-most first so nearer directories can override the templates
// their parents define; the view body is parsed last.
func (vc *ViewCompiler) Compile(desc *models.Descriptor) (*models.Artifact, error) {
	var chain []string
	for imp := range paths.ImportChain(desc.Path, vc.importName) {
		chain = append(chain, imp)
	}
	slices.Reverse(chain)

	tmpl := template.New(path.Base(desc.Path)).Funcs(vc.funcMap)

	for _, imp := range chain {
		source, err := vc.readIfExists(imp)
		if err != nil {
			return nil, err
		}
		if source == nil {
			continue
		}
		if _, err := tmpl.Parse(string(source)); err != nil {
			return nil, fmt.Errorf("failed to parse import file %s: %w", imp, err)
		}
		logger.Debug("ViewCompiler: Layered import file %s into %s", imp, desc.Path)
	}

	body, err := vc.read(desc.Path)
	if err != nil {
		return nil, err
	}
	if _, err := tmpl.Parse(string(body)); err != nil {
		return nil, fmt.Errorf("failed to parse view %s: %w", desc.Path, err)
	}

	checksum, err := vfs.Checksum(vc.fs, desc.Path)
	if err != nil {
		return nil, err
	}

	logger.Debug("ViewCompiler: Compiled %s (%d import files)", desc.Path, len(chain))
	return &models.Artifact{
		Source:     desc.Path,
		Program:    tmpl,
		Checksum:   checksum,
		CompiledAt: time.Now(),
	}, nil
}

func (vc *ViewCompiler) read(p string) ([]byte, error) {
	f, err := vc.fs.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", p, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}
	return content, nil
}

func (vc *ViewCompiler) readIfExists(p string) ([]byte, error) {
	if _, err := vc.fs.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", p, err)
	}
	return vc.read(p)
}

// Render executes a compiled artifact against data.
func Render(w io.Writer, artifact *models.Artifact, data any) error {
	tmpl, ok := artifact.Program.(*template.Template)
	if !ok {
		return fmt.Errorf("artifact for %s does not carry a template program", artifact.Source)
	}
	return tmpl.Execute(w, data)
}
