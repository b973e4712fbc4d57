package paths

import (
	"iter"
	"path"
	"path/filepath"
	"strings"
)

// Normalize produces the canonical cache key for a view path: slashes
// unified, the path cleaned, and casing folded. The policy is fixed for the
// lifetime of the process so two spellings of the same file always collide
// on the same key.
func Normalize(p string) string {
	return strings.ToLower(path.Clean(filepath.ToSlash(p)))
}

// ImportChain returns the ancestor import files that govern the compilation
// of viewPath, nearest directory first, ending with the import file at the
// logical root. The sequence is pure and restartable; callers decide what to
// do about candidates that do not exist on disk.
//
// ImportChain("views/home/index.tmpl", "_imports.tmpl") yields
// "views/home/_imports.tmpl", "views/_imports.tmpl", "_imports.tmpl".
//
// The walk never escapes the logical root: a viewPath that itself points
// above the root ("../...") produces an empty sequence.
func ImportChain(viewPath, importName string) iter.Seq[string] {
	return func(yield func(string) bool) {
		dir := path.Dir(path.Clean(filepath.ToSlash(viewPath)))
		for {
			switch {
			case dir == "." || dir == "":
				yield(importName)
				return
			case dir == "/":
				yield("/" + importName)
				return
			case dir == ".." || strings.HasPrefix(dir, "../"):
				return
			}
			if !yield(path.Join(dir, importName)) {
				return
			}
			dir = path.Dir(dir)
		}
	}
}
