// fs.go walks template roots.  collectHTML returns every .html file under a
// root as a slash-separated path relative to that root, which is also the
// name the engine gives the parsed template.
package templates

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// collectHTML maps relative name to absolute path for every *.html under
// root.  A missing root yields an empty map.
func collectHTML(root string) (map[string]string, error) {
	files := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, os.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".html") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = path
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// isShared reports whether a template belongs in every page set.
func isShared(name string) bool {
	first, _, _ := strings.Cut(name, "/")
	return first == "layouts" || first == "partials"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
