package replace

import (
	"fmt"

	"github.com/spf13/afero"
)

// Result describes one rewritten file.
type Result struct {
	Path    string
	Changes int
}

// File applies rules to the file at path. When write is false the file is
// left alone and only the number of changes is reported, which is how
// dry runs preview a bump.
func File(fsys afero.Fs, path string, rules []Rule, write bool) (Result, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return Result{Path: path}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	out, n := ApplyAll(string(data), rules)
	res := Result{Path: path, Changes: n}
	if n == 0 || !write {
		return res, nil
	}

	info, err := fsys.Stat(path)
	if err != nil {
		return res, err
	}
	if err := afero.WriteFile(fsys, path, []byte(out), info.Mode().Perm()); err != nil {
		return res, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return res, nil
}

// Files applies rules to every path, skipping paths that do not exist.
func Files(fsys afero.Fs, paths []string, rules []Rule, write bool) ([]Result, error) {
	var results []Result
	for _, p := range paths {
		ok, err := afero.Exists(fsys, p)
		if err != nil {
			return results, err
		}
		if !ok {
			continue
		}
		res, err := File(fsys, p, rules, write)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
