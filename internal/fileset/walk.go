package fileset

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// Select walks root and returns the slash-separated relative paths of the
// regular files selected by rules, sorted. A missing root yields no files.
func Select(fsys afero.Fs, root string, rules *Rules) ([]string, error) {
	exists, err := afero.DirExists(fsys, root)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	var files []string
	err = afero.Walk(fsys, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if info.IsDir() {
			if rules.Pruned(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if rules.Match(rel) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

// Transform may rewrite a file's contents while it is copied.
type Transform func(rel string, data []byte) []byte

// Copy copies the given relative files from srcRoot to dstRoot, creating
// parent directories as needed and preserving file modes.
func Copy(fsys afero.Fs, srcRoot, dstRoot string, files []string, transform Transform) error {
	for _, rel := range files {
		src := filepath.Join(srcRoot, filepath.FromSlash(rel))
		dst := filepath.Join(dstRoot, filepath.FromSlash(rel))

		info, err := fsys.Stat(src)
		if err != nil {
			return err
		}
		data, err := afero.ReadFile(fsys, src)
		if err != nil {
			return err
		}
		if transform != nil {
			data = transform(rel, data)
		}
		if err := fsys.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		if err := afero.WriteFile(fsys, dst, data, info.Mode().Perm()); err != nil {
			return fmt.Errorf("failed to copy %s: %w", rel, err)
		}
	}
	return nil
}

// CopyFile copies a single file to dst, creating the destination directory.
func CopyFile(fsys afero.Fs, src, dst string) error {
	info, err := fsys.Stat(src)
	if err != nil {
		return err
	}
	data, err := afero.ReadFile(fsys, src)
	if err != nil {
		return err
	}
	if err := fsys.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	return afero.WriteFile(fsys, dst, data, info.Mode().Perm())
}

// Remove deletes the files under root selected by rules and returns their
// relative paths. Directories left empty are removed as well.
func Remove(fsys afero.Fs, root string, rules *Rules) ([]string, error) {
	files, err := Select(fsys, root, rules)
	if err != nil {
		return nil, err
	}
	dirs := map[string]bool{}
	for _, rel := range files {
		if err := fsys.Remove(filepath.Join(root, filepath.FromSlash(rel))); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		for d := path.Dir(rel); d != "." && d != "/"; d = path.Dir(d) {
			dirs[d] = true
		}
	}
	pruneEmptyDirs(fsys, root, dirs)
	return files, nil
}

// pruneEmptyDirs removes directories that became empty, deepest first.
func pruneEmptyDirs(fsys afero.Fs, root string, dirs map[string]bool) {
	list := make([]string, 0, len(dirs))
	for d := range dirs {
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool { return len(list[i]) > len(list[j]) })
	for _, d := range list {
		full := filepath.Join(root, filepath.FromSlash(d))
		if empty, err := afero.IsEmpty(fsys, full); err == nil && empty {
			_ = fsys.Remove(full)
		}
	}
}

// Empty removes everything inside dir but keeps dir itself.
func Empty(fsys afero.Fs, dir string) error {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if err := fsys.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
