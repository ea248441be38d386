// Package archive builds the plugin zip uploaded to WooCommerce.com,
// attached to GitHub releases and copied to the prerelease folder.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/skyverge/sake/internal/fileset"
)

// Options configures Zip.
type Options struct {
	// BuildDir holds the copied plugin at BuildDir/<PluginID>.
	BuildDir string

	// PluginID is the directory used as the zip root.
	PluginID string

	// Dest is the path of the zip file to write.
	Dest string
}

// Zip packs BuildDir/PluginID into Dest. Entries are prefixed with the
// plugin directory so the archive extracts to wp-content/plugins/<id>.
// Existing zip files inside the build directory are never packed.
// Returns the list of archived entries.
func Zip(fsys afero.Fs, opts Options) ([]string, error) {
	root := filepath.Join(opts.BuildDir, opts.PluginID)
	if ok, err := afero.DirExists(fsys, root); err != nil || !ok {
		return nil, fmt.Errorf("build directory %s does not exist, run copy:build first", root)
	}

	files, err := fileset.Select(fsys, root, fileset.MustRules("**", "!**/*.zip"))
	if err != nil {
		return nil, err
	}

	if err := fsys.MkdirAll(filepath.Dir(opts.Dest), 0755); err != nil {
		return nil, err
	}
	out, err := fsys.Create(opts.Dest)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", opts.Dest, err)
	}

	entries, err := writeZip(fsys, out, root, opts.PluginID, files)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to write %s: %w", opts.Dest, cerr)
	}
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func writeZip(fsys afero.Fs, out io.Writer, root, pluginID string, files []string) ([]string, error) {
	zw := zip.NewWriter(out)
	entries := make([]string, 0, len(files))
	for _, rel := range files {
		name := path.Join(pluginID, rel)
		if err := addFile(fsys, zw, filepath.Join(root, filepath.FromSlash(rel)), name); err != nil {
			_ = zw.Close()
			return nil, err
		}
		entries = append(entries, name)
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return entries, nil
}

func addFile(fsys afero.Fs, zw *zip.Writer, src, name string) error {
	info, err := fsys.Stat(src)
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	f, err := fsys.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

// List returns the entry names of the zip at p, used by tests and the
// dry-run summary.
func List(fsys afero.Fs, p string) ([]string, error) {
	f, err := fsys.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(zr.File))
	for _, zf := range zr.File {
		if !strings.HasSuffix(zf.Name, "/") {
			names = append(names, zf.Name)
		}
	}
	return names, nil
}
