package stamper

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// OutputName is the file a stamped certificate is written to
func OutputName(certificateID string) string {
	return certificateID + "_withQR.pdf"
}

// Output is the directory stamped documents are written into
type Output struct {
	fs  afero.Fs
	dir string
}

// NewOutput creates dir on fs if needed
func NewOutput(fs afero.Fs, dir string) (*Output, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Output{fs: fs, dir: dir}, nil
}

// Path returns where name lives
func (o *Output) Path(name string) string {
	return filepath.Join(o.dir, name)
}

// Write stores data under name. The file is written next to its target
// and renamed into place, so readers never see a partial document and the
// latest run wins.
func (o *Output) Write(name string, data []byte) (string, error) {
	tmp, err := afero.TempFile(o.fs, o.dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		o.fs.Remove(tmpName)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		o.fs.Remove(tmpName)
		return "", fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := o.fs.Chmod(tmpName, 0o644); err != nil {
		o.fs.Remove(tmpName)
		return "", fmt.Errorf("failed to chmod %s: %w", name, err)
	}

	// nothing can fail once the document is in place
	path := o.Path(name)
	if err := o.fs.Rename(tmpName, path); err != nil {
		o.fs.Remove(tmpName)
		return "", fmt.Errorf("failed to move %s into place: %w", name, err)
	}

	return path, nil
}

// Read returns a previously written document
func (o *Output) Read(name string) ([]byte, error) {
	return afero.ReadFile(o.fs, o.Path(name))
}
