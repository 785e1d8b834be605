package safeio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrDestinationExists is returned by RenameNoClobber when the target path is taken.
var ErrDestinationExists = errors.New("destination already exists")

// Exists reports whether path can be stat'ed. Any stat error counts as absent.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

// ReadFileContained reads a file only if it is contained within baseDir.
// Returns an error if the file is outside baseDir or cannot be read.
func ReadFileContained(baseDir, filePath string) ([]byte, error) {
	baseDirAbs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, errors.New("failed to resolve base directory")
	}
	filePathAbs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, errors.New("failed to resolve file path")
	}

	rel, err := filepath.Rel(baseDirAbs, filePathAbs)
	if err != nil {
		return nil, errors.New("failed to compute relative path")
	}
	if strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return nil, fmt.Errorf("file path is outside base directory: %s", filePath)
	}

	// #nosec G304 -- filePathAbs has been verified to be contained within baseDirAbs
	return os.ReadFile(filePathAbs)
}

// WriteFilePreservePerms writes data to path preserving existing file mode when possible.
// When the file does not exist, it uses a sane default of 0644.
func WriteFilePreservePerms(path string, data []byte) error {
	var mode os.FileMode = 0o644
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode() & 0o777
		if mode == 0 {
			mode = 0o644
		}
	}
	return os.WriteFile(path, data, mode)
}

// TimestampedName inserts an ISO-8601 derived suffix before the extension:
// "notes.md" at 2026-01-02T03:04:05.678Z becomes "notes-2026-01-02T03-04-05-678Z.md".
func TimestampedName(name string, at time.Time) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	stamp := at.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return base + "-" + stamp + ext
}

// MoveDestination returns the first free path for src inside dstDir: the
// plain name, then the timestamped name, then the timestamped name with a
// "-1", "-2", ... counter. taken reports occupied paths; nil means Exists.
func MoveDestination(src, dstDir string, at time.Time, taken func(string) bool) string {
	if taken == nil {
		taken = Exists
	}
	name := filepath.Base(src)
	dst := filepath.Join(dstDir, name)
	if !taken(dst) {
		return dst
	}
	stamped := TimestampedName(name, at)
	ext := filepath.Ext(stamped)
	base := strings.TrimSuffix(stamped, ext)
	dst = filepath.Join(dstDir, stamped)
	for n := 1; taken(dst); n++ {
		dst = filepath.Join(dstDir, fmt.Sprintf("%s-%d%s", base, n, ext))
	}
	return dst
}

// MoveIntoDir creates dstDir (mkdir -p) and renames src into it, never
// overwriting an existing file. It returns the final path.
func MoveIntoDir(src, dstDir string, at time.Time) (string, error) {
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dstDir, err)
	}
	dst := MoveDestination(src, dstDir, at, nil)
	if err := RenameNoClobber(src, dst); err != nil {
		return "", fmt.Errorf("move %s: %w", src, err)
	}
	return dst, nil
}

// RenameNoClobber renames src to dst unless dst already exists.
func RenameNoClobber(src, dst string) error {
	if Exists(dst) && !sameFile(src, dst) {
		return ErrDestinationExists
	}
	return os.Rename(src, dst)
}

// sameFile covers case-only renames on case-insensitive filesystems, where
// the destination "exists" because it is the source.
func sameFile(a, b string) bool {
	sa, err := os.Stat(a)
	if err != nil {
		return false
	}
	sb, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(sa, sb)
}
