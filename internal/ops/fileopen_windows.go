//go:build windows

package ops

import (
	stderrors "errors"
	"io/fs"
	"os"

	"github.com/hpungsan/mythic/internal/errors"
)

// openFileNoFollow opens a file for writing. Windows has no O_NOFOLLOW;
// ValidatePath's Lstat symlink checks are the only protection here.
func openFileNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, flag, perm)
}

// openFileNoFollowRead opens a file for reading.
func openFileNoFollowRead(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewNotFound(path)
		}
		return nil, err
	}
	return f, nil
}
