package handler

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// pathTraversalPattern flags the encoded and literal traversal sequences a
// lone filepath.Clean comparison can miss, the same check the teacher's
// config.Sanitizer.ValidatePath applies before ever touching the
// filesystem. It lives in this package rather than config's, since config
// already imports handler for HandlerSettings and handler importing config
// back would cycle.
var pathTraversalPattern = regexp.MustCompile(`\.\.[\\/]|\.\.%2[fF]|%2e%2e|\.\.\\|\.\.\/`)

// validatePackagePath adapts config.Sanitizer.ValidatePath to this
// package's one caller, GetFile: path must resolve under base once joined
// and cleaned, with no traversal sequence surviving the trip.
func validatePackagePath(path, base string) (string, error) {
	if pathTraversalPattern.MatchString(path) {
		return "", fmt.Errorf("%w: %q contains a directory traversal sequence", ErrPathTraversal, path)
	}

	cleanBase, err := filepath.Abs(filepath.Clean(base))
	if err != nil {
		return "", fmt.Errorf("%w: resolving package folder: %v", ErrFileNotFound, err)
	}

	full := filepath.Join(cleanBase, path)
	cleanFull, err := filepath.Abs(filepath.Clean(full))
	if err != nil {
		return "", fmt.Errorf("%w: resolving %q: %v", ErrPathTraversal, path, err)
	}

	if cleanFull != cleanBase && !strings.HasPrefix(cleanFull, cleanBase+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes package folder %q", ErrPathTraversal, path, base)
	}

	return cleanFull, nil
}
