package fs

import (
	"strings"

	"minifs"
	"minifs/volume"
)

// splitPath breaks a path into its non-empty components, so "a//b/", "/a/b"
// and "a/b" all normalize to the same component list. The leading slash is
// the caller's concern (it selects the traversal root), not a component.
func splitPath(path string) []string {
	var components []string
	for _, c := range strings.Split(path, "/") {
		if c != "" {
			components = append(components, c)
		}
	}
	return components
}

// Resolve walks path to an inode number. An empty path resolves to the
// current directory; a leading "/" starts at the root, anything else at the
// current directory. "." components are no-ops and ".." follows the literal
// ".." entry of the directory reached so far, staying put at the root. A
// missing component anywhere fails the whole resolution.
func (fs *FileSystem) Resolve(path string) (volume.Inumber, error) {
	if path == "" {
		return fs.cwd, nil
	}

	current := fs.cwd
	if strings.HasPrefix(path, "/") {
		current = volume.RootInumber
	}

	for _, component := range splitPath(path) {
		switch component {
		case ".":
			continue
		case "..":
			if current == volume.RootInumber {
				continue
			}
			parent, ok := fs.findEntry(current, "..")
			if !ok {
				return 0, minifs.ErrNotFound.WithMessage(path)
			}
			current = parent
		default:
			next, ok := fs.findEntry(current, component)
			if !ok {
				return 0, minifs.ErrNotFound.WithMessage(path)
			}
			current = next
		}
	}
	return current, nil
}

// splitParentAndName resolves everything before the final "/"-delimited
// segment to a parent directory inode and returns it with the final segment.
// A path with no slash names something in the current directory; a single
// leading slash names something in the root. Parent resolution failures and
// an empty final segment both report ErrInvalidPath.
func (fs *FileSystem) splitParentAndName(path string) (volume.Inumber, string, error) {
	var dirname, basename string

	slash := strings.LastIndexByte(path, '/')
	switch {
	case slash < 0:
		dirname, basename = ".", path
	case slash == 0:
		dirname, basename = "/", path[1:]
	default:
		dirname, basename = path[:slash], path[slash+1:]
	}

	if basename == "" {
		return 0, "", minifs.ErrInvalidPath.WithMessage(path)
	}

	parent, err := fs.Resolve(dirname)
	if err != nil {
		return 0, "", minifs.ErrInvalidPath.WithMessage(path)
	}
	return parent, basename, nil
}

// normalizePath collapses "." and ".." components of an absolute path
// textually, producing the canonical form cached as the working directory
// string. This runs independently of the inode walk, after the walk has
// already succeeded.
func normalizePath(path string) string {
	var normalized []string
	for _, component := range splitPath(path) {
		switch component {
		case ".":
		case "..":
			if len(normalized) > 0 {
				normalized = normalized[:len(normalized)-1]
			}
		default:
			normalized = append(normalized, component)
		}
	}
	if len(normalized) == 0 {
		return "/"
	}
	return "/" + strings.Join(normalized, "/")
}
