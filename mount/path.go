package mount

import "strings"

// splitPath strips the mount's absolute-path convention's leading
// separator and splits the remainder into segments. An empty remaining
// path (segments == nil) denotes the root node, per §4.4.
func splitPath(path string) []string {
	trimmed := strings.TrimPrefix(path, "/")
	trimmed = strings.TrimSuffix(trimmed, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func joinPath(segments []string) string {
	return "/" + strings.Join(segments, "/")
}
