package recovery

import "strings"

// JoinBasePath joins a deployment base path with an in-app full path,
// producing the hard-reload target.
//
// The base path is configuration, not something to read back from the
// current document: it differs per environment and per deployment, and the
// whole point of the reload is that the current document is stale.
//
//	JoinBasePath("/app/", "/todos/42?tab=done") == "/app/todos/42?tab=done"
func JoinBasePath(basePath, fullPath string) string {
	if fullPath == "" {
		fullPath = "/"
	}
	if !strings.HasPrefix(fullPath, "/") {
		fullPath = "/" + fullPath
	}
	if basePath == "" {
		return fullPath
	}
	return strings.TrimSuffix(basePath, "/") + fullPath
}
