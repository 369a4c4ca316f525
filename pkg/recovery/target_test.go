package recovery

import "testing"

func TestJoinBasePath(t *testing.T) {
	tests := []struct {
		base, full, want string
	}{
		{"/app/", "/todos/42?tab=done", "/app/todos/42?tab=done"},
		{"/app", "/todos/42?tab=done", "/app/todos/42?tab=done"},
		{"/app/", "todos/42", "/app/todos/42"},
		{"/", "/todos/42", "/todos/42"},
		{"", "/todos/42", "/todos/42"},
		{"https://example.com/app/", "/todos/42#notes", "https://example.com/app/todos/42#notes"},
		{"/app/", "", "/app/"},
	}
	for _, tt := range tests {
		if got := JoinBasePath(tt.base, tt.full); got != tt.want {
			t.Errorf("JoinBasePath(%q, %q) = %q, want %q", tt.base, tt.full, got, tt.want)
		}
	}
}
