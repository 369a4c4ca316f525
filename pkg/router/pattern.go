package router

import (
	"net/url"
	"strings"
)

// TrailingSlashBehavior controls how trailing slashes are handled in matching.
type TrailingSlashBehavior int

const (
	// TrailingSlashStrip treats "/path/" the same as "/path".
	TrailingSlashStrip TrailingSlashBehavior = iota
	// TrailingSlashStrict requires an exact trailing-slash match.
	TrailingSlashStrict
)

// CaseSensitivity controls case handling in path matching.
type CaseSensitivity int

const (
	// CaseSensitive requires an exact case match.
	CaseSensitive CaseSensitivity = iota
	// CaseInsensitive matches literal segments regardless of case.
	CaseInsensitive
)

// PathPattern is a compiled route path.
//
// Patterns support static segments ("/products"), parameters
// ("/products/:id") and a trailing wildcard ("/files/*path") which captures
// the remaining path.
type PathPattern struct {
	raw      string
	segments []patternSegment
	trailing TrailingSlashBehavior
	casing   CaseSensitivity
}

type patternSegment struct {
	literal  string
	param    string
	wildcard bool
}

// PatternOption configures a PathPattern.
type PatternOption func(*PathPattern)

// WithTrailingSlash sets the trailing-slash behavior.
func WithTrailingSlash(b TrailingSlashBehavior) PatternOption {
	return func(p *PathPattern) { p.trailing = b }
}

// WithCaseSensitivity sets the case behavior for literal segments.
func WithCaseSensitivity(c CaseSensitivity) PatternOption {
	return func(p *PathPattern) { p.casing = c }
}

// NewPathPattern compiles a route path.
func NewPathPattern(pattern string, opts ...PatternOption) *PathPattern {
	p := &PathPattern{raw: pattern}
	for _, opt := range opts {
		opt(p)
	}

	for _, seg := range splitPath(pattern) {
		switch {
		case strings.HasPrefix(seg, ":"):
			p.segments = append(p.segments, patternSegment{param: seg[1:]})
		case strings.HasPrefix(seg, "*"):
			p.segments = append(p.segments, patternSegment{param: seg[1:], wildcard: true})
		default:
			p.segments = append(p.segments, patternSegment{literal: seg})
		}
	}
	return p
}

// String returns the original pattern.
func (p *PathPattern) String() string {
	return p.raw
}

// Match tests path against the pattern and extracts parameters.
// Parameter values are percent-decoded.
func (p *PathPattern) Match(path string) (map[string]string, bool) {
	if p.trailing == TrailingSlashStrip {
		if len(path) > 1 && strings.HasSuffix(path, "/") {
			path = strings.TrimRight(path, "/")
		}
	}
	segs := splitPath(path)

	params := make(map[string]string)
	for i, ps := range p.segments {
		if ps.wildcard {
			rest := strings.Join(segs[i:], "/")
			params[ps.param] = decodeSegment(rest)
			return params, true
		}
		if i >= len(segs) {
			return nil, false
		}
		if ps.param != "" {
			params[ps.param] = decodeSegment(segs[i])
			continue
		}
		if !p.literalMatch(ps.literal, segs[i]) {
			return nil, false
		}
	}
	if len(segs) != len(p.segments) {
		return nil, false
	}
	return params, true
}

func (p *PathPattern) literalMatch(want, got string) bool {
	if p.casing == CaseInsensitive {
		return strings.EqualFold(want, got)
	}
	return want == got
}

// splitPath splits a path into segments, dropping the leading empty segment.
// "/" yields no segments.
func splitPath(path string) []string {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func decodeSegment(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
