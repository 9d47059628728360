package model

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Release represents one published build of an app in the distribution service
type Release struct {
	Name              string    // Resource name, projects/{n}/apps/{id}/releases/{rid}
	DisplayVersion    string    // e.g. "1.4.2"
	BuildVersion      string    // e.g. "142"
	Notes             string    // Release notes text, empty when the release has none
	CreateTime        time.Time // Zero if upstream omitted it
	BinaryDownloadURI string
	ConsoleURI        string
}

// Label returns the human readable name of the release, "{displayVersion}({buildVersion})"
func (r *Release) Label() string {
	return fmt.Sprintf("%s(%s)", r.DisplayVersion, r.BuildVersion)
}

// FileName returns Label() made safe to use as a single path element.
func (r *Release) FileName() string {
	return SanitizeFileName(r.Label())
}

// Tags returns the lower-cased environment tags found in the release notes.
// Notes are split on any run of '|', ',', whitespace or the ASCII
// separators U+001C to U+001F.
func (r *Release) Tags() []string {
	fields := strings.FieldsFunc(r.Notes, isTagDelimiter)
	tags := make([]string, 0, len(fields))
	for _, f := range fields {
		tags = append(tags, strings.ToLower(f))
	}
	return tags
}

// HasTag reports whether the release notes carry env, compared case-insensitively.
func (r *Release) HasTag(env string) bool {
	key := strings.ToLower(env)
	for _, tag := range r.Tags() {
		if tag == key {
			return true
		}
	}
	return false
}

func isTagDelimiter(c rune) bool {
	return c == '|' || c == ',' || unicode.IsSpace(c) || (c >= '\x1c' && c <= '\x1f')
}

// SanitizeFileName replaces characters that are unsafe in a file name with '_'.
// "." and ".." are never returned as is.
func SanitizeFileName(name string) string {
	sanitized := strings.Map(func(c rune) rune {
		switch {
		case c == '/', c == '\\', c == ':', c == '*', c == '?', c == '"', c == '<', c == '>', c == '|':
			return '_'
		case unicode.IsControl(c):
			return '_'
		}
		return c
	}, strings.TrimSpace(name))

	switch sanitized {
	case "", ".", "..":
		return strings.Repeat("_", max(len(sanitized), 1))
	}
	return sanitized
}

// AppRef identifies one app of a Firebase project
type AppRef struct {
	ProjectNumber string
	AppID         string
}

// ResourceName returns the parent resource of the app's releases
func (a AppRef) ResourceName() string {
	return fmt.Sprintf("projects/%s/apps/%s", a.ProjectNumber, a.AppID)
}
