package client

import "strings"

const applicationsMarker = "/applications/"

// insertDefaultAttemptID rewrites a request path by inserting the
// literal attempt index "1/" immediately after the application-ID
// segment.  History servers that track application attempts nest every
// per-application resource under an attempt number, so a 404 on the
// canonical path often just means the attempt segment is missing.
//
// The rewrite is skipped (ok == false) when the path has no
// /applications/ segment, when nothing follows the application ID, or
// when the suffix already starts with a numeric attempt segment.
func insertDefaultAttemptID(path string) (rewritten string, ok bool) {
	idx := strings.Index(path, applicationsMarker)
	if idx < 0 {
		return "", false
	}

	rest := path[idx+len(applicationsMarker):]
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return "", false
	}

	suffix := rest[slash+1:]
	if hasAttemptSegment(suffix) {
		return "", false
	}

	return path[:idx+len(applicationsMarker)] + rest[:slash+1] + "1/" + suffix, true
}

// hasAttemptSegment reports whether s begins with one or more digits
// followed by a slash.
func hasAttemptSegment(s string) bool {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i > 0 && i < len(s) && s[i] == '/'
}
