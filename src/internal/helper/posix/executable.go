// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package posix

import (
	"strings"
)

// DefaultExecutableName is used when the process was started without argv[0].
const DefaultExecutableName = "x509-trust-validator"

// ExecutableName returns the base name of argv0 without a ".exe" suffix, for
// usage strings. Both "/" and "\" separate path components, so Windows paths
// resolve the same on every platform.
//
// Parameters:
//   - argv0: Usually os.Args[0]
//
// Returns:
//   - string: Clean executable name, or [DefaultExecutableName] when argv0 has none
func ExecutableName(argv0 string) string {
	parts := strings.FieldsFunc(argv0, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	if len(parts) == 0 {
		return DefaultExecutableName
	}

	name := strings.TrimSuffix(parts[len(parts)-1], ".exe")
	if name == "" || name == "." {
		return DefaultExecutableName
	}
	return name
}
