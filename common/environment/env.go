// Package environment reads typed settings from environment variables.
//
// Unset and empty variables report ok == false so callers keep whatever value
// they already hold. A variable that is set but malformed is an error naming
// the variable, never a silent fallback.
package environment

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// String returns the trimmed value of name and whether it was non-empty.
func String(name string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	return v, v != ""
}

// Int parses name as a decimal integer.
func Int(name string) (n int, ok bool, err error) {
	v, ok := String(name)
	if !ok {
		return 0, false, nil
	}
	n, err = strconv.Atoi(v)
	if err != nil {
		return 0, true, fmt.Errorf("%s=%q is not an integer", name, v)
	}
	return n, true, nil
}

// Duration parses name as a time.Duration such as "500ms" or "2s".
func Duration(name string) (d time.Duration, ok bool, err error) {
	v, ok := String(name)
	if !ok {
		return 0, false, nil
	}
	d, err = time.ParseDuration(v)
	if err != nil {
		return 0, true, fmt.Errorf("%s=%q is not a duration", name, v)
	}
	return d, true, nil
}
