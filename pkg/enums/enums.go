// Package enums holds the string enums stored in the database and carried
// over the wire.
package enums

import (
	"fmt"
	"slices"
)

func parse[T ~string](kind string, valid []T, value string) (T, error) {
	if v := T(value); slices.Contains(valid, v) {
		return v, nil
	}
	return "", fmt.Errorf("invalid %s %q", kind, value)
}
