package secret

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

// ExpandEnv replaces $VAR and ${VAR} in s with values from the environment.
// Where os.ExpandEnv substitutes "" for an unset variable, ExpandEnv fails
// with ErrMissingEnv naming every unset variable. "$$" yields "$".
func ExpandEnv(s string) (string, error) {
	var missing []string
	out := os.Expand(s, func(name string) string {
		if name == "$" {
			return "$"
		}
		v, ok := os.LookupEnv(name)
		if !ok && !slices.Contains(missing, name) {
			missing = append(missing, name)
		}
		return v
	})
	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}
	return out, nil
}
