package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
)

var aliasChars = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// reservedCodes are top-level routes that shadow GET /{short_code}.
var reservedCodes = map[string]struct{}{
	"healthz": {},
	"readyz":  {},
}

// IsReserved reports whether code collides with a fixed route.
func IsReserved(code string) bool {
	_, ok := reservedCodes[code]
	return ok
}

// AliasPolicy holds the length bounds for custom aliases.
type AliasPolicy struct {
	MinLength int
	MaxLength int
}

func DefaultAliasPolicy() AliasPolicy {
	return AliasPolicy{MinLength: 3, MaxLength: 50}
}

// Validate applies the alias rules in order; the first failure wins.
func (p AliasPolicy) Validate(alias string) error {
	n := utf8.RuneCountInString(alias)
	if n < p.MinLength || n > p.MaxLength {
		return fmt.Errorf("%w: alias must be between %d and %d characters", domain.ErrInvalidAlias, p.MinLength, p.MaxLength)
	}
	if !aliasChars.MatchString(alias) {
		return fmt.Errorf("%w: alias can only contain letters, numbers, hyphens, and underscores", domain.ErrInvalidAlias)
	}
	if isEdgeChar(alias[0]) || isEdgeChar(alias[len(alias)-1]) {
		return fmt.Errorf("%w: alias cannot start or end with a hyphen or underscore", domain.ErrInvalidAlias)
	}
	if IsReserved(alias) {
		return fmt.Errorf("%w: alias %q is reserved", domain.ErrInvalidAlias, alias)
	}
	return nil
}

func isEdgeChar(c byte) bool {
	return c == '-' || c == '_'
}
