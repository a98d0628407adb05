package lifecycle

import (
	"fmt"
	"strconv"
	"strings"
)

// Ticket identifiers follow the fixed wire format PREFIX-NNNNNN, where the
// suffix is a zero-padded base-10 counter. Consumers must tolerate suffixes
// wider than six digits once the counter passes 999999.
const (
	IdentifierPrefix = "RX-UG-INC"
	suffixWidth      = 6
)

// SeedIdentifier is the identifier issued when no ticket exists yet.
var SeedIdentifier = fmt.Sprintf("%s-%0*d", IdentifierPrefix, suffixWidth, 1)

// NextIdentifier returns the identifier following currentMax. It is a pure
// function: uniqueness under concurrent creation is enforced by the backing
// store's unique constraint, with the caller retrying on conflict.
//
// An empty or malformed currentMax falls back to the seed identifier rather
// than failing. The fallback tolerates an empty or just-initialized store;
// callers that expected a populated store should log when they see it.
func NextIdentifier(currentMax string) string {
	last, ok := IdentifierSuffix(currentMax)
	if !ok {
		return SeedIdentifier
	}
	return fmt.Sprintf("%s-%0*d", IdentifierPrefix, suffixWidth, last+1)
}

// IdentifierSuffix extracts the numeric suffix of a well-formed identifier.
// It returns false for anything NextIdentifier treats as malformed: a
// missing or wrong prefix, and a non-numeric or negative suffix.
func IdentifierSuffix(identifier string) (int64, bool) {
	rest, found := strings.CutPrefix(identifier, IdentifierPrefix+"-")
	if !found {
		return 0, false
	}
	last, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || last < 0 {
		return 0, false
	}
	return last, true
}
