package messages

import "strings"

// Externally supplied federation event ids end up as dynamic map keys inside
// reaction documents. The store's path addressing reserves '.' and '$' (and
// rejects NUL) inside key segments, so raw ids cannot be used directly.
//
// The escape is percent-style: '%' is escaped first so the transform stays
// injective over all strings; two distinct raw ids can never collapse to the
// same escaped key. Comparisons are always performed in escaped space, so
// there is no unescape.
var federationEventIDEscaper = strings.NewReplacer(
	"%", "%25",
	".", "%2E",
	"$", "%24",
	"\x00", "%00",
)

// EscapeFederationEventID returns the escaped form of an external federation
// event id, safe for use as a map key segment. Total over all strings.
func EscapeFederationEventID(raw string) string {
	return federationEventIDEscaper.Replace(raw)
}
