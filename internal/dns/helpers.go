package dns

import (
	"strings"

	mdns "github.com/miekg/dns"
)

// Qualify returns the fully qualified form of name within zone, without a
// trailing dot, as the provider reports record names.
// e.g. ("www", "example.com") → "www.example.com"
// e.g. ("example.com", "example.com.") → "example.com"
func Qualify(name, zone string) string {
	name, zone = TrimRoot(name), TrimRoot(zone)
	if strings.EqualFold(name, zone) {
		return name
	}
	return name + "." + zone
}

// TrimRoot strips the trailing root label dot from s.
func TrimRoot(s string) string {
	return strings.TrimSuffix(s, ".")
}

// IsDomainName reports whether s is a syntactically valid domain name.
// A trailing dot is accepted but not required.
func IsDomainName(s string) bool {
	if TrimRoot(s) == "" {
		return false
	}
	_, ok := mdns.IsDomainName(s)
	return ok
}
