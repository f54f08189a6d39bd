package config

import (
	"fmt"

	mdns "github.com/miekg/dns"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/yuriy-kovalchuk/cloudflare-record/internal/dns"
)

// SupportedTypes are the record types the provider accepts.
var SupportedTypes = sets.New("A", "CNAME", "MX", "TXT", "SPF", "AAAA", "NS", "SRV", "LOC")

var (
	states   = sets.New(StatePresent, StateAbsent)
	policies = sets.New(PolicyUpsert, PolicyExact)
)

// Validate reports every invalid parameter at once. Call it after
// ApplyDefaults.
func (p Params) Validate() error {
	var errs []error
	invalid := func(field, format string, args ...interface{}) {
		errs = append(errs, &dns.ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	if !states.Has(p.State) {
		invalid("state", "unknown value %q, expected one of: present, absent", p.State)
	}
	if !policies.Has(p.Policy) {
		invalid("policy", "unknown value %q, expected one of: %v", p.Policy, sets.List(policies))
	}

	switch {
	case p.Zone == "":
		invalid("zone", "required")
	case !dns.IsDomainName(p.Zone):
		invalid("zone", "%q is not a valid domain name", p.Zone)
	}

	switch {
	case p.Name == "":
		invalid("name", "required")
	case p.Zone != "" && !dns.IsDomainName(dns.Qualify(p.Name, p.Zone)):
		invalid("name", "%q is not a valid record name in zone %q", p.Name, p.Zone)
	}

	if !SupportedTypes.Has(p.Type) {
		if _, known := mdns.StringToType[p.Type]; known {
			invalid("type", "record type %q is not supported, expected one of: %v", p.Type, sets.List(SupportedTypes))
		} else {
			invalid("type", "unknown record type %q", p.Type)
		}
	}

	if p.Content == "" {
		invalid("content", "required")
	}
	if p.Email == "" {
		invalid("email", "required, set it or %s", EnvEmail)
	}
	if p.Token == "" {
		invalid("token", "required, set it or %s", EnvToken)
	}

	return utilerrors.NewAggregate(errs)
}
