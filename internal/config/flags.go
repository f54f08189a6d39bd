package config

import "github.com/spf13/pflag"

// Flags binds the invocation parameters to a flag set. Only flags that were
// set explicitly override values loaded from an args file.
type Flags struct {
	fs  *pflag.FlagSet
	p   Params
	tkn string
}

func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.p.State, "state", "", "whether the record should be present or absent (default present)")
	fs.StringVar(&f.p.Name, "name", "", "name of the record, e.g. www")
	fs.StringVarP(&f.p.Zone, "zone", "z", "", "zone the record belongs to, e.g. example.com")
	fs.StringVar(&f.p.Type, "type", "", "record type: A, CNAME, MX, TXT, SPF, AAAA, NS, SRV or LOC")
	fs.StringVar(&f.p.Content, "content", "", "content of the record")
	fs.StringVar(&f.p.Email, "email", "", "account e-mail, defaults to $"+EnvEmail)
	fs.StringVar(&f.p.Token, "token", "", "API key, defaults to $"+EnvToken)
	fs.StringVar(&f.tkn, "tkn", "", "alias for --token")
	fs.StringVar(&f.p.Policy, "policy", "", "match policy: upsert (match on name, edit in place) or exact (match on name, type and content)")
	fs.StringVar(&f.p.Endpoint, "endpoint", "", "override the provider API endpoint")
	fs.BoolVar(&f.p.CheckMode, "check", false, "report what would change without changing anything")
	_ = fs.MarkHidden("tkn")
	return f
}

// Apply copies every explicitly set flag into p.
func (f *Flags) Apply(p *Params) {
	set := func(name string, dst *string, v string) {
		if f.fs.Changed(name) {
			*dst = v
		}
	}
	set("state", &p.State, f.p.State)
	set("name", &p.Name, f.p.Name)
	set("zone", &p.Zone, f.p.Zone)
	set("type", &p.Type, f.p.Type)
	set("content", &p.Content, f.p.Content)
	set("email", &p.Email, f.p.Email)
	set("tkn", &p.Token, f.tkn)
	set("token", &p.Token, f.p.Token)
	set("policy", &p.Policy, f.p.Policy)
	set("endpoint", &p.Endpoint, f.p.Endpoint)
	if f.fs.Changed("check") {
		p.CheckMode = f.p.CheckMode
	}
}
