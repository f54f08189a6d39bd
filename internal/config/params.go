package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

const (
	StatePresent = "present"
	StateAbsent  = "absent"

	PolicyUpsert = "upsert"
	PolicyExact  = "exact"

	DefaultProvider = "cloudflare"

	EnvEmail = "CLOUDFLARE_API_EMAIL"
	EnvToken = "CLOUDFLARE_API_TOKEN"
)

// Params holds the parameters of one invocation.
type Params struct {
	State     string `yaml:"state"`
	Name      string `yaml:"name"`
	Zone      string `yaml:"zone"`
	Type      string `yaml:"type"`
	Content   string `yaml:"content"`
	Email     string `yaml:"email"`
	Token     string `yaml:"token"`
	Policy    string `yaml:"policy"`
	Provider  string `yaml:"provider"`
	Endpoint  string `yaml:"endpoint"`
	CheckMode bool   `yaml:"_ansible_check_mode"`
}

// argsFile is the on-disk shape, which also accepts the short aliases.
type argsFile struct {
	Params `yaml:",inline"`
	Z      string `yaml:"z"`
	Tkn    string `yaml:"tkn"`
}

// LoadParamsFile reads the args file the host passes to the module. The
// file may be JSON or YAML. Unknown keys are ignored since the host adds
// its own bookkeeping keys.
func LoadParamsFile(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("reading args file: %w", err)
	}

	var f argsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Params{}, fmt.Errorf("parsing args file: %w", err)
	}

	p := f.Params
	if p.Zone == "" {
		p.Zone = f.Z
	}
	if p.Token == "" {
		p.Token = f.Tkn
	}

	return p, nil
}

// ApplyDefaults fills unset fields. Credentials fall back to the
// CLOUDFLARE_API_EMAIL and CLOUDFLARE_API_TOKEN environment variables.
func (p *Params) ApplyDefaults(lookupEnv func(string) (string, bool)) {
	if p.State == "" {
		p.State = StatePresent
	}
	if p.Policy == "" {
		p.Policy = PolicyUpsert
	}
	if p.Provider == "" {
		p.Provider = DefaultProvider
	}
	if p.Email == "" {
		if v, ok := lookupEnv(EnvEmail); ok {
			p.Email = v
		}
	}
	if p.Token == "" {
		if v, ok := lookupEnv(EnvToken); ok {
			p.Token = v
		}
	}
}

// ProviderSettings returns the settings map handed to the provider factory.
func (p Params) ProviderSettings() map[string]string {
	return map[string]string{
		"email":    p.Email,
		"token":    p.Token,
		"endpoint": p.Endpoint,
	}
}

// String never includes the token.
func (p Params) String() string {
	token := ""
	if p.Token != "" {
		token = "********"
	}
	return fmt.Sprintf("state=%s name=%s zone=%s type=%s content=%s email=%s token=%s policy=%s check_mode=%t",
		p.State, p.Name, p.Zone, p.Type, p.Content, p.Email, token, p.Policy, p.CheckMode)
}
