package normalizer

import (
	"strings"

	"github.com/abigailhaddad/apportionment/internal/shared/types"
)

// UnknownAgency is used when a sheet carries no agency name at all.
const UnknownAgency = "Unknown Agency"

// AgencyResolver maps the free-text AGENCY cell onto a configured target name.
type AgencyResolver struct {
	agencies []types.AgencyConfig
}

// NewAgencyResolver creates a resolver over the configured target list.
func NewAgencyResolver(agencies []types.AgencyConfig) *AgencyResolver {
	return &AgencyResolver{agencies: agencies}
}

// Resolve returns the first target whose name is contained in raw (after
// "--" → "-" and lower-casing) or whose keyword alternative fully matches.
// Unmatched names are returned trimmed.
func (r *AgencyResolver) Resolve(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return UnknownAgency
	}
	norm := strings.ToLower(strings.ReplaceAll(name, "--", "-"))
	for _, a := range r.agencies {
		if strings.Contains(norm, strings.ToLower(a.Name)) {
			return a.Name
		}
		for _, alt := range a.Match {
			if matchesAll(norm, alt) {
				return a.Name
			}
		}
	}
	return name
}

func matchesAll(s string, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	for _, k := range keywords {
		if !strings.Contains(s, strings.ToLower(k)) {
			return false
		}
	}
	return true
}
