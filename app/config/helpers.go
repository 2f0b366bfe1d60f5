package config

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownOrganization = errors.New("unknown organization")

func NewOrganizations(orgs ...*Organization) *Organizations {
	o := &Organizations{byKey: make(map[string]*Organization, len(orgs))}
	for _, org := range orgs {
		o.add(org)
	}
	return o
}

func (o *Organizations) add(org *Organization) {
	if _, exists := o.byKey[org.Key]; !exists {
		o.keys = append(o.keys, org.Key)
	}
	o.byKey[org.Key] = org
}

// Keys returns organization keys in configuration order.
func (o *Organizations) Keys() []string {
	return append([]string(nil), o.keys...)
}

func (o *Organizations) Len() int {
	return len(o.keys)
}

// Get returns the organization for key. Unknown keys produce an error that
// wraps ErrUnknownOrganization and lists the valid keys.
func (o *Organizations) Get(key string) (*Organization, error) {
	org, ok := o.byKey[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownOrganization, key, strings.Join(o.keys, ", "))
	}
	return org, nil
}

// All returns organizations in configuration order.
func (o *Organizations) All() []*Organization {
	out := make([]*Organization, 0, len(o.keys))
	for _, k := range o.keys {
		out = append(out, o.byKey[k])
	}
	return out
}

// SiteFor returns the first site whose organization key occurs in name.
func (c *Config) SiteFor(name string) *Site {
	lower := strings.ToLower(name)
	for i := range c.Sites {
		key := c.Sites[i].OrganizationKey
		if key != "" && strings.Contains(lower, key) {
			return &c.Sites[i]
		}
	}
	return nil
}

// OutputFile returns the parsed file name the site's adapter writes for
// kind, falling back to def.
func (s *Site) OutputFile(kind, def string) string {
	if name := s.OutputFiles[kind]; name != "" {
		return name
	}
	return def
}
