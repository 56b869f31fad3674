package platforms

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Requirements is the static description of a platform shown to users before they connect it.
type Requirements struct {
	RequiresPremium bool     `json:"requiresPremium" yaml:"requires_premium"`
	Features        []string `json:"features" yaml:"features"`
	Limitations     []string `json:"limitations" yaml:"limitations"`
}

// Entry is the catalog record for one platform.
type Entry struct {
	Requirements `yaml:",inline"`
	Scopes       []string `yaml:"scopes"`
}

// Catalog holds the configuration of every supported platform. It is built once at startup and
// treated as read-only afterwards.
type Catalog struct {
	entries map[Platform]Entry
}

// DefaultCatalog returns the built-in platform catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{entries: map[Platform]Entry{
		Facebook: {
			Requirements: Requirements{
				Features:    []string{"Page insights", "Post engagement analytics", "Audience demographics", "Scheduled posting"},
				Limitations: []string{"Requires a Facebook Page you manage"},
			},
			Scopes: []string{"public_profile", "email", "pages_show_list", "pages_read_engagement", "read_insights"},
		},
		Instagram: {
			Requirements: Requirements{
				Features:    []string{"Profile insights", "Media performance", "Follower growth"},
				Limitations: []string{"Requires an Instagram Business or Creator account", "Account must be linked to a Facebook Page"},
			},
			Scopes: []string{"instagram_basic", "instagram_manage_insights", "pages_show_list", "pages_read_engagement", "business_management"},
		},
		Twitter: {
			Requirements: Requirements{
				Features:    []string{"Tweet analytics", "Follower metrics", "Engagement tracking"},
				Limitations: []string{"Subject to X API access tier limits"},
			},
			Scopes: []string{"tweet.read", "users.read", "follows.read", "offline.access"},
		},
		Amazon: {
			Requirements: Requirements{
				RequiresPremium: true,
				Features:        []string{"Seller profile", "Advertising insights", "Sales analytics"},
				Limitations:     []string{"Premium subscription required"},
			},
			Scopes: []string{"profile"},
		},
	}}
}

// LoadCatalog returns the default catalog with any overrides from the YAML file at path applied.
// An empty path returns the defaults. Overrides replace whole fields; omitted fields keep the
// default value.
func LoadCatalog(path string) (*Catalog, error) {
	c := DefaultCatalog()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[LoadCatalog] read %s: %w", path, err)
	}

	var overrides map[string]*struct {
		RequiresPremium *bool    `yaml:"requires_premium"`
		Features        []string `yaml:"features"`
		Limitations     []string `yaml:"limitations"`
		Scopes          []string `yaml:"scopes"`
	}
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("[LoadCatalog] parse %s: %w", path, err)
	}

	for name, o := range overrides {
		p, err := Parse(name)
		if err != nil {
			return nil, fmt.Errorf("[LoadCatalog] %w", err)
		}
		if o == nil {
			continue
		}
		e := c.entries[p]
		if o.RequiresPremium != nil {
			e.RequiresPremium = *o.RequiresPremium
		}
		if o.Features != nil {
			e.Features = o.Features
		}
		if o.Limitations != nil {
			e.Limitations = o.Limitations
		}
		if o.Scopes != nil {
			e.Scopes = o.Scopes
		}
		c.entries[p] = e
	}
	return c, nil
}

// Requirements returns the descriptive metadata for p.
func (c *Catalog) Requirements(p Platform) Requirements {
	return c.entries[p].Requirements
}

// RequiresPremium reports whether p is gated behind a premium plan.
func (c *Catalog) RequiresPremium(p Platform) bool {
	return c.entries[p].RequiresPremium
}

// Scopes returns a copy of the OAuth scopes requested for p.
func (c *Catalog) Scopes(p Platform) []string {
	return append([]string(nil), c.entries[p].Scopes...)
}

// Gated returns the platforms that require a premium plan, in canonical order.
func (c *Catalog) Gated() []Platform {
	gated := make([]Platform, 0, len(All))
	for _, p := range All {
		if c.entries[p].RequiresPremium {
			gated = append(gated, p)
		}
	}
	return gated
}
