// Package platforms defines the social platforms a user can connect, the subscription plans that
// gate them, and the static catalog describing each platform.
package platforms

import (
	"fmt"
	"strings"
)

// Platform identifies a connectable social platform.
type Platform string

const (
	Facebook  Platform = "facebook"
	Instagram Platform = "instagram"
	Twitter   Platform = "twitter"
	Amazon    Platform = "amazon"
)

// All is the fixed, ordered set of supported platforms.
var All = []Platform{Facebook, Instagram, Twitter, Amazon}

var aliases = map[string]Platform{
	"x": Twitter,
}

// Parse resolves a user supplied platform name (case insensitive, aliases allowed) to its
// canonical Platform.
func Parse(name string) (Platform, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if p, ok := aliases[n]; ok {
		return p, nil
	}
	for _, p := range All {
		if string(p) == n {
			return p, nil
		}
	}
	return "", fmt.Errorf("unsupported platform %q", name)
}

// DisplayName returns the human readable platform name used in messages.
func (p Platform) DisplayName() string {
	switch p {
	case Facebook:
		return "Facebook"
	case Instagram:
		return "Instagram"
	case Twitter:
		return "Twitter"
	case Amazon:
		return "Amazon"
	}
	return string(p)
}

func (p Platform) String() string {
	return string(p)
}

// Plan is a user's subscription tier.
type Plan string

const (
	PlanFreemium       Plan = "FREEMIUM"
	PlanPremiumMonthly Plan = "PREMIUM_MONTHLY"
	PlanPremiumYearly  Plan = "PREMIUM_YEARLY"
)

// ParsePlan validates a plan name.
func ParsePlan(name string) (Plan, error) {
	switch p := Plan(strings.ToUpper(strings.TrimSpace(name))); p {
	case PlanFreemium, PlanPremiumMonthly, PlanPremiumYearly:
		return p, nil
	}
	return "", fmt.Errorf("unknown plan %q", name)
}

// IsPremium reports whether the plan is a paid tier.
func (p Plan) IsPremium() bool {
	return p == PlanPremiumMonthly || p == PlanPremiumYearly
}

// Valid reports whether p is one of the known plans.
func (p Plan) Valid() bool {
	return p == PlanFreemium || p.IsPremium()
}
