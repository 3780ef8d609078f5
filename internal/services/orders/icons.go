package orders

import "strings"

const iconDir = "assets/carriers-icons/"

// UnknownIconPath is shown for carriers without a bundled icon.
const UnknownIconPath = iconDir + "unknown.webp"

// Slugs with a bundled icon asset.
var knownCarrierSlugs = map[string]struct{}{
	"amazon":         {},
	"aramex":         {},
	"australia-post": {},
	"bpost":          {},
	"canada-post":    {},
	"cainiao":        {},
	"china-post":     {},
	"chronopost":     {},
	"colis-prive":    {},
	"colissimo":      {},
	"deutsche-post":  {},
	"dhl":            {},
	"dpd":            {},
	"fedex":          {},
	"gls":            {},
	"hermes":         {},
	"la-poste":       {},
	"mondial-relay":  {},
	"postnl":         {},
	"relais-colis":   {},
	"royal-mail":     {},
	"tnt":            {},
	"ups":            {},
	"usps":           {},
	"yanwen":         {},
}

// IconPath maps a carrier slug to its icon asset, falling back to UnknownIconPath.
func IconPath(carrierSlug string) string {
	slug := strings.ToLower(strings.TrimSpace(carrierSlug))
	if _, ok := knownCarrierSlugs[slug]; ok {
		return iconDir + slug + ".webp"
	}
	return UnknownIconPath
}
