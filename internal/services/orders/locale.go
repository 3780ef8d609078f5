package orders

import (
	"time"

	"github.com/BearBump/ParcelBox/internal/models"
)

var supportedLanguages = map[string]struct{}{
	"en": {},
	"fr": {},
}

// ResolveLocale fills unsupported or missing parts of l from def.
func ResolveLocale(l, def models.Locale) models.Locale {
	if _, ok := supportedLanguages[l.Language]; !ok {
		l.Language = def.Language
	}
	if l.Timezone == "" {
		l.Timezone = def.Timezone
	} else if _, err := time.LoadLocation(l.Timezone); err != nil {
		l.Timezone = def.Timezone
	}
	return l
}
