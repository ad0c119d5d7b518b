// Package i18n localizes API error messages by error code.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var localeFiles = []string{
	"locales/active.en.json",
	"locales/active.tr.json",
}

// Translator resolves message codes for an Accept-Language header
type Translator struct {
	bundle *goi18n.Bundle
}

// New loads the embedded bundles. defaultLanguage is used when the client asks for nothing we have.
func New(defaultLanguage string) (*Translator, error) {
	tag, err := language.Parse(defaultLanguage)
	if err != nil {
		return nil, fmt.Errorf("invalid default language %q: %w", defaultLanguage, err)
	}

	bundle := goi18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	for _, f := range localeFiles {
		if _, err := bundle.LoadMessageFileFS(localeFS, f); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	return &Translator{bundle: bundle}, nil
}

// Languages lists the loaded languages
func (t *Translator) Languages() []language.Tag {
	return t.bundle.LanguageTags()
}

// Message localizes code. Unknown codes return fallback.
func (t *Translator) Message(acceptLanguage, code string, data map[string]interface{}, fallback string) string {
	localizer := goi18n.NewLocalizer(t.bundle, acceptLanguage)
	msg, err := localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:    code,
		TemplateData: data,
	})
	if err != nil || msg == "" {
		return fallback
	}
	return msg
}
