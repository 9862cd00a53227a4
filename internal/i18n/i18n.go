// Package i18n localizes labels shown by the CLI, the calendar feed and the
// local HTTP service.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-birthday-tracker/internal/config"
	"github.com/tartampluch/go-birthday-tracker/internal/engine"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

const (
	localeDir    = "locales"
	localePrefix = "active."
	localeSuffix = ".json"
)

// Translator resolves message ids for one language. It is safe for concurrent use.
type Translator struct {
	localizer *goi18n.Localizer
	tag       language.Tag
	languages []string
}

// New loads every embedded locale and picks the best match for lang.
// Unknown or empty languages fall back to English.
func New(lang string) *Translator {
	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	detected := loadLocales(bundle)

	tag := matchLanguage(bundle.LanguageTags(), lang)
	return &Translator{
		localizer: goi18n.NewLocalizer(bundle, tag.String()),
		tag:       tag,
		languages: detected,
	}
}

func loadLocales(bundle *goi18n.Bundle) []string {
	entries, err := localeFS.ReadDir(localeDir)
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
		return nil
	}

	var detected []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, localePrefix) || !strings.HasSuffix(name, localeSuffix) {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, localePrefix), localeSuffix)
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, localeDir+"/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyFile, name,
		)
		detected = append(detected, langCode)
	}
	return detected
}

func matchLanguage(supported []language.Tag, lang string) language.Tag {
	if len(supported) == 0 {
		return language.English
	}
	desired, _, err := language.ParseAcceptLanguage(lang)
	if err != nil || len(desired) == 0 {
		desired = []language.Tag{language.English}
	}
	_, index, confidence := language.NewMatcher(supported).Match(desired...)
	if confidence == language.No {
		return language.English
	}
	return supported[index]
}

// Tag returns the resolved language, for collation.
func (t *Translator) Tag() language.Tag {
	return t.tag
}

// Languages lists the locale codes found in the embedded files.
func (t *Translator) Languages() []string {
	return t.languages
}

// Msg translates a message id, returning the id itself when it is missing.
func (t *Translator) Msg(key string) string {
	return t.localize(&goi18n.LocalizeConfig{MessageID: key}, key)
}

// Text translates a templated message id.
func (t *Translator) Text(key string, data map[string]any) string {
	return t.localize(&goi18n.LocalizeConfig{MessageID: key, TemplateData: data}, key)
}

// Count translates a message whose plural form follows n. n is also available
// to the template as Count.
func (t *Translator) Count(key string, n int, data map[string]any) string {
	td := map[string]any{"Count": n}
	for k, v := range data {
		td[k] = v
	}
	return t.localize(&goi18n.LocalizeConfig{MessageID: key, TemplateData: td, PluralCount: n}, key)
}

// Zodiac returns the localized sign name.
func (t *Translator) Zodiac(s engine.Sign) string {
	return t.Msg(config.TKeyPrefixZodiac + string(s))
}

// Category returns the localized category label.
func (t *Translator) Category(c engine.Category) string {
	return t.Msg(config.TKeyPrefixCategory + string(c))
}

// Summary renders a calendar event title. It matches calendar.SummaryFunc.
func (t *Translator) Summary(name string, age int, yearKnown bool) string {
	data := map[string]any{"Name": name, "Age": age}
	switch {
	case !yearKnown:
		return t.localize(&goi18n.LocalizeConfig{MessageID: config.TKeyEvtSummary, TemplateData: data},
			fmt.Sprintf(config.FallbackSummary, name))
	case age == 0:
		return t.localize(&goi18n.LocalizeConfig{MessageID: config.TKeyEvtSummaryBirth, TemplateData: data},
			fmt.Sprintf(config.FallbackSummaryBirth, name))
	default:
		return t.localize(&goi18n.LocalizeConfig{MessageID: config.TKeyEvtSummaryAge, TemplateData: data},
			fmt.Sprintf(config.FallbackSummaryAge, name, age))
	}
}

// Reminder renders the reminder text for a birthday days away.
func (t *Translator) Reminder(name string, days int) string {
	if days == 0 {
		return t.localize(&goi18n.LocalizeConfig{
			MessageID:    config.TKeyReminderToday,
			TemplateData: map[string]any{"Name": name},
		}, fmt.Sprintf(config.FallbackReminderDay, name))
	}
	return t.localize(&goi18n.LocalizeConfig{
		MessageID:    config.TKeyReminder,
		TemplateData: map[string]any{"Name": name, "Count": days},
		PluralCount:  days,
	}, fmt.Sprintf(config.FallbackReminder, name, days))
}

// Date formats a birth date with the locale's short layout. Year-unknown dates
// keep their vCard form.
func (t *Translator) Date(d engine.Date) string {
	if !d.YearKnown() {
		return d.String()
	}
	layout := t.Msg(config.TKeyFormatDate)
	if layout == config.TKeyFormatDate {
		layout = config.DateFormatDisplay
	}
	return d.Time().Format(layout)
}

// Age renders the turning age, or the localized placeholder when the year is unknown.
func (t *Translator) Age(e engine.Enriched) string {
	if !e.Valid || !e.Birth.YearKnown() {
		return t.Msg(config.TKeyAgeUnknown)
	}
	return fmt.Sprint(e.TurningAge)
}

func (t *Translator) localize(lc *goi18n.LocalizeConfig, fallback string) string {
	msg, err := t.localizer.Localize(lc)
	if err != nil || msg == "" {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, lc.MessageID,
			config.LogKeyError, err,
		)
		return fallback
	}
	return msg
}
