// Package locale renders user-facing strings from per-language JSON
// dictionaries embedded in the binary.
//
// Keys are dot paths into nested objects ("ticket.created"). Lookup falls
// back from the requested language to the default language and finally to
// the key itself, so a missing translation shows up as a visible key instead
// of an empty reply. Placeholders use the {{name}} form; placeholders without
// a matching parameter are left verbatim.
package locale

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
)

//go:embed locales/*.json
var embedded embed.FS

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// SettingsReader is the slice of the persistence layer the translator needs.
type SettingsReader interface {
	GetUserSettings(ctx context.Context, telegramID int64) (domain.UserSettings, error)
}

// Params are the values substituted into {{name}} placeholders.
type Params map[string]any

// Translator is safe for concurrent use; dictionaries are read-only after
// construction.
type Translator struct {
	dicts       map[string]map[string]any
	defaultLang string
	tags        []language.Tag
	codes       []string
	matcher     language.Matcher
	settings    SettingsReader
	log         zerolog.Logger
}

// New loads the embedded dictionaries.
func New(defaultLang string, settings SettingsReader, log zerolog.Logger) (*Translator, error) {
	return Load(embedded, "locales", defaultLang, settings, log)
}

// Load reads every <lang>.json under dir in fsys. The default language must
// be among them.
func Load(fsys fs.FS, dir, defaultLang string, settings SettingsReader, log zerolog.Logger) (*Translator, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}
	t := &Translator{
		dicts:       make(map[string]map[string]any),
		defaultLang: strings.ToLower(defaultLang),
		settings:    settings,
		log:         log.With().Str("component", "locale").Logger(),
	}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		code := strings.ToLower(strings.TrimSuffix(e.Name(), ".json"))
		raw, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		var dict map[string]any
		if err := json.Unmarshal(raw, &dict); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		t.dicts[code] = dict
	}
	if _, ok := t.dicts[t.defaultLang]; !ok {
		return nil, fmt.Errorf("default locale %q has no dictionary", defaultLang)
	}

	t.codes = make([]string, 0, len(t.dicts))
	for code := range t.dicts {
		t.codes = append(t.codes, code)
	}
	sort.Strings(t.codes)
	// The default goes first so the matcher falls back to it.
	t.tags = append(t.tags, language.Make(t.defaultLang))
	for _, code := range t.codes {
		if code != t.defaultLang {
			t.tags = append(t.tags, language.Make(code))
		}
	}
	t.matcher = language.NewMatcher(t.tags)
	return t, nil
}

// Default returns the default language code.
func (t *Translator) Default() string { return t.defaultLang }

// Supported returns the language codes that have a dictionary, sorted.
func (t *Translator) Supported() []string {
	out := make([]string, len(t.codes))
	copy(out, t.codes)
	return out
}

// IsSupported reports whether code has its own dictionary.
func (t *Translator) IsSupported(code string) bool {
	_, ok := t.dicts[strings.ToLower(code)]
	return ok
}

// Normalize maps a BCP 47 tag such as "pt-BR" or "de_AT" to the closest
// supported code, or the default language when nothing matches.
func (t *Translator) Normalize(tag string) string {
	tag = strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")
	if tag == "" {
		return t.defaultLang
	}
	if t.IsSupported(tag) {
		return strings.ToLower(tag)
	}
	_, idx, conf := t.matcher.Match(language.Make(tag))
	if conf == language.No {
		return t.defaultLang
	}
	base, _ := t.tags[idx].Base()
	return base.String()
}

// missingKey stands in for an empty key.
const missingKey = "???"

// T renders key in lang. It never returns an empty string: a missing key
// comes back as itself and an empty key as "???".
func (t *Translator) T(key, lang string, params Params) string {
	if key == "" {
		return missingKey
	}
	s, ok := t.lookup(strings.ToLower(lang), key)
	if !ok && !strings.EqualFold(lang, t.defaultLang) {
		s, ok = t.lookup(t.defaultLang, key)
	}
	if !ok {
		return key
	}
	if len(params) == 0 {
		return s
	}
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if v, ok := params[name]; ok {
			return fmt.Sprint(v)
		}
		return m
	})
}

func (t *Translator) lookup(lang, key string) (string, bool) {
	dict, ok := t.dicts[lang]
	if !ok {
		return "", false
	}
	var cur any = dict
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		if cur, ok = m[part]; !ok {
			return "", false
		}
	}
	s, ok := cur.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// UserLanguage returns the stored language of telegramID, or the default on
// any failure.
func (t *Translator) UserLanguage(ctx context.Context, telegramID int64) string {
	if t.settings == nil {
		return t.defaultLang
	}
	s, err := t.settings.GetUserSettings(ctx, telegramID)
	if err != nil {
		t.log.Warn().Err(err).Int64("user_id", telegramID).Msg("user language lookup failed")
		return t.defaultLang
	}
	if s.Language == "" {
		return t.defaultLang
	}
	return s.Language
}

// LanguageName returns the native name of code ("Deutsch"), or the code.
func (t *Translator) LanguageName(code string) string {
	if s, ok := t.lookup(strings.ToLower(code), "language.name"); ok {
		return s
	}
	return code
}

// Title upper-cases the first letter of each word of s using the casing
// rules of lang. The rest of each word is left alone so "McDonald" survives.
func Title(lang, s string) string {
	return cases.Title(language.Make(lang), cases.NoLower).String(s)
}
