// Package locale resolves message ids into localized text.
package locale

import (
	"embed"
	"io/fs"
	"strings"
	"sync"

	"github.com/dispatchhub/dispatch/logger"
	"github.com/dispatchhub/dispatch/web/entity"

	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

//go:embed translation/*
var translationFS embed.FS

const localizerKey = "localizer"

var (
	i18nBundle *i18n.Bundle
	bundleOnce sync.Once
	bundleErr  error
)

// InitLocalizer parses the embedded translation files. It is safe to call
// more than once.
func InitLocalizer() error {
	bundleOnce.Do(func() {
		// set default bundle to english
		b := i18n.NewBundle(language.MustParse("en-US"))
		b.RegisterUnmarshalFunc("toml", toml.Unmarshal)
		if err := parseTranslationFiles(translationFS, b); err != nil {
			bundleErr = err
			return
		}
		i18nBundle = b
	})
	return bundleErr
}

// Languages lists the tags that have a translation file.
func Languages() []string {
	if err := InitLocalizer(); err != nil {
		return nil
	}
	tags := i18nBundle.LanguageTags()
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.String())
	}
	return out
}

// NewLocalizer returns a localizer for the given preference list, as found
// in an Accept-Language header.
func NewLocalizer(langs ...string) *i18n.Localizer {
	if err := InitLocalizer(); err != nil {
		logger.Warning("i18n init failed:", err)
		return nil
	}
	return i18n.NewLocalizer(i18nBundle, langs...)
}

func createTemplateData(params []string, seperator ...string) map[string]any {
	sep := "=="
	if len(seperator) > 0 {
		sep = seperator[0]
	}

	templateData := make(map[string]any)
	for _, param := range params {
		parts := strings.SplitN(param, sep, 2)
		if len(parts) != 2 {
			continue
		}
		templateData[parts[0]] = parts[1]
	}
	return templateData
}

// I18n localizes key for lang. params are "Name==value" pairs.
func I18n(lang string, key string, params ...string) string {
	return LocalizeParams(NewLocalizer(lang), key, params...)
}

// LocalizeParams is Localize with "Name==value" template pairs.
func LocalizeParams(loc *i18n.Localizer, key string, params ...string) string {
	return Localize(loc, key, createTemplateData(params))
}

// Localize renders key with loc, falling back to the key itself.
func Localize(loc *i18n.Localizer, key string, data map[string]any) string {
	if loc == nil {
		return key
	}
	msg, err := loc.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		logger.Errorf("Failed to localize message %q: %v", key, err)
		return key
	}
	return msg
}

// LocalizeFieldErrors returns a copy of fields with Message rendered in
// the localizer's language. Entries without a message id keep their text.
func LocalizeFieldErrors(loc *i18n.Localizer, fields []entity.FieldError) []entity.FieldError {
	out := make([]entity.FieldError, len(fields))
	for i, f := range fields {
		out[i] = f
		if f.MessageID == "" || loc == nil {
			continue
		}
		out[i].Message = Localize(loc, f.MessageID, map[string]any{"Param": f.Param})
	}
	return out
}

// LocalizerMiddleware picks the language from the "lang" cookie or the
// Accept-Language header and stores a localizer on the context.
func LocalizerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var lang string
		if cookie, err := c.Request.Cookie("lang"); err == nil {
			lang = cookie.Value
		} else {
			lang = c.GetHeader("Accept-Language")
		}
		c.Set(localizerKey, NewLocalizer(lang))
		c.Next()
	}
}

// FromContext returns the localizer set by LocalizerMiddleware, or an
// English one.
func FromContext(c *gin.Context) *i18n.Localizer {
	if v, ok := c.Get(localizerKey); ok {
		if loc, ok := v.(*i18n.Localizer); ok && loc != nil {
			return loc
		}
	}
	return NewLocalizer("en-US")
}

func parseTranslationFiles(i18nFS fs.FS, bundle *i18n.Bundle) error {
	return fs.WalkDir(i18nFS, "translation",
		func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			data, err := fs.ReadFile(i18nFS, path)
			if err != nil {
				return err
			}
			_, err = bundle.ParseMessageFileBytes(data, path)
			return err
		})
}
