package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogLoadsBothLocales(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "pl"}, c.Locales())
}

func TestTranslatorResourceLabels(t *testing.T) {
	c := MustLoad()

	pl := c.For("pl")
	assert.Equal(t, "Posty", pl.T("Posty"))
	assert.Equal(t, "Post", pl.T("Post"))

	en := c.For("en-GB")
	assert.Equal(t, "en", en.Locale())
	assert.Equal(t, "Posts", en.T("Posty"))
	assert.Equal(t, "Title & content", en.T("Tytuł oraz treść"))
}

func TestTranslatorFallbacks(t *testing.T) {
	c := MustLoad()

	unknown := c.For("xx")
	assert.Equal(t, DefaultLocale, unknown.Locale())
	assert.Equal(t, "not.a.key", unknown.T("not.a.key"))
}

func TestTranslatorPlaceholders(t *testing.T) {
	en := MustLoad().For("en")
	got := en.T("validation.min.string", map[string]string{"attribute": "title", "min": "3"})
	assert.Equal(t, "The title field must be at least 3 characters.", got)
}
