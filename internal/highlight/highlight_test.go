package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/norgolith/norgolith/internal/log"
)

func TestResolveChromaGeneratesCSS(t *testing.T) {
	res := Resolve("chroma", "github", log.Nop())
	assert.False(t, res.Unknown)
	assert.Contains(t, res.CSS, ".chroma")
}

func TestResolveChromaUnknownStyleFallsBack(t *testing.T) {
	res := Resolve("chroma", "not-a-real-style", log.Nop())
	assert.NotEmpty(t, res.CSS)
}

func TestResolveUnknownEngineDiagnosedOnce(t *testing.T) {
	res := Resolve("prism-extra-typo", "", log.Nop())
	assert.True(t, res.Unknown)
	assert.Empty(t, res.CSS)
}

func TestResolveKnownNonChromaEngineSkipsCSS(t *testing.T) {
	res := Resolve("prism", "", log.Nop())
	assert.False(t, res.Unknown)
	assert.Empty(t, res.CSS)
}
