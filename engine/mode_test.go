package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuard(t *testing.T) {
	var g Guard
	runs := 0
	inc := func() { runs++ }

	g.Enter("a")
	assert.True(t, g.Once(inc))
	assert.False(t, g.Once(inc))

	g.Enter("a")
	assert.False(t, g.Once(inc), "same view keeps the flag")

	g.Enter("b")
	assert.True(t, g.Once(inc))
	assert.Equal(t, 2, runs)
	assert.Equal(t, "b", g.View())
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "live", Live.String())
	assert.Equal(t, "replay", Replay.String())
}

func TestExtractURLs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"bare", "see https://a.example.com now", []string{"https://a.example.com"}},
		{"markdown", "[site](https://b.example.com/x)", []string{"https://b.example.com/x"}},
		{"trailing punctuation", "at https://c.example.com/path.", []string{"https://c.example.com/path"}},
		{"emphasis", "**https://d.example.com**", []string{"https://d.example.com"}},
		{"several", "http://one.test and https://two.test,", []string{"http://one.test", "https://two.test"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractURLs(tt.in))
		})
	}
}

func TestSurfaceFor(t *testing.T) {
	tests := []struct {
		tool string
		want Surface
		ok   bool
	}{
		{"web_search", SurfaceSearch, true},
		{"generate_image", SurfaceMedia, true},
		{"browser_click", SurfaceBrowser, true},
		{"Bash", SurfaceTerminal, true},
		{"MultiEdit", SurfaceEditor, true},
		{"TodoWrite", SurfacePlan, true},
		{"register_deployment", SurfaceDeploy, true},
		{"SlideWrite", SurfaceSlides, true},
		{"sub_agent", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			got, ok := SurfaceFor(tt.tool)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
