package story

import (
	"testing"

	"shorts-pipeline/config"
	"shorts-pipeline/types"

	"github.com/stretchr/testify/assert"
)

func TestCleanTitle(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`"قصة الصبر"`, "قصة الصبر"},
		{"Title: قصة الصبر", "قصة الصبر"},
		{"العنوان: قصة الصبر", "قصة الصبر"},
		{"عنوان مقترح: قصة الصبر", "قصة الصبر"},
		{"- قصة الصبر", "قصة الصبر"},
		{"«قصة الصبر»", "قصة الصبر"},
		{"  قصة الصبر  ", "قصة الصبر"},
		{"قصة الصبر", "قصة الصبر"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, cleanTitle(tc.in), "input %q", tc.in)
	}
}

func TestCleanJSON(t *testing.T) {
	fenced := "```json\n{\"title\": \"x\"}\n```"
	assert.Equal(t, `{"title": "x"}`, cleanJSON(fenced))
	assert.Equal(t, `{"title": "x"}`, cleanJSON(`{"title": "x"}`))
}

func TestGenerateDescriptionUsesTemplate(t *testing.T) {
	g := &Generator{cfg: &config.Config{
		YouTube: config.YouTubeConfig{
			DescriptionTemplate: "{story_summary}\n\n#shorts",
		},
	}}
	story := &types.Story{Story: "الجملة الأولى. الجملة الثانية. الجملة الثالثة. الجملة الرابعة."}

	desc := g.GenerateDescription(story)

	assert.Contains(t, desc, "الجملة الأولى")
	assert.Contains(t, desc, "الجملة الثالثة")
	assert.NotContains(t, desc, "الجملة الرابعة")
	assert.Contains(t, desc, "#shorts")
}

func TestGenerateDescriptionWithoutTemplate(t *testing.T) {
	g := &Generator{cfg: &config.Config{}}
	desc := g.GenerateDescription(&types.Story{Story: "جملة واحدة فقط"})
	assert.Equal(t, "جملة واحدة فقط.", desc)
}

func TestGenerateTags(t *testing.T) {
	g := &Generator{cfg: &config.Config{
		YouTube: config.YouTubeConfig{Tags: []string{"islam", "shorts"}},
	}}
	tags := g.GenerateTags(&types.Story{Topic: "sahaba", Theme: "courage"})

	assert.Contains(t, tags, "islam")
	assert.Contains(t, tags, "الصحابة")
	assert.Contains(t, tags, "courage")
	// base slice in the config must not be mutated
	assert.Len(t, g.cfg.YouTube.Tags, 2)
}
