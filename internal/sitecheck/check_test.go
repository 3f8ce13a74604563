package sitecheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckScript_CleanCode(t *testing.T) {
	src := []byte(`
const slides = document.querySelectorAll(".slide");
let current = 0;

function goTo(index) {
  if (index < 0 || index >= slides.length) return;
  slides[current].classList.remove("active");
  slides[index].classList.add("active");
  current = index;
}

document.addEventListener("keydown", (e) => {
  if (e.key === "ArrowDown") goTo(current + 1);
  if (e.key === "ArrowUp") goTo(current - 1);
});
`)

	issues, err := CheckScript(src)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestCheckScript_SyntaxError(t *testing.T) {
	src := []byte(`function goTo(index { return index; }`)

	issues, err := CheckScript(src)
	require.NoError(t, err)
	require.NotEmpty(t, issues)
	assert.Positive(t, issues[0].Line)
	assert.Positive(t, issues[0].Column)
}

func TestCheckScript_TruncatedCode(t *testing.T) {
	src := []byte(`
document.addEventListener("click", () => {
  console.log("clicked"`)

	issues, err := CheckScript(src)
	require.NoError(t, err)
	assert.NotEmpty(t, issues)
}

func TestCheckHTML(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		kinds []string
	}{
		{
			name: "clean document",
			src:  "<!DOCTYPE html>\n<html><head></head><body></body></html>",
		},
		{
			name:  "empty",
			src:   "   ",
			kinds: []string{"empty"},
		},
		{
			name:  "markdown fenced",
			src:   "```html\n<!DOCTYPE html><html></html>\n```",
			kinds: []string{"fenced"},
		},
		{
			name:  "missing doctype",
			src:   "<html><body></body></html>",
			kinds: []string{"no-doctype"},
		},
		{
			name:  "truncated",
			src:   "<!DOCTYPE html>\n<html><body><div>",
			kinds: []string{"truncated"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := CheckHTML([]byte(tt.src))
			var kinds []string
			for _, i := range issues {
				kinds = append(kinds, i.Kind)
			}
			if len(tt.kinds) == 0 {
				assert.Empty(t, issues)
				return
			}
			for _, want := range tt.kinds {
				assert.Contains(t, kinds, want)
			}
		})
	}
}

func TestIssue_String(t *testing.T) {
	i := Issue{Line: 3, Column: 7, Kind: "syntax-error", Message: "unparseable code"}
	assert.Equal(t, "3:7 syntax-error: unparseable code", i.String())
}
