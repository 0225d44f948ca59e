package assets

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"regexp"
	"strings"
)

// JinjaSentinel marks an HTML template that must be rendered server-side
// before it is shipped to the browser.
const JinjaSentinel = "<!-- jinja -->"

// maxIncludeDepth bounds nested include expansion.
const maxIncludeDepth = 5

var (
	includeDirective = regexp.MustCompile(`\{%\s*include\s+['"]([^'"]+)['"]\s*%\}`)
	htmlComment      = regexp.MustCompile(`(?s)<!--.*?-->`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
)

// HTMLToJSTemplate converts an HTML file into a statement registering it in
// the client template map under the file's base name without extension.
// Whitespace runs collapse to a single space and comments are dropped.
func HTMLToJSTemplate(name, content string) string {
	key := strings.TrimSuffix(path.Base(name), ".html")
	return fmt.Sprintf("desk.templates[%q] = '%s';\n", key, scrubHTML(content))
}

func scrubHTML(content string) string {
	content = whitespaceRun.ReplaceAllString(content, " ")
	content = htmlComment.ReplaceAllString(content, "")
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(content)
}

// ExpandIncludes replaces {% include "path" %} directives with the named
// file from fsys. Included HTML files become template statements. Includes
// inside included files are expanded up to maxIncludeDepth levels.
func ExpandIncludes(fsys fs.FS, content string) (string, error) {
	for range maxIncludeDepth {
		matches := includeDirective.FindAllStringSubmatch(content, -1)
		if len(matches) == 0 {
			break
		}
		for _, m := range matches {
			directive, name := m[0], m[1]
			b, err := fs.ReadFile(fsys, strings.TrimPrefix(name, "/"))
			if err != nil {
				return "", fmt.Errorf("assets.ExpandIncludes: %s: %w", name, err)
			}
			include := string(b)
			if strings.HasSuffix(name, ".html") {
				include = HTMLToJSTemplate(name, include)
			}
			content = strings.ReplaceAll(content, directive, include)
		}
	}
	return content, nil
}

// renderTemplate renders an HTML template with the given context.
func renderTemplate(name, content string, data map[string]any) (string, error) {
	tpl, err := template.New(name).Parse(content)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
