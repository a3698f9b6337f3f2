package site

import (
	"bytes"
	"html/template"
)

var layoutTemplate = template.Must(template.New("layout").Parse(`<!doctype html>
<html lang="{{.Lang}}">
  <head>
    <meta charset="UTF-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    <title>{{.Title}}</title>
  </head>
  <body>
{{.Content}}
  </body>
</html>
`))

type layoutData struct {
	Lang    string
	Title   string
	Content template.HTML
}

// RenderLayout wraps a compiled page fragment into a full HTML document.
func RenderLayout(title string, lang string, fragment string) (string, error) {
	if lang == "" {
		lang = "en"
	}

	var buf bytes.Buffer
	if err := layoutTemplate.Execute(&buf, layoutData{
		Lang:    lang,
		Title:   title,
		Content: template.HTML(fragment),
	}); err != nil {
		return "", err
	}

	return buf.String(), nil
}
