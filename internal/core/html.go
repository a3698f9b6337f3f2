package core

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
	"text/template"
)

type PageParts struct {
	CDNScripts    []string
	RootID        string
	ServerHTML    string
	PropsJSON     []byte
	HydrateScript string
}

const importShim = `const require = (e) => { if (e === "react") return window.React; };`

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"attr": html.EscapeString,
}).Parse(`{{range .CDNScripts}}<script crossorigin src="{{attr .}}"></script>
{{end}}<div id="{{.RootID}}">{{.ServerHTML}}</div>
<script>
{{.Shim}}
const {{.PropsVar}} = {{.Props}};
{{.Hydrate}}
</script>
`))

var scriptCloseRe = regexp.MustCompile(`(?i)</(script)`)

// EscapeScript keeps code from terminating the surrounding script element
// or switching the parser into its escaped script states.
func EscapeScript(code string) string {
	code = strings.ReplaceAll(code, "<!--", `<\!--`)
	return scriptCloseRe.ReplaceAllString(code, `<\/$1`)
}

// HydrationProgram is the client code run in the page before it is wrapped
// into a self-executing function.
func HydrationProgram(clientBundle string, rootID string) string {
	return fmt.Sprintf(`%s;
const container = document.querySelector('#%s');
const props = JSON.parse(JSON.stringify(%s));
const app = React.createElement(%s.default, props, null);
ReactDOM.hydrateRoot(container, app);
`, strings.TrimRight(clientBundle, "\n;"), rootID, PropsVar, GlobalName)
}

func AssemblePage(p PageParts) (string, error) {
	if err := ValidateRootID(p.RootID); err != nil {
		return "", err
	}
	if p.HydrateScript == "" {
		return "", fmt.Errorf("missing hydrate script")
	}

	props := "{}"
	if len(p.PropsJSON) > 0 {
		props = string(p.PropsJSON)
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, map[string]any{
		"CDNScripts": p.CDNScripts,
		"RootID":     p.RootID,
		"ServerHTML": p.ServerHTML,
		"Shim":       importShim,
		"PropsVar":   PropsVar,
		"Props":      EscapeScript(props),
		"Hydrate":    EscapeScript(strings.TrimRight(p.HydrateScript, "\n")),
	}); err != nil {
		return "", err
	}

	return buf.String(), nil
}
