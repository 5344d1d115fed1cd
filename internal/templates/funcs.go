package templates

import (
	"html/template"
	"strings"

	"github.com/yanizio/ecomm/internal/config"
	"github.com/yanizio/ecomm/internal/form"
	"github.com/yanizio/ecomm/internal/message"
)

// alertClass maps message levels to Bootstrap alert classes.
var alertClass = map[message.Level]string{
	message.Debug:   "alert-secondary",
	message.Info:    "alert-info",
	message.Success: "alert-success",
	message.Warning: "alert-warning",
	message.Error:   "alert-danger",
}

func funcMap(cfg *config.Config, forms *form.Renderer) template.FuncMap {
	return template.FuncMap{
		"static": func(p string) string { return join(cfg.Static.URL, p) },
		"media":  func(p string) string { return join(cfg.Media.URL, p) },
		"dict":   dict,
		"alert":  func(l message.Level) string { return alertClass[l] },
		// {{ crispy .fields .csrf_token }}
		"crispy": func(fields []form.Field, csrfToken string) template.HTML {
			if forms == nil {
				return "<!-- form renderer not configured -->"
			}
			return forms.Render(fields, csrfToken)
		},
	}
}

func join(prefix, p string) string {
	return strings.TrimSuffix(prefix, "/") + "/" + strings.TrimPrefix(p, "/")
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}
