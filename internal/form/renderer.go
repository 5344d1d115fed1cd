// internal/form/renderer.go
//
// ecomm – Forms subsystem: template-pack renderer.
//
// Context
//   Templates call `{{ crispy .Form }}` to turn a field list into markup for
//   the configured template pack.  The pack is chosen once from settings
//   (CRISPY_TEMPLATE_PACK) and must appear in the allowed list.  Only
//   bootstrap4 is implemented.
//
// Workflow
//   •  NewRenderer checks the pack against the allow-list.
//   •  Render writes each field in order, then the hidden CSRF input.
//   •  The caller receives template.HTML so the surrounding template does
//      not double-escape the markup.
//
// Style
//   Each field is wrapped in <div class="form-group"> with id="id_{name}",
//   matching Bootstrap 4 form conventions.  Errors mark the control
//   `is-invalid` and follow it in `invalid-feedback`.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"html/template"
	"strings"
)

// PackBootstrap4 is the only supported template pack.
const PackBootstrap4 = "bootstrap4"

var (
	ErrPackNotAllowed = errors.New("form: template pack not in allowed list")
	ErrPackUnknown    = errors.New("form: template pack not supported")
)

// Field is one input as a view hands it to the renderer.
type Field struct {
	Name        string
	Label       string
	Type        string // text, email, password, number, textarea, select, checkbox, hidden
	Value       string
	Placeholder string
	Help        string
	Required    bool
	Options     []string
	Errors      []string
}

// Renderer emits markup for one template pack.
type Renderer struct {
	pack string
}

// NewRenderer validates pack against allowed.
func NewRenderer(pack string, allowed []string) (*Renderer, error) {
	ok := false
	for _, a := range allowed {
		if a == pack {
			ok = true
			break
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPackNotAllowed, pack)
	}
	if pack != PackBootstrap4 {
		return nil, fmt.Errorf("%w: %q", ErrPackUnknown, pack)
	}
	return &Renderer{pack: pack}, nil
}

// Pack returns the configured template pack name.
func (r *Renderer) Pack() string { return r.pack }

// Render returns markup for fields followed by the CSRF hidden input.  An
// empty csrfToken omits the input (GET search forms).
func (r *Renderer) Render(fields []Field, csrfToken string) template.HTML {
	var buf bytes.Buffer
	for i := range fields {
		writeField(&buf, &fields[i])
	}
	if csrfToken != "" {
		fmt.Fprintf(&buf, `<input type="hidden" name="%s" value="%s">`+"\n",
			FieldName, html.EscapeString(csrfToken))
	}
	return template.HTML(buf.String())
}

// writeField emits HTML for one field.
func writeField(buf *bytes.Buffer, f *Field) {
	name := html.EscapeString(f.Name)
	id := "id_" + name

	if f.Type == "hidden" {
		fmt.Fprintf(buf, `<input type="hidden" name="%s" id="%s" value="%s">`+"\n",
			name, id, html.EscapeString(f.Value))
		return
	}

	control := "form-control"
	if len(f.Errors) > 0 {
		control += " is-invalid"
	}

	if f.Type == "checkbox" {
		buf.WriteString(`<div class="form-group"><div class="form-check">` + "\n")
		checked := ""
		if f.Value != "" && strings.ToLower(f.Value) != "false" {
			checked = " checked"
		}
		cls := "form-check-input"
		if len(f.Errors) > 0 {
			cls += " is-invalid"
		}
		fmt.Fprintf(buf, `<input type="checkbox" class="%s" name="%s" id="%s"%s%s>`+"\n",
			cls, name, id, checked, requiredAttr(f))
		fmt.Fprintf(buf, `<label class="form-check-label" for="%s">%s</label>`+"\n",
			id, html.EscapeString(f.Label))
		writeFeedback(buf, f)
		buf.WriteString("</div></div>\n")
		return
	}

	fmt.Fprintf(buf, `<div id="div_%s" class="form-group">`+"\n", id)
	if f.Label != "" {
		star := ""
		if f.Required {
			star = `<span class="asteriskField">*</span>`
		}
		fmt.Fprintf(buf, `<label for="%s">%s%s</label>`+"\n", id, html.EscapeString(f.Label), star)
	}

	switch f.Type {
	case "textarea":
		fmt.Fprintf(buf, `<textarea class="%s" name="%s" id="%s"%s%s>%s</textarea>`+"\n",
			control, name, id, placeholderAttr(f), requiredAttr(f), html.EscapeString(f.Value))
	case "select":
		fmt.Fprintf(buf, `<select class="%s" name="%s" id="%s"%s>`+"\n", control, name, id, requiredAttr(f))
		for _, opt := range f.Options {
			sel := ""
			if opt == f.Value {
				sel = " selected"
			}
			o := html.EscapeString(opt)
			fmt.Fprintf(buf, `<option value="%s"%s>%s</option>`+"\n", o, sel, o)
		}
		buf.WriteString("</select>\n")
	default:
		typ := f.Type
		if typ == "" {
			typ = "text"
		}
		val := ""
		if f.Value != "" && typ != "password" {
			val = ` value="` + html.EscapeString(f.Value) + `"`
		}
		fmt.Fprintf(buf, `<input type="%s" class="%s" name="%s" id="%s"%s%s%s>`+"\n",
			html.EscapeString(typ), control, name, id, val, placeholderAttr(f), requiredAttr(f))
	}

	writeFeedback(buf, f)
	buf.WriteString("</div>\n")
}

func writeFeedback(buf *bytes.Buffer, f *Field) {
	for _, e := range f.Errors {
		fmt.Fprintf(buf, `<div class="invalid-feedback"><strong>%s</strong></div>`+"\n", html.EscapeString(e))
	}
	if f.Help != "" {
		fmt.Fprintf(buf, `<small class="form-text text-muted">%s</small>`+"\n", html.EscapeString(f.Help))
	}
}

func requiredAttr(f *Field) string {
	if f.Required {
		return " required"
	}
	return ""
}

func placeholderAttr(f *Field) string {
	if f.Placeholder == "" {
		return ""
	}
	return ` placeholder="` + html.EscapeString(f.Placeholder) + `"`
}
