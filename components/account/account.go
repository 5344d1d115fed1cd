// components/account/account.go
//
// Account app – the pages the account stage sends users to, sign-out, and a
// password strength check for live signup forms.
//
//------------------------------------------------------------------------------

package account

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/ecomm/internal/app"
	"github.com/yanizio/ecomm/internal/message"
	"github.com/yanizio/ecomm/internal/passwords"
	"github.com/yanizio/ecomm/internal/session"
)

// Compile-time assertion: *App satisfies app.App.
var _ app.App = (*App)(nil)

// App holds the shared environment handed over by Init.
type App struct{ env app.Env }

/*──────────────────────── app.App methods ─────────────────────────────────*/

func (a *App) Name() string { return "account" }

// Prefix trims the trailing slash from ACCOUNT_URL_PREFIX once Init ran.
func (a *App) Prefix() string {
	if a.env.Config == nil {
		return "/accounts"
	}
	p := a.env.Config.Auth.AccountURLPrefix
	if len(p) > 1 && p[len(p)-1] == '/' {
		p = p[:len(p)-1]
	}
	return p
}

func (a *App) Init(env app.Env) error {
	a.env = env
	return nil
}

func (a *App) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/confirm-email/", a.confirmEmail)
	r.Post("/logout/", a.logout)
	r.Post("/password/check/", a.passwordCheck)
	return r
}

func init() { app.Register(&App{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

const confirmPage = "account/verification_sent.html"

func (a *App) confirmEmail(w http.ResponseWriter, r *http.Request) {
	if a.env.Templates != nil {
		if _, ok := a.env.Templates.Lookup(confirmPage); ok {
			a.env.Templates.Render(w, r, http.StatusOK, confirmPage, nil)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Verify your e-mail address to continue.\n"))
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	if s := session.FromContext(r.Context()); s != nil {
		session.LogoutUser(s)
		_ = message.Add(s, message.Success, "You have signed out.")
	}
	dest := "/"
	if a.env.Config != nil {
		dest = a.env.Config.Auth.LoginRedirectURL
	}
	http.Redirect(w, r, dest, http.StatusFound)
}

type checkResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
	Help   []string `json:"help"`
}

// passwordCheck runs the configured validators against a candidate
// password and the other signup fields.
func (a *App) passwordCheck(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	user := passwords.Attributes{}
	for _, f := range []string{"username", "first_name", "last_name", "email"} {
		if v := r.PostForm.Get(f); v != "" {
			user[f] = v
		}
	}
	msgs := passwords.Messages(passwords.Validate(r.PostForm.Get("password"), user, a.env.Passwords))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(checkResult{
		Valid:  len(msgs) == 0,
		Errors: append([]string{}, msgs...),
		Help:   passwords.HelpTexts(a.env.Passwords),
	})
}
