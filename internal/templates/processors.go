package templates

import (
	"fmt"
	"net/http"

	"github.com/yanizio/ecomm/internal/auth"
	"github.com/yanizio/ecomm/internal/message"
	"github.com/yanizio/ecomm/internal/middleware"
	"github.com/yanizio/ecomm/internal/requestinfo"
)

// Processor adds keys to the render data for one request.
type Processor func(r *http.Request, data map[string]any)

type namedProcessor struct {
	name string
	fn   Processor
}

// processors resolves configured names in order.  Unknown names fail the
// engine build.
func processors(names []string, debug bool, res *requestinfo.Resolver) ([]namedProcessor, error) {
	out := make([]namedProcessor, 0, len(names)+1)
	for _, n := range names {
		var fn Processor
		switch n {
		case "debug":
			fn = debugProcessor(debug)
		case "request":
			fn = requestProcessor(res)
		case "auth":
			fn = authProcessor
		case "messages":
			fn = messagesProcessor
		default:
			return nil, fmt.Errorf("unknown context processor %q", n)
		}
		out = append(out, namedProcessor{name: n, fn: fn})
	}
	// The csrf token is always available, like the built-in processor.
	out = append(out, namedProcessor{name: "csrf", fn: csrfProcessor})
	return out, nil
}

func debugProcessor(debug bool) Processor {
	return func(_ *http.Request, data map[string]any) {
		data["debug"] = debug
	}
}

func requestProcessor(res *requestinfo.Resolver) Processor {
	return func(r *http.Request, data map[string]any) {
		data["request"] = res.Resolve(r)
	}
}

func authProcessor(r *http.Request, data map[string]any) {
	u, ok := auth.FromContext(r.Context())
	data["is_authenticated"] = ok
	if ok {
		data["user"] = u
	} else {
		data["user"] = nil
	}
}

// messagesProcessor consumes pending flash messages, so each shows once.
func messagesProcessor(r *http.Request, data map[string]any) {
	var list []message.Message
	if st := message.FromContext(r.Context()); st != nil {
		list = st.Consume()
	}
	data["messages"] = list
}

func csrfProcessor(r *http.Request, data map[string]any) {
	data["csrf_token"] = middleware.CSRFToken(r)
}
