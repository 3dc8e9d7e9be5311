package google

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// DefaultLoopbackAddr is where the installed-app flow listens for the
// authorization redirect.
const DefaultLoopbackAddr = "127.0.0.1:8080"

type callbackResult struct {
	code string
	err  error
}

// AuthorizeInstalledApp runs the OAuth installed-app flow: it listens on a
// loopback address, hands the consent URL to prompt, and exchanges the
// returned authorization code for a token.
func AuthorizeInstalledApp(ctx context.Context, conf *oauth2.Config, addr string, prompt func(authURL string)) (*oauth2.Token, error) {
	if addr == "" {
		addr = DefaultLoopbackAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	flowConf := *conf
	flowConf.RedirectURL = "http://" + ln.Addr().String() + "/"
	state := uuid.NewString()

	results := make(chan callbackResult, 1)
	srv := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			var res callbackResult
			switch {
			case q.Get("state") != state:
				res.err = errors.New("state mismatch in authorization response")
			case q.Get("error") != "":
				res.err = fmt.Errorf("authorization denied: %s", q.Get("error"))
			case q.Get("code") == "":
				res.err = errors.New("authorization response has no code")
			default:
				res.code = q.Get("code")
			}

			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			if res.err != nil {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprintf(w, "<p>Authorization failed: %s</p>", html.EscapeString(res.err.Error()))
			} else {
				fmt.Fprint(w, "<p>Authorization complete. You may close this window.</p>")
			}

			select {
			case results <- res:
			default:
			}
		}),
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("loopback server failed", slog.String("error", err.Error()))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	prompt(flowConf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce))

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		token, err := flowConf.Exchange(ctx, res.code)
		if err != nil {
			return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
		}
		return token, nil
	}
}
