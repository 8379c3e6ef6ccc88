package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	// CallbackPort is the port for the OAuth callback server
	CallbackPort = 8089
	// AuthTimeout is how long to wait for the user to complete auth
	AuthTimeout = 5 * time.Minute
)

const successPage = `<!DOCTYPE html>
<html>
<head><title>trainload connected</title></head>
<body style="font-family: system-ui; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0;">
<div style="text-align: center;">
<h1 style="color: #10B981;">Connected to Strava</h1>
<p>You can close this window and return to the terminal.</p>
</div>
</body>
</html>`

// Authenticate runs the OAuth flow with a local callback server.
// Instructions for the user are written to out.
func Authenticate(ctx context.Context, cfg *oauth2.Config, out io.Writer) (*AuthResult, error) {
	// Generate state for CSRF protection
	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("generating state: %w", err)
	}

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	addr := callbackAddr(cfg.RedirectURL)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("starting callback server on %s: %w", addr, err)
	}

	server := &http.Server{
		Handler:           callbackRouter(state, codeChan, errChan),
		ReadHeaderTimeout: 10 * time.Second,
	}
	defer shutdownServer(server)

	go func() {
		if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			sendErr(errChan, fmt.Errorf("server error: %w", err))
		}
	}()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "To connect trainload to Strava, open this URL in your browser:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", authURL)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Waiting for authorization...")

	timer := time.NewTimer(AuthTimeout)
	defer timer.Stop()

	var code string
	select {
	case code = <-codeChan:
	case err := <-errChan:
		return nil, err
	case <-timer.C:
		return nil, fmt.Errorf("authentication timeout after %v", AuthTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// Exchange code for token
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code for token: %w", err)
	}

	result := &AuthResult{Token: token, AthleteID: ExtractAthleteID(token)}
	log.Info().Int64("athlete", result.AthleteID).Msg("strava authorization complete")
	return result, nil
}

// callbackRouter serves the OAuth redirect, forwarding the code or the failure
func callbackRouter(state string, codeChan chan<- string, errChan chan<- error) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/callback", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()

		if q.Get("state") != state {
			sendErr(errChan, errors.New("state mismatch - possible CSRF attack"))
			http.Error(w, "State mismatch", http.StatusBadRequest)
			return
		}

		if errMsg := q.Get("error"); errMsg != "" {
			sendErr(errChan, fmt.Errorf("auth error: %s", errMsg))
			http.Error(w, "Authentication failed", http.StatusBadRequest)
			return
		}

		code := q.Get("code")
		if code == "" {
			sendErr(errChan, errors.New("no code in callback"))
			http.Error(w, "No authorization code", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, successPage)

		select {
		case codeChan <- code:
		default:
		}
	}).Methods(http.MethodGet)
	return r
}

// callbackAddr derives the listen address from the redirect URL's port
func callbackAddr(redirectURL string) string {
	if u, err := url.Parse(redirectURL); err == nil && u.Port() != "" {
		return ":" + u.Port()
	}
	return fmt.Sprintf(":%d", CallbackPort)
}

func sendErr(errChan chan<- error, err error) {
	select {
	case errChan <- err:
	default:
	}
}

// generateState creates a random state string for CSRF protection
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// shutdownServer gracefully shuts down the HTTP server
func shutdownServer(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}
