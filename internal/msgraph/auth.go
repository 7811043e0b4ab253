package msgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"

	"github.com/Tiliavir/rapportini/internal/storage"
)

const loginBaseURL = "https://login.microsoftonline.com"

// offline_access is what makes the token endpoint return a refresh token.
var calendarScopes = []string{
	"https://graph.microsoft.com/Calendars.Read",
	"offline_access",
}

// TokenPath returns the token cache location inside the data directory.
func TokenPath(dataDir string) string {
	return filepath.Join(dataDir, "auth", "msgraph_tokens.json")
}

// Authenticator signs in to Microsoft Graph with the OAuth2 device code
// flow and keeps the token in a JSON cache file.
type Authenticator struct {
	config    *oauth2.Config
	tokenPath string
	prompt    io.Writer
	log       *slog.Logger
}

// NewAuthenticator returns an Authenticator for an Azure tenant and app.
// Device code sign-in instructions are written to prompt.
func NewAuthenticator(tenantID, clientID, tokenPath string, prompt io.Writer) *Authenticator {
	endpoint := loginBaseURL + "/" + tenantID + "/oauth2/v2.0/"
	return &Authenticator{
		config: &oauth2.Config{
			ClientID: clientID,
			Scopes:   calendarScopes,
			Endpoint: oauth2.Endpoint{
				DeviceAuthURL: endpoint + "devicecode",
				TokenURL:      endpoint + "token",
				AuthStyle:     oauth2.AuthStyleInParams,
			},
		},
		tokenPath: tokenPath,
		prompt:    prompt,
		log:       slog.Default(),
	}
}

// Token returns a usable token: the cached one while it is valid, a
// refreshed one when it has expired, otherwise a new one from the device
// code flow. New and refreshed tokens are cached.
func (a *Authenticator) Token(ctx context.Context) (*oauth2.Token, error) {
	cached, err := loadToken(a.tokenPath)
	if err != nil {
		a.log.Warn("ignoring unreadable token cache", "path", a.tokenPath, "error", err)
	}
	if cached.Valid() {
		return cached, nil
	}

	if cached != nil && cached.RefreshToken != "" {
		tok, err := a.config.TokenSource(ctx, cached).Token()
		if err == nil {
			a.cache(tok)
			return tok, nil
		}
		a.log.Warn("token refresh failed, signing in again", "error", err)
	}

	tok, err := a.signIn(ctx)
	if err != nil {
		return nil, err
	}
	a.cache(tok)
	return tok, nil
}

func (a *Authenticator) signIn(ctx context.Context) (*oauth2.Token, error) {
	resp, err := a.config.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("device auth request failed: %w", err)
	}

	fmt.Fprintln(a.prompt)
	fmt.Fprintln(a.prompt, "To sign in, use a web browser to open the page:")
	fmt.Fprintf(a.prompt, "  %s\n", resp.VerificationURI)
	fmt.Fprintf(a.prompt, "Enter the code: %s\n", resp.UserCode)
	fmt.Fprintln(a.prompt)

	tok, err := a.config.DeviceAccessToken(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("device authentication failed: %w", err)
	}
	return tok, nil
}

func (a *Authenticator) cache(tok *oauth2.Token) {
	if err := saveToken(a.tokenPath, tok); err != nil {
		a.log.Warn("could not cache token", "path", a.tokenPath, "error", err)
	}
}

// HTTPClient returns a client that authorises requests with tok. When tok
// expires it is refreshed and the new token is cached.
func (a *Authenticator) HTTPClient(ctx context.Context, tok *oauth2.Token) *http.Client {
	refreshing := &cachingTokenSource{src: a.config.TokenSource(ctx, tok), auth: a}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, refreshing))
}

// cachingTokenSource is only consulted when the reused token is no longer
// valid, so every token it returns is a fresh one worth caching.
type cachingTokenSource struct {
	src  oauth2.TokenSource
	auth *Authenticator
}

func (s *cachingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	s.auth.cache(tok)
	return tok, nil
}

// loadToken reads the cached token. A missing file yields nil and no error.
func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("corrupt token file (delete %s to re-authenticate): %w", path, err)
	}
	return &tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling token: %w", err)
	}
	return storage.WriteAtomic(path, data)
}
