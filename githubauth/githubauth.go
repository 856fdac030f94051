/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package githubauth resolves the credentials the agent uses against GitHub.
//
// A personal or workflow token (GITHUB_TOKEN) wins when present. Otherwise a
// GitHub App installation token is minted from the app id, installation id
// and private key file.
package githubauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v75/github"
	"github.com/sethvargo/go-envconfig"
	"golang.org/x/oauth2"
)

// ErrNoCredentials is returned when neither a token nor a complete set of
// GitHub App credentials is configured.
var ErrNoCredentials = errors.New("no GitHub authentication available: set GITHUB_TOKEN or GitHub App credentials")

const publicAPI = "https://api.github.com"

// Options are the credential sources. The env tags name the variables read
// by FromEnv.
type Options struct {
	Token          string `env:"GITHUB_TOKEN"`
	AppID          string `env:"GITHUB_APP_ID"`
	InstallationID string `env:"GITHUB_APP_INSTALLATION_ID"`
	// PrivateKey is the path of the app's PEM encoded private key.
	PrivateKey string `env:"GITHUB_APP_PRIVATE_KEY"`

	// BaseURL is the API root used to mint installation tokens. Defaults to
	// https://api.github.com.
	BaseURL string `env:"GITHUB_API_URL"`
	// Transport carries the token exchange. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// FromEnv reads Options from the environment.
func FromEnv(ctx context.Context) (Options, error) {
	return fromLookuper(ctx, envconfig.OsLookuper())
}

func fromLookuper(ctx context.Context, l envconfig.Lookuper) (Options, error) {
	var o Options
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &o, Lookuper: l}); err != nil {
		return Options{}, fmt.Errorf("reading GitHub credentials: %w", err)
	}
	return o, nil
}

// Override returns o with the non-empty app settings of flags applied.
// The token is not overridable: an environment token always wins.
func (o Options) Override(flags Options) Options {
	if flags.AppID != "" {
		o.AppID = flags.AppID
	}
	if flags.InstallationID != "" {
		o.InstallationID = flags.InstallationID
	}
	if flags.PrivateKey != "" {
		o.PrivateKey = flags.PrivateKey
	}
	return o
}

func (o Options) hasApp() bool {
	return o.AppID != "" && o.InstallationID != "" && o.PrivateKey != ""
}

// TokenSource returns a source of access tokens for o. App installation
// tokens are refreshed shortly before they expire.
func TokenSource(ctx context.Context, o Options) (oauth2.TokenSource, error) {
	if o.Token != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: o.Token}), nil
	}
	if !o.hasApp() {
		return nil, ErrNoCredentials
	}

	appID, err := strconv.ParseInt(o.AppID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing GitHub App id %q: %w", o.AppID, err)
	}
	installationID, err := strconv.ParseInt(o.InstallationID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing GitHub App installation id %q: %w", o.InstallationID, err)
	}

	rt := o.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	tr, err := ghinstallation.NewKeyFromFile(rt, appID, installationID, o.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("loading GitHub App key: %w", err)
	}
	if o.BaseURL != "" {
		tr.BaseURL = o.BaseURL
	}

	clog.FromContext(ctx).With("app_id", appID).With("installation_id", installationID).
		Info("Using GitHub App installation credentials")
	return &installationTokenSource{ctx: ctx, tr: tr}, nil
}

type installationTokenSource struct {
	ctx context.Context
	tr  *ghinstallation.Transport
}

func (s *installationTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.tr.Token(s.ctx)
	if err != nil {
		return nil, fmt.Errorf("minting installation token: %w", err)
	}
	t := &oauth2.Token{AccessToken: tok, TokenType: "token"}
	if _, refreshAt, err := s.tr.Expiry(); err == nil {
		// Report the refresh time so callers reusing the token ask again in time.
		t.Expiry = refreshAt
	} else {
		t.Expiry = time.Now().Add(time.Minute)
	}
	return t, nil
}

// Resolve returns a single access token for o.
func Resolve(ctx context.Context, o Options) (string, error) {
	ts, err := TokenSource(ctx, o)
	if err != nil {
		return "", err
	}
	tok, err := ts.Token()
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// NewClient returns a GitHub REST client authenticating with ts.
func NewClient(ctx context.Context, ts oauth2.TokenSource) *github.Client {
	return github.NewClient(oauth2.NewClient(ctx, ts))
}

// ClientFor returns a client authenticating with ts against o.BaseURL, which
// may point at a GitHub Enterprise Server.
func ClientFor(ctx context.Context, o Options, ts oauth2.TokenSource) (*github.Client, error) {
	gh := NewClient(ctx, ts)
	if o.BaseURL == "" || strings.TrimRight(o.BaseURL, "/") == publicAPI {
		return gh, nil
	}
	gh, err := gh.WithEnterpriseURLs(o.BaseURL, o.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("configuring GitHub API %q: %w", o.BaseURL, err)
	}
	return gh, nil
}
