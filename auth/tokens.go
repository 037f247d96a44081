package auth

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v74/github"
	"github.com/jferrl/go-githubauth"
	"golang.org/x/oauth2"

	"github.com/github-tools/github-org-stats/config"
)

// refreshMargin is how long before expiry a cached installation token
// is considered stale.
const refreshMargin = 5 * time.Minute

// appsAPI is the slice of the GitHub Apps API the manager needs.
// *github.AppsService satisfies it; tests substitute a fake.
type appsAPI interface {
	CreateInstallationToken(ctx context.Context, id int64, opts *github.InstallationTokenOptions) (*github.InstallationToken, *github.Response, error)
	ListInstallations(ctx context.Context, opts *github.ListOptions) ([]*github.Installation, *github.Response, error)
}

type cachedToken struct {
	token     string
	expiresAt time.Time
}

// TokenManager exchanges App credentials for per-installation access
// tokens and caches each until near expiry. The signed App assertion
// itself is minted and refreshed by the githubauth token source.
type TokenManager struct {
	appID  int64
	apps   appsAPI
	tokens map[int64]cachedToken
	now    func() time.Time
}

// NewTokenManager builds a manager from App credentials. The underlying
// JWT assertion source signs RS256 claims with the private key and
// reuses each assertion until shortly before its ten-minute expiry.
func NewTokenManager(ctx context.Context, appID int64, privateKey []byte) (*TokenManager, error) {
	appSrc, err := githubauth.NewApplicationTokenSource(strconv.FormatInt(appID, 10), privateKey)
	if err != nil {
		return nil, fmt.Errorf("application token source: %w", err)
	}
	appClient := github.NewClient(oauth2.NewClient(ctx, appSrc))
	return &TokenManager{
		appID:  appID,
		apps:   appClient.Apps,
		tokens: make(map[int64]cachedToken),
		now:    time.Now,
	}, nil
}

// InstallationToken returns an access token for the installation,
// reusing the cached one while it has more than five minutes left.
// Transport and non-2xx failures propagate; retry policy belongs to the
// caller's wrapper, not this layer.
func (m *TokenManager) InstallationToken(ctx context.Context, installationID int64) (string, error) {
	if cached, ok := m.tokens[installationID]; ok {
		if m.now().Before(cached.expiresAt.Add(-refreshMargin)) {
			return cached.token, nil
		}
	}

	tok, _, err := m.apps.CreateInstallationToken(ctx, installationID, &github.InstallationTokenOptions{})
	if err != nil {
		return "", fmt.Errorf("create installation token for %d: %w", installationID, err)
	}

	m.tokens[installationID] = cachedToken{
		token:     tok.GetToken(),
		expiresAt: tok.GetExpiresAt().Time,
	}
	return tok.GetToken(), nil
}

// ResolveInstallation finds the installation ID for an organization:
// an explicit mapping wins, then the "default" entry, then a scan of
// the App's installations matching the account login case-insensitively.
func (m *TokenManager) ResolveInstallation(ctx context.Context, org string, explicit map[string]int64) (int64, error) {
	if explicit != nil {
		if id, ok := explicit[org]; ok {
			return id, nil
		}
		if id, ok := explicit[config.DefaultInstallationKey]; ok {
			return id, nil
		}
	}

	opts := &github.ListOptions{PerPage: 100}
	for {
		installations, resp, err := m.apps.ListInstallations(ctx, opts)
		if err != nil {
			return 0, fmt.Errorf("list installations: %w", err)
		}
		for _, inst := range installations {
			if strings.EqualFold(inst.GetAccount().GetLogin(), org) {
				return inst.GetID(), nil
			}
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return 0, fmt.Errorf("no GitHub App installation found for organization: %s", org)
}
