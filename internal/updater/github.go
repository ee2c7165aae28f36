package updater

import (
	"context"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/go-github/v59/github"

	errUtils "github.com/sripwoud/cza/errors"
	"github.com/sripwoud/cza/internal/branding"
)

// CheckLatestVersion fetches the latest release.
func (u *Updater) CheckLatestVersion(ctx context.Context) (*Release, error) {
	owner, repo := branding.GitHubOwnerRepo()
	rel, resp, err := u.gh.Repositories.GetLatestRelease(ctx, owner, repo)
	if err != nil {
		return nil, releaseError(err, resp, "latest")
	}
	return u.convert(rel), nil
}

// CheckSpecificVersion fetches a release by tag. A missing "v" prefix is
// added.
func (u *Updater) CheckSpecificVersion(ctx context.Context, tag string) (*Release, error) {
	if !strings.HasPrefix(tag, "v") {
		tag = "v" + tag
	}
	owner, repo := branding.GitHubOwnerRepo()
	rel, resp, err := u.gh.Repositories.GetReleaseByTag(ctx, owner, repo, tag)
	if err != nil {
		return nil, releaseError(err, resp, tag)
	}
	return u.convert(rel), nil
}

func (u *Updater) convert(rel *github.RepositoryRelease) *Release {
	r := &Release{
		Version: rel.GetTagName(),
		HTMLURL: rel.GetHTMLURL(),
	}
	if rel.PublishedAt != nil {
		r.Published = rel.PublishedAt.Time
	}
	for _, a := range rel.Assets {
		asset := Asset{
			Name:        a.GetName(),
			DownloadURL: a.GetBrowserDownloadURL(),
			Size:        int64(a.GetSize()),
		}
		// If a mirror is configured, rewrite asset download URLs.
		if u.mirror != "" {
			asset.DownloadURL = strings.TrimRight(u.mirror, "/") + "/" + asset.Name
		}
		r.Assets = append(r.Assets, asset)
	}
	return r
}

func releaseError(err error, resp *github.Response, which string) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return errors.WithHint(
			errors.Wrap(errUtils.ErrUpdateNetwork, "GitHub API rate limit exceeded"),
			"Set GITHUB_TOKEN for higher limits",
		)
	}
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return errors.Wrapf(errUtils.ErrReleaseNotFound, "%s", which)
	}
	return errors.Wrapf(errUtils.ErrUpdateNetwork, "fetching %s release: %v", which, err)
}
