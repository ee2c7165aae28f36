package updater

import (
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/go-github/v59/github"
)

// Release is the subset of a GitHub release the updater needs.
type Release struct {
	Version   string
	Assets    []Asset
	Published time.Time
	HTMLURL   string
}

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name        string
	DownloadURL string
	Size        int64
}

// Manifest describes one update attempt. It lives only for the duration of
// a single Update call.
type Manifest struct {
	CurrentVersion string `json:"current_version"`
	LatestVersion  string `json:"latest_version"`
	AssetName      string `json:"asset_name,omitempty"`
	DownloadURL    string `json:"download_url,omitempty"`
	Checksum       string `json:"checksum,omitempty"`
}

// Updater provides self-update functionality.
type Updater struct {
	currentVersion string
	httpClient     *http.Client
	gh             *github.Client
	mirror         string
	progress       io.Writer
	swapper        Swapper
	verify         VerifyFunc
	onState        func(State)
}

// Option configures an Updater.
type Option func(*Updater)

// WithHTTPClient sets the client used for the GitHub API and downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(u *Updater) {
		u.httpClient = c
	}
}

// WithAPIBaseURL points the GitHub client at another API root.
func WithAPIBaseURL(base string) Option {
	return func(u *Updater) {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		if parsed, err := url.Parse(base); err == nil {
			u.gh.BaseURL = parsed
		}
	}
}

// WithMirror rewrites asset download URLs to <mirror>/<asset name>.
func WithMirror(mirror string) Option {
	return func(u *Updater) {
		u.mirror = mirror
	}
}

// WithProgress sets where download progress is printed. Nil disables it.
func WithProgress(w io.Writer) Option {
	return func(u *Updater) {
		u.progress = w
	}
}

// WithSwapper replaces the executable swap.
func WithSwapper(s Swapper) Option {
	return func(u *Updater) {
		u.swapper = s
	}
}

// WithVerifier replaces the sanity check run on the extracted binary.
func WithVerifier(v VerifyFunc) Option {
	return func(u *Updater) {
		u.verify = v
	}
}

// WithStateHook is called on every state transition.
func WithStateHook(fn func(State)) Option {
	return func(u *Updater) {
		u.onState = fn
	}
}

// New creates an Updater for currentVersion. GITHUB_TOKEN, when set, is used
// for API requests.
func New(currentVersion string, opts ...Option) *Updater {
	u := &Updater{
		currentVersion: currentVersion,
		httpClient:     http.DefaultClient,
		progress:       os.Stderr,
		verify:         VerifyBinary,
	}
	u.gh = newGitHubClient(u.httpClient)
	for _, opt := range opts {
		// The GitHub client follows the HTTP client.
		before := u.httpClient
		opt(u)
		if u.httpClient != before {
			base := u.gh.BaseURL
			u.gh = newGitHubClient(u.httpClient)
			u.gh.BaseURL = base
		}
	}
	return u
}

// CurrentVersion returns the version this updater was created with.
func (u *Updater) CurrentVersion() string {
	return u.currentVersion
}

func newGitHubClient(hc *http.Client) *github.Client {
	client := github.NewClient(hc)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		client = client.WithAuthToken(token)
	}
	return client
}
