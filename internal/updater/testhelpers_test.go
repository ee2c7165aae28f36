package updater

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// createTestTarGz creates a tar.gz archive containing a fake binary under
// the platform's binary name.
func createTestTarGz(t *testing.T, binaryContent []byte) []byte {
	t.Helper()
	return createTarGzEntry(t, BinaryName(), binaryContent)
}

func createTarGzEntry(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	hdr := &tar.Header{
		Name:     name,
		Mode:     0o755,
		Size:     int64(len(content)),
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatal(err)
	}
	tw.Close()
	gw.Close()
	return buf.Bytes()
}

func sha256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// fakeGitHub serves a release API and its assets.
type fakeGitHub struct {
	*httptest.Server
	tag          string
	archive      []byte
	checksums    string
	archiveCode  int
	archiveCalls int
}

func newFakeGitHub(t *testing.T, tag string, archive []byte) *fakeGitHub {
	t.Helper()
	f := &fakeGitHub{
		tag:         tag,
		archive:     archive,
		archiveCode: http.StatusOK,
	}
	f.checksums = fmt.Sprintf("%s  %s\n", sha256Hex(archive), ArchiveName())

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/sripwoud/cza/releases/latest", f.release)
	mux.HandleFunc("/repos/sripwoud/cza/releases/tags/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/sripwoud/cza/releases/tags/"+f.tag {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		f.release(w, r)
	})
	mux.HandleFunc("/dl/checksums.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(f.checksums))
	})
	mux.HandleFunc("/dl/"+ArchiveName(), func(w http.ResponseWriter, r *http.Request) {
		f.archiveCalls++
		if f.archiveCode != http.StatusOK {
			w.WriteHeader(f.archiveCode)
			return
		}
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(f.archive)))
		w.Write(f.archive)
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeGitHub) release(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"tag_name": f.tag,
		"html_url": f.URL + "/releases/" + f.tag,
		"assets": []map[string]any{
			{"name": ArchiveName(), "browser_download_url": f.URL + "/dl/" + ArchiveName(), "size": len(f.archive)},
			{"name": "checksums.txt", "browser_download_url": f.URL + "/dl/checksums.txt"},
		},
	})
}

func (f *fakeGitHub) updater(version string, opts ...Option) *Updater {
	base := []Option{
		WithHTTPClient(f.Client()),
		WithAPIBaseURL(f.URL),
		WithProgress(nil),
		WithVerifier(func(context.Context, string, string) error { return nil }),
	}
	return New(version, append(base, opts...)...)
}

type recordingSwapper struct {
	calls int
	err   error
}

func (s *recordingSwapper) ReplaceExecutable(string) error {
	s.calls++
	return s.err
}
