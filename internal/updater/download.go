package updater

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	errUtils "github.com/sripwoud/cza/errors"
	"github.com/sripwoud/cza/internal/branding"
)

func (u *Updater) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "creating request for %s", rawURL)
	}
	req.Header.Set("User-Agent", branding.CLIName()+"-updater")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errUtils.ErrUpdateNetwork, "GET %s: %v", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Wrapf(errUtils.ErrUpdateNetwork, "GET %s returned status %d", rawURL, resp.StatusCode)
	}
	return resp, nil
}

// DownloadAsset downloads asset into destDir and returns the file path.
func (u *Updater) DownloadAsset(ctx context.Context, asset *Asset, destDir string) (string, error) {
	resp, err := u.get(ctx, asset.DownloadURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	destPath := filepath.Join(destDir, asset.Name)
	f, err := os.Create(destPath)
	if err != nil {
		return "", errors.Wrap(err, "creating download file")
	}
	defer f.Close()

	total := resp.ContentLength
	var downloaded int64
	lastPercent := -1

	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := f.Write(buf[:n]); writeErr != nil {
				return "", errors.Wrap(writeErr, "writing download")
			}
			downloaded += int64(n)
			if total > 0 && u.progress != nil {
				percent := int(downloaded * 100 / total)
				if percent != lastPercent {
					fmt.Fprintf(u.progress, "\rDownloading... %d%%", percent)
					lastPercent = percent
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", errors.Wrapf(errUtils.ErrUpdateNetwork, "reading download stream: %v", readErr)
		}
	}
	if total > 0 && u.progress != nil {
		fmt.Fprintln(u.progress)
	}

	return destPath, nil
}

// FetchChecksum returns the expected sha256 of assetName from the release's
// checksums.txt.
func (u *Updater) FetchChecksum(ctx context.Context, release *Release, assetName string) (string, error) {
	var checksumAsset *Asset
	for i := range release.Assets {
		if release.Assets[i].Name == checksumsAsset {
			checksumAsset = &release.Assets[i]
			break
		}
	}
	if checksumAsset == nil {
		return "", errors.Wrapf(errUtils.ErrChecksumMismatch, "%s not found in release %s", checksumsAsset, release.Version)
	}

	resp, err := u.get(ctx, checksumAsset.DownloadURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrapf(errUtils.ErrUpdateNetwork, "reading checksums: %v", err)
	}

	sum := parseChecksums(string(body))[assetName]
	if sum == "" {
		return "", errors.Wrapf(errUtils.ErrChecksumMismatch, "no checksum for %s in %s", assetName, checksumsAsset)
	}
	return sum, nil
}

// parseChecksums reads "sha256  filename" lines.
func parseChecksums(body string) map[string]string {
	sums := make(map[string]string)
	for _, line := range strings.Split(body, "\n") {
		parts := strings.Fields(line)
		if len(parts) == 2 {
			sums[strings.TrimPrefix(parts[1], "*")] = strings.ToLower(parts[0])
		}
	}
	return sums
}

// VerifyChecksum compares the sha256 of path with expected. On mismatch the
// file is removed.
func VerifyChecksum(path, expected string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening archive for checksum")
	}

	h := sha256.New()
	_, err = io.Copy(h, f)
	f.Close()
	if err != nil {
		return errors.Wrap(err, "computing checksum")
	}

	actual := hex.EncodeToString(h.Sum(nil))
	if actual != strings.ToLower(expected) {
		if rmErr := os.Remove(path); rmErr != nil {
			log.Debug("Failed to remove artifact", "path", path, "error", rmErr)
		}
		return errors.Wrapf(errUtils.ErrChecksumMismatch, "%s: expected %s, got %s", filepath.Base(path), expected, actual)
	}
	return nil
}

// ExtractBinary extracts the cza binary from a tar.gz or zip archive.
// Returns the path to the extracted binary.
func ExtractBinary(archivePath, destDir string) (string, error) {
	if strings.HasSuffix(archivePath, ".zip") {
		return extractFromZip(archivePath, destDir)
	}
	return extractFromTarGz(archivePath, destDir)
}

func isBinaryEntry(name string) bool {
	return filepath.Base(name) == BinaryName()
}

func writeBinary(destDir, name string, r io.Reader) (string, error) {
	destPath := filepath.Join(destDir, filepath.Base(name))
	out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return "", errors.Wrap(err, "creating binary file")
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return "", errors.Wrap(err, "extracting binary")
	}
	if err := out.Close(); err != nil {
		return "", errors.Wrap(err, "closing binary file")
	}
	return destPath, nil
}

func extractFromTarGz(archivePath, destDir string) (string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return "", errors.Wrap(err, "opening archive")
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", errors.Wrap(err, "creating gzip reader")
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.Wrap(err, "reading tar entry")
		}
		if hdr.Typeflag == tar.TypeReg && isBinaryEntry(hdr.Name) {
			return writeBinary(destDir, hdr.Name, tr)
		}
	}

	return "", errors.Newf("%s binary not found in archive", branding.CLIName())
}

func extractFromZip(archivePath, destDir string) (string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", errors.Wrap(err, "opening zip archive")
	}
	defer r.Close()

	for _, f := range r.File {
		if !isBinaryEntry(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", errors.Wrap(err, "opening zip entry")
		}
		path, err := writeBinary(destDir, f.Name, rc)
		rc.Close()
		return path, err
	}

	return "", errors.Newf("%s binary not found in zip archive", branding.CLIName())
}
