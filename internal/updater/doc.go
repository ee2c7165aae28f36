// Package updater implements `cza update`. It looks up releases on GitHub,
// downloads the archive for the running platform, checks it against the
// release's checksums.txt, sanity-checks the extracted binary, and swaps it
// over the running executable. A cached version check powers the "update
// available" banner.
package updater
