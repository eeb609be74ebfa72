// ABOUTME: pkpass bundle assembly - manifest, signature, and zip packaging
// ABOUTME: A pkpass is a zip of pass.json plus a SHA-1 manifest and its detached signature

package apple

import (
	"archive/zip"
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// buildArchive packages pass.json and any extra assets into a signed
// pkpass zip: every file is listed in manifest.json with its SHA-1
// digest, and the manifest carries a detached CMS signature.
func buildArchive(signer *Signer, passJSON []byte, assets map[string][]byte) ([]byte, error) {
	files := map[string][]byte{"pass.json": passJSON}
	for name, data := range assets {
		files[name] = data
	}

	manifest := make(map[string]string, len(files))
	for name, data := range files {
		sum := sha1.Sum(data)
		manifest[name] = hex.EncodeToString(sum[:])
	}
	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}

	signature, err := signer.Sign(manifestJSON)
	if err != nil {
		return nil, err
	}

	files["manifest.json"] = manifestJSON
	files["signature"] = signature

	// Deterministic entry order
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("creating zip entry %s: %w", name, err)
		}
		if _, err := w.Write(files[name]); err != nil {
			return nil, fmt.Errorf("writing zip entry %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	return buf.Bytes(), nil
}
