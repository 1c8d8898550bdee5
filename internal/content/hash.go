package content

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Manifest is a deterministic summary of a content set, used to detect
// whether anything feeding the build has changed.
type Manifest struct {
	Files []ManifestEntry `json:"files"`
	Hash  string          `json:"hash"`
}

// ManifestEntry records one content file and its content hash.
type ManifestEntry struct {
	Path        string `json:"path"`
	Section     string `json:"section,omitempty"`
	ContentHash string `json:"content_hash"`
}

// HashBytes returns the hex SHA-256 of data.
func HashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ComputeHash computes a deterministic hash for a content set. Entries are
// sorted by path, so the hash is independent of discovery order.
func (s *Set) ComputeHash() (string, error) {
	if len(s.Posts) == 0 && len(s.Assets) == 0 {
		h := sha256.Sum256([]byte("empty-content-set"))
		return hex.EncodeToString(h[:]), nil
	}

	entries := make([]ManifestEntry, 0, len(s.Posts)+len(s.Assets))
	for _, p := range s.Posts {
		entries = append(entries, ManifestEntry{
			Path:        p.SourcePath,
			Section:     p.Section,
			ContentHash: p.SourceHash,
		})
	}
	for _, a := range s.Assets {
		data, err := os.ReadFile(a.SourcePath)
		if err != nil {
			return "", fmt.Errorf("hash asset %s: %w", a.RelPath, err)
		}
		entries = append(entries, ManifestEntry{
			Path:        a.RelPath,
			ContentHash: HashBytes(data),
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	h := sha256.New()
	for _, e := range entries {
		fmt.Fprintf(h, "%s|%s|%s\n", e.Path, e.Section, e.ContentHash)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CreateManifest builds the full manifest including the set hash.
func (s *Set) CreateManifest() (*Manifest, error) {
	hash, err := s.ComputeHash()
	if err != nil {
		return nil, err
	}

	entries := make([]ManifestEntry, 0, len(s.Posts))
	for _, p := range s.Posts {
		entries = append(entries, ManifestEntry{
			Path:        p.SourcePath,
			Section:     p.Section,
			ContentHash: p.SourceHash,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	return &Manifest{Files: entries, Hash: hash}, nil
}

// ToJSON serializes the manifest.
func (m *Manifest) ToJSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// ComputeSignature combines the content hash with a hash of the effective
// configuration. Two builds with identical signatures produce identical
// output and may be skipped.
func ComputeSignature(contentHash string, cfg any) (string, error) {
	cfgData, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config for signature: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(contentHash))
	h.Write([]byte("|"))
	h.Write(cfgData)
	return hex.EncodeToString(h.Sum(nil)), nil
}
