// Package metadata embeds a signed provenance block in generated documents
// so downstream stages can verify a paper was produced by the pipeline and
// has not been edited since.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// TagStart is the start of the metadata block.
	TagStart = "<!-- METADATA_START"
	// TagEnd is the end of the metadata block.
	TagEnd = "METADATA_END -->"

	// Generator identifies documents produced by this pipeline.
	Generator = "papermill"
)

// Metadata verification errors.
var (
	ErrNoMetadataBlock = errors.New("no metadata block found")
	ErrNoHashFound     = errors.New("no hash found in metadata")
	ErrHashMismatch    = errors.New("hash mismatch")
)

// Metadata records the provenance of a generated document.
type Metadata struct {
	Generator   string
	Model       string
	GeneratedAt time.Time
	Validation  bool
	Hash        string
}

// metadataRegex matches the entire metadata block including tags.
var metadataRegex = regexp.MustCompile(`(?s)<!--\s*METADATA_START\s*\n(.*?)\n\s*METADATA_END\s*-->`)

// Extract removes the metadata block from content and returns both the
// metadata and the cleaned content. The cleaned content is what gets hashed.
func Extract(content string) (*Metadata, string) {
	match := metadataRegex.FindStringSubmatch(content)
	cleanContent := metadataRegex.ReplaceAllString(content, "")
	cleanContent = strings.TrimRight(cleanContent, "\n")

	if len(match) < 2 {
		return nil, cleanContent
	}

	meta := &Metadata{}

	lines := strings.SplitSeq(match[1], "\n")
	for line := range lines {
		parts := strings.SplitN(strings.TrimSpace(line), ":", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])

		switch key {
		case "GENERATOR":
			meta.Generator = val
		case "MODEL":
			meta.Model = val
		case "GENERATED_AT":
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				meta.GeneratedAt = t
			}
		case "VALIDATION":
			meta.Validation = strings.EqualFold(val, "TRUE")
		case "HASH":
			meta.Hash = val
		}
	}

	return meta, cleanContent
}

// CalculateHash computes the SHA-256 hash of the content excluding any
// metadata block.
func CalculateHash(content string) string {
	_, clean := Extract(content)
	hash := sha256.Sum256([]byte(clean))

	return hex.EncodeToString(hash[:])
}

// Sign appends or replaces the metadata block with a fresh hash and
// timestamp. Model may be empty when re-signing after formatting.
func Sign(content, model string, validated bool) string {
	prev, clean := Extract(content)

	if model == "" && prev != nil {
		model = prev.Model
	}

	hash := CalculateHash(clean)
	now := time.Now().UTC().Format(time.RFC3339)

	valStr := "FALSE"
	if validated {
		valStr = "TRUE"
	}

	newBlock := fmt.Sprintf(
		"\n\n%s\nGENERATOR: %s\nMODEL: %s\nGENERATED_AT: %s\nVALIDATION: %s\nHASH: %s\n%s",
		TagStart, Generator, model, now, valStr, hash, TagEnd,
	)

	return clean + newBlock
}

// Verify checks if the content matches the hash in its metadata.
func Verify(content string) (bool, error) {
	meta, clean := Extract(content)
	if meta == nil {
		return false, ErrNoMetadataBlock
	}

	if meta.Hash == "" {
		return false, ErrNoHashFound
	}

	calculated := CalculateHash(clean)
	if calculated != meta.Hash {
		return false, fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, meta.Hash, calculated)
	}

	return true, nil
}
