// Package catalog implements a versioned dataset registry with lineage
// tracking and hash-based validation, persisted as a YAML source catalog.
//
// Each registered dataset is keyed by its version name, the logical name
// joined with the version string by an underscore. An entry records where
// the data lives, a content digest, and references to the upstream datasets
// it was derived from. Validation recomputes trust bottom-up over the whole
// entry set.
package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/paveg/marmoset/internal/errors"
)

var (
	nameChars    = regexp.MustCompile(`^[0-9A-Za-z_-]+$`)
	versionChars = regexp.MustCompile(`^[0-9A-Za-z.-]+$`)
)

// UpstreamRef is a lineage reference to another catalog entry, pinned to
// the content digest observed at registration time. The wire key "md5hash"
// is kept for compatibility with existing catalog files.
type UpstreamRef struct {
	VersionName string `yaml:"version_name"`
	ContentHash string `yaml:"md5hash"`
}

// Dataset is a registered dataset version with its resolved lineage.
type Dataset struct {
	Name        string
	Version     string
	ContentHash string
	URLPath     string
	Upstream    []*Dataset
}

// VersionName joins a dataset name and version into the catalog key.
func VersionName(name, version string) string {
	return name + "_" + version
}

// SplitVersionName splits a catalog key back into name and version on the
// last underscore. Names may contain underscores; versions may not.
func SplitVersionName(versionName string) (name, version string, err error) {
	i := strings.LastIndex(versionName, "_")
	if i < 0 {
		return "", "", errors.NewInvalidInput("SplitVersionName",
			fmt.Sprintf("invalid version name %q", versionName))
	}
	return versionName[:i], versionName[i+1:], nil
}

// NewDataset validates the name and version and builds a dataset entry.
// The content hash may be empty at registration time and filled in later
// with SetContentHash once the producing computation finishes.
func NewDataset(name, version, urlpath, contentHash string, upstream ...*Dataset) (*Dataset, error) {
	if !nameChars.MatchString(name) {
		return nil, errors.NewInvalidInput("NewDataset",
			fmt.Sprintf("invalid dataset name %q: allowed characters are [0-9a-zA-Z-_]", name))
	}
	if !versionChars.MatchString(version) {
		return nil, errors.NewInvalidInput("NewDataset",
			fmt.Sprintf("invalid dataset version %q: allowed characters are [0-9a-zA-Z-.]", version))
	}
	return &Dataset{
		Name:        name,
		Version:     version,
		ContentHash: contentHash,
		URLPath:     urlpath,
		Upstream:    upstream,
	}, nil
}

// VersionName returns the catalog key for this dataset.
func (d *Dataset) VersionName() string {
	return VersionName(d.Name, d.Version)
}

// SetContentHash fills in the content digest after the upstream computation
// finishes. It may only be called while the hash is still unset.
func (d *Dataset) SetContentHash(hash string) error {
	if d.ContentHash != "" {
		return errors.NewValidation("SetContentHash", d.VersionName(),
			"content hash already set")
	}
	d.ContentHash = hash
	return nil
}

// UpstreamRefs returns the pinned lineage references for this dataset.
func (d *Dataset) UpstreamRefs() []UpstreamRef {
	refs := make([]UpstreamRef, 0, len(d.Upstream))
	for _, up := range d.Upstream {
		refs = append(refs, UpstreamRef{VersionName: up.VersionName(), ContentHash: up.ContentHash})
	}
	return refs
}

// Equal reports whether two datasets carry the same identity, digest and
// lineage.
func (d *Dataset) Equal(other *Dataset) bool {
	if d == nil || other == nil {
		return d == other
	}
	if d.Name != other.Name || d.Version != other.Version || d.ContentHash != other.ContentHash {
		return false
	}
	if len(d.Upstream) != len(other.Upstream) {
		return false
	}
	for i := range d.Upstream {
		if !d.Upstream[i].Equal(other.Upstream[i]) {
			return false
		}
	}
	return true
}
