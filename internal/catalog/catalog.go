package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/paveg/marmoset/internal/config"
	"github.com/paveg/marmoset/internal/errors"
)

// sourceArgs holds the data location of a catalog source.
type sourceArgs struct {
	URLPath string `yaml:"urlpath"`
}

// sourceMetadata carries the lineage extension fields of a source record.
type sourceMetadata struct {
	Extension   string        `yaml:"extension,omitempty"`
	Name        string        `yaml:"name,omitempty"`
	Version     string        `yaml:"version,omitempty"`
	VersionName string        `yaml:"version_name,omitempty"`
	ContentHash string        `yaml:"md5hash,omitempty"`
	Upstream    []UpstreamRef `yaml:"upstream"`
}

// sourceRecord is one source in the persisted catalog file.
type sourceRecord struct {
	Driver      string         `yaml:"driver"`
	Description string         `yaml:"description"`
	Args        sourceArgs     `yaml:"args"`
	Metadata    sourceMetadata `yaml:"metadata"`
}

const parquetDriver = "parquet"

// Catalog is the in-memory view of a persisted source catalog. Entries keep
// the order they appear in the file. No locking is done around the file;
// concurrent writers are a single-writer assumption, not a contract.
type Catalog struct {
	path    string
	tag     string
	keys    []string
	entries map[string]*sourceRecord
}

// Open loads the catalog at path, creating an empty catalog file when none
// exists. An empty tag falls back to the configured extension tag.
func Open(path, tag string) (*Catalog, error) {
	if tag == "" {
		tag = config.Global().ExtensionTag
	}
	c := &Catalog{path: path, tag: tag}
	if err := c.reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Path returns the catalog file path.
func (c *Catalog) Path() string {
	return c.path
}

// Keys returns the catalog keys in file order.
func (c *Catalog) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Len returns the number of entries in the catalog.
func (c *Catalog) Len() int {
	return len(c.keys)
}

// reload replaces the in-memory view with the file contents, creating an
// empty catalog file first when the file is missing.
func (c *Catalog) reload() error {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		if err := c.writeFile(nil, nil); err != nil {
			return err
		}
		data, err = os.ReadFile(c.path)
	}
	if err != nil {
		return fmt.Errorf("reading catalog file %s: %w", c.path, err)
	}

	var doc struct {
		Sources yaml.Node `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing catalog file %s: %w", c.path, err)
	}

	keys := make([]string, 0)
	entries := make(map[string]*sourceRecord)
	if doc.Sources.Kind == yaml.MappingNode {
		// Mapping node content alternates key, value.
		for i := 0; i+1 < len(doc.Sources.Content); i += 2 {
			key := doc.Sources.Content[i].Value
			record := &sourceRecord{}
			if err := doc.Sources.Content[i+1].Decode(record); err != nil {
				return fmt.Errorf("parsing catalog source %q: %w", key, err)
			}
			if _, seen := entries[key]; !seen {
				keys = append(keys, key)
			}
			entries[key] = record
		}
	}
	c.keys = keys
	c.entries = entries
	return nil
}

// writeFile serializes the catalog file with the given keys and records,
// preserving key order.
func (c *Catalog) writeFile(keys []string, entries map[string]*sourceRecord) error {
	sources := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(entries[key]); err != nil {
			return fmt.Errorf("encoding catalog source %q: %w", key, err)
		}
		sources.Content = append(sources.Content, keyNode, valueNode)
	}

	doc := struct {
		Metadata map[string]string `yaml:"metadata"`
		Sources  *yaml.Node        `yaml:"sources"`
	}{
		Metadata: map[string]string{},
		Sources:  sources,
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("writing catalog file %s: %w", c.path, err)
	}
	return nil
}

// FindByVersionName resolves an entry by exact catalog key, recursively
// resolving its upstream lineage with hash checks.
func (c *Catalog) FindByVersionName(versionName string) (*Dataset, error) {
	record, ok := c.entries[versionName]
	if !ok {
		return nil, errors.NewNotFound("FindByVersionName", versionName)
	}
	if record.Metadata.Extension != c.tag {
		return nil, errors.NewValidation("FindByVersionName", versionName,
			fmt.Sprintf("source is not tagged %q", c.tag))
	}
	name, version, err := SplitVersionName(versionName)
	if err != nil {
		return nil, err
	}
	if version != record.Metadata.Version {
		return nil, errors.NewValidation("FindByVersionName", versionName,
			fmt.Sprintf("key version %q does not match recorded version %q", version, record.Metadata.Version))
	}

	upstream := make([]*Dataset, 0, len(record.Metadata.Upstream))
	for _, ref := range record.Metadata.Upstream {
		up, err := c.FindValidated(ref.VersionName, ref.ContentHash)
		if err != nil {
			return nil, err
		}
		upstream = append(upstream, up)
	}
	return &Dataset{
		Name:        name,
		Version:     version,
		ContentHash: record.Metadata.ContentHash,
		URLPath:     record.Args.URLPath,
		Upstream:    upstream,
	}, nil
}

// FindByNameAndVersion resolves an entry by name and version.
func (c *Catalog) FindByNameAndVersion(name, version string) (*Dataset, error) {
	return c.FindByVersionName(VersionName(name, version))
}

// FindValidated resolves an entry by key and fails with a hash-mismatch
// error if its current digest differs from the pinned one. Mismatches are
// fatal; nothing is retried.
func (c *Catalog) FindValidated(versionName, contentHash string) (*Dataset, error) {
	found, err := c.FindByVersionName(versionName)
	if err != nil {
		return nil, err
	}
	if found.ContentHash != contentHash {
		return nil, errors.NewHashMismatch("FindValidated", versionName, contentHash, found.ContentHash)
	}
	return found, nil
}

// FindLatestByName resolves the entry with the greatest version for a name.
// Keys sharing the name as a mere prefix ("eventlog" vs "event") do not
// qualify because their full key differs from name joined with their own
// recorded version.
func (c *Catalog) FindLatestByName(name string) (*Dataset, error) {
	var (
		bestKey     string
		bestVersion string
		found       bool
	)
	for key, record := range c.entries {
		if record.Metadata.Extension != c.tag {
			continue
		}
		if key != VersionName(name, record.Metadata.Version) {
			continue
		}
		if !found || CompareVersions(record.Metadata.Version, bestVersion) > 0 {
			bestKey = key
			bestVersion = record.Metadata.Version
			found = true
		}
	}
	if !found {
		return nil, errors.NewNotFound("FindLatestByName", name)
	}
	return c.FindByVersionName(bestKey)
}

// ResolutionKind tags how a catalog key was resolved.
type ResolutionKind int

const (
	// ResolvedNone means the key matched nothing, neither exactly nor as
	// a dataset name.
	ResolvedNone ResolutionKind = iota
	// ResolvedExact means the key matched a catalog entry exactly.
	ResolvedExact
	// ResolvedLatest means the key matched a dataset name and the latest
	// version was taken.
	ResolvedLatest
)

func (k ResolutionKind) String() string {
	switch k {
	case ResolvedExact:
		return "exact"
	case ResolvedLatest:
		return "latest"
	default:
		return "none"
	}
}

// Resolution is the tagged result of a two-step catalog lookup.
type Resolution struct {
	Kind    ResolutionKind
	Dataset *Dataset
}

// Resolve looks a key up first as an exact version name, then as a dataset
// name taking the latest version. A key matching nothing yields a
// ResolvedNone resolution with a nil dataset, not an error; hash or tag
// violations on a matched entry still fail.
func (c *Catalog) Resolve(key string) (Resolution, error) {
	ds, err := c.FindByVersionName(key)
	switch {
	case err == nil:
		return Resolution{Kind: ResolvedExact, Dataset: ds}, nil
	case !errors.IsNotFound(err):
		return Resolution{}, err
	}

	ds, err = c.FindLatestByName(key)
	switch {
	case err == nil:
		return Resolution{Kind: ResolvedLatest, Dataset: ds}, nil
	case errors.IsNotFound(err):
		return Resolution{Kind: ResolvedNone}, nil
	default:
		return Resolution{}, err
	}
}

// Append writes the dataset into the catalog file and reloads the full
// in-memory view from disk. Re-appending an existing key overwrites the
// record in place, so the operation is idempotent under retry.
func (c *Catalog) Append(ds *Dataset) error {
	record := &sourceRecord{
		Driver: parquetDriver,
		Args:   sourceArgs{URLPath: ds.URLPath},
		Metadata: sourceMetadata{
			Extension:   c.tag,
			Name:        ds.Name,
			Version:     ds.Version,
			VersionName: ds.VersionName(),
			ContentHash: ds.ContentHash,
			Upstream:    ds.UpstreamRefs(),
		},
	}

	key := ds.VersionName()
	keys := c.keys
	if _, exists := c.entries[key]; !exists {
		keys = append(append([]string(nil), c.keys...), key)
	}
	entries := make(map[string]*sourceRecord, len(c.entries)+1)
	for k, v := range c.entries {
		entries[k] = v
	}
	entries[key] = record

	if err := c.writeFile(keys, entries); err != nil {
		return err
	}
	return c.reload()
}

// Check is one upstream hash check in a validation report. For the final
// element of an entry's checks, VersionName is the entry itself and OK is
// the entry's overall validity.
type Check struct {
	VersionName string
	OK          bool
}

// Report maps each finished entry to its upstream checks plus a final
// overall check for the entry itself.
type Report map[string][]Check

// EntryOK returns the overall validity flag recorded for an entry, or false
// if the entry is absent from the report.
func (r Report) EntryOK(versionName string) bool {
	checks, ok := r[versionName]
	if !ok || len(checks) == 0 {
		return false
	}
	return checks[len(checks)-1].OK
}

// Validate recomputes trust bottom-up over all extension-tagged entries.
//
// The sweep is a fixed point: an entry is processed once every upstream it
// references has been finished, so leaves go first and invalidity propagates
// downstream. Entries whose upstream never resolves are silently left out
// of the report. Worst case O(n²) scans for a chain of n entries, which is
// fine at the catalog sizes this is meant for.
func (c *Catalog) Validate() (bool, Report) {
	report := make(Report)
	overall := true

	finished := make(map[string]bool, len(c.keys))
	for range c.keys {
		for _, key := range c.keys {
			if finished[key] {
				continue
			}
			record := c.entries[key]
			if record.Metadata.Extension != c.tag {
				continue
			}
			if !allFinished(record.Metadata.Upstream, finished) {
				continue
			}

			checks := make([]Check, 0, len(record.Metadata.Upstream)+1)
			ok := consistentKey(key, &record.Metadata)

			for _, ref := range record.Metadata.Upstream {
				flag := false
				if _, err := c.FindValidated(ref.VersionName, ref.ContentHash); err == nil {
					flag = report.EntryOK(ref.VersionName)
				}
				ok = ok && flag
				checks = append(checks, Check{VersionName: ref.VersionName, OK: flag})
			}

			checks = append(checks, Check{VersionName: key, OK: ok})
			report[key] = checks
			overall = overall && ok
			finished[key] = true
		}
	}
	return overall, report
}

func allFinished(refs []UpstreamRef, finished map[string]bool) bool {
	for _, ref := range refs {
		if !finished[ref.VersionName] {
			return false
		}
	}
	return true
}

// consistentKey checks that an entry's recorded name, version and version
// name agree with its catalog key.
func consistentKey(key string, md *sourceMetadata) bool {
	name, version, err := SplitVersionName(key)
	if err != nil {
		return false
	}
	return md.Name == name && md.Version == version && md.VersionName == key
}
