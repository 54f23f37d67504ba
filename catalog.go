package marmoset

import (
	stdio "io"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/marmoset/internal/catalog"
	"github.com/paveg/marmoset/internal/dataframe"
	frameio "github.com/paveg/marmoset/internal/io"
	"github.com/paveg/marmoset/internal/partition"
)

// Dataset identifies one registered dataset version: name, version, the
// directory its partition files live in, a content digest, and the upstream
// datasets it was derived from.
type Dataset = catalog.Dataset

// UpstreamRef is a persisted lineage edge: the upstream's version name and
// the content digest it had when this dataset was produced.
type UpstreamRef = catalog.UpstreamRef

// NewDataset builds a dataset entry. Names accept [0-9A-Za-z_-], versions
// accept [0-9A-Za-z.-]; the version name joins them with an underscore.
func NewDataset(name, version, urlpath, contentHash string, upstream ...*Dataset) (*Dataset, error) {
	return catalog.NewDataset(name, version, urlpath, contentHash, upstream...)
}

// VersionName joins a dataset name and version into its catalog key.
func VersionName(name, version string) string {
	return catalog.VersionName(name, version)
}

// SplitVersionName splits a catalog key back into name and version at the
// last underscore.
func SplitVersionName(versionName string) (name, version string, err error) {
	return catalog.SplitVersionName(versionName)
}

// ResolutionKind says how a catalog key was resolved.
type ResolutionKind = catalog.ResolutionKind

const (
	// ResolvedNone means the key matched nothing.
	ResolvedNone = catalog.ResolvedNone
	// ResolvedExact means the key matched a version name exactly.
	ResolvedExact = catalog.ResolvedExact
	// ResolvedLatest means the key matched a dataset name and the latest
	// version was picked.
	ResolvedLatest = catalog.ResolvedLatest
)

// Resolution is the outcome of resolving a catalog key.
type Resolution = catalog.Resolution

// Check records one validation step for a catalog entry.
type Check = catalog.Check

// ValidationReport maps each entry's version name to the checks run against
// it, in the order they finished.
type ValidationReport = catalog.Report

// Catalog is a YAML-backed registry of dataset versions. Every mutation is
// written through to disk and reloaded, so the file stays the source of
// truth across processes.
type Catalog struct {
	c *catalog.Catalog
}

// OpenCatalog opens the catalog file at path, creating an empty one if it
// does not exist. Entries written by other tools are ignored unless tagged
// with tag; an empty tag uses the configured default.
func OpenCatalog(path, tag string) (*Catalog, error) {
	c, err := catalog.Open(path, tag)
	if err != nil {
		return nil, err
	}
	return &Catalog{c: c}, nil
}

// Path returns the catalog file path.
func (c *Catalog) Path() string {
	return c.c.Path()
}

// Keys returns the entry keys in file order.
func (c *Catalog) Keys() []string {
	return c.c.Keys()
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return c.c.Len()
}

// Find looks an entry up by its version name and reconstructs its lineage,
// verifying each upstream's recorded digest along the way.
func (c *Catalog) Find(versionName string) (*Dataset, error) {
	return c.c.FindByVersionName(versionName)
}

// FindByNameAndVersion joins name and version into a version name and looks
// it up.
func (c *Catalog) FindByNameAndVersion(name, version string) (*Dataset, error) {
	return c.c.FindByNameAndVersion(name, version)
}

// FindLatest returns the entry with the highest version for the given name.
func (c *Catalog) FindLatest(name string) (*Dataset, error) {
	return c.c.FindLatestByName(name)
}

// Resolve interprets key first as an exact version name, then as a dataset
// name to take the latest of. The result says which interpretation won.
func (c *Catalog) Resolve(key string) (Resolution, error) {
	return c.c.Resolve(key)
}

// Append registers a dataset, overwriting any entry with the same version
// name, and persists the catalog.
func (c *Catalog) Append(ds *Dataset) error {
	return c.c.Append(ds)
}

// Validate checks every entry's internal consistency and upstream digests,
// propagating failures downstream. It returns true when all entries pass.
func (c *Catalog) Validate() (bool, ValidationReport) {
	return c.c.Validate()
}

// PartitionedFrame is a DataFrame split into contiguous row partitions that
// are processed in parallel and persisted one parquet file per partition.
type PartitionedFrame struct {
	pf *partition.Frame
}

// SplitFrame partitions df into n contiguous row slices. n <= 0 uses the
// configured default partition count.
func SplitFrame(df *DataFrame, n int) (*PartitionedFrame, error) {
	pf, err := partition.Split(df.df, n)
	if err != nil {
		return nil, err
	}
	return &PartitionedFrame{pf: pf}, nil
}

// PartitionedFromFrames assembles a partitioned frame from existing frames,
// one partition each.
func PartitionedFromFrames(frames ...*DataFrame) (*PartitionedFrame, error) {
	parts := make([]*dataframe.DataFrame, len(frames))
	for i, f := range frames {
		parts[i] = f.df
	}
	pf, err := partition.FromFrames(parts...)
	if err != nil {
		return nil, err
	}
	return &PartitionedFrame{pf: pf}, nil
}

// NumPartitions returns the partition count.
func (p *PartitionedFrame) NumPartitions() int {
	return p.pf.NumPartitions()
}

// Partition returns partition i. The frame keeps ownership.
func (p *PartitionedFrame) Partition(i int) *DataFrame {
	return &DataFrame{df: p.pf.Partition(i)}
}

// MapPartitions applies fn to every partition in parallel and returns a new
// partitioned frame of the results.
func (p *PartitionedFrame) MapPartitions(fn func(*DataFrame) (*DataFrame, error)) (*PartitionedFrame, error) {
	out, err := p.pf.MapPartitions(func(part *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		res, err := fn(&DataFrame{df: part})
		if err != nil {
			return nil, err
		}
		return res.df, nil
	})
	if err != nil {
		return nil, err
	}
	return &PartitionedFrame{pf: out}, nil
}

// AggregateByIndexAndKeys aggregates within each partition.
func (p *PartitionedFrame) AggregateByIndexAndKeys(keys []string, aggs []Aggregation) (*PartitionedFrame, error) {
	out, err := p.pf.AggregateByIndexAndKeys(keys, internalAggs(aggs))
	if err != nil {
		return nil, err
	}
	return &PartitionedFrame{pf: out}, nil
}

// MergeKeepingIndex merges every partition against one eager right frame.
func (p *PartitionedFrame) MergeKeepingIndex(right *DataFrame, options MergeOptions) (*PartitionedFrame, error) {
	out, err := p.pf.MergeKeepingIndex(right.df, dataframe.MergeOptions{
		Type:      dataframe.JoinType(options.Type),
		On:        options.On,
		LeftOn:    options.LeftOn,
		RightOn:   options.RightOn,
		ReindexBy: dataframe.ReindexSide(options.ReindexBy),
	})
	if err != nil {
		return nil, err
	}
	return &PartitionedFrame{pf: out}, nil
}

// DropDuplicatesByIndexAndKeys de-duplicates within each partition.
func (p *PartitionedFrame) DropDuplicatesByIndexAndKeys(subset []string, keep Keep) (*PartitionedFrame, error) {
	out, err := p.pf.DropDuplicatesByIndexAndKeys(subset, dataframe.Keep(keep))
	if err != nil {
		return nil, err
	}
	return &PartitionedFrame{pf: out}, nil
}

// DropRowsByIndex removes matching rows from every partition.
func (p *PartitionedFrame) DropRowsByIndex(labels ...any) (*PartitionedFrame, error) {
	out, err := p.pf.DropRowsByIndex(labels...)
	if err != nil {
		return nil, err
	}
	return &PartitionedFrame{pf: out}, nil
}

// StackListColumn explodes a list column within each partition.
func (p *PartitionedFrame) StackListColumn(listColumn string, keepColumns []string) (*PartitionedFrame, error) {
	out, err := p.pf.StackListColumn(listColumn, keepColumns)
	if err != nil {
		return nil, err
	}
	return &PartitionedFrame{pf: out}, nil
}

// StackListColumns explodes several list columns together within each
// partition.
func (p *PartitionedFrame) StackListColumns(listColumns, keepColumns []string) (*PartitionedFrame, error) {
	out, err := p.pf.StackListColumns(listColumns, keepColumns)
	if err != nil {
		return nil, err
	}
	return &PartitionedFrame{pf: out}, nil
}

// StackColumns turns the target columns wide-to-long within each partition.
func (p *PartitionedFrame) StackColumns(targetColumns, keepColumns []string, labelName, outputName string) (*PartitionedFrame, error) {
	out, err := p.pf.StackColumns(targetColumns, keepColumns, labelName, outputName)
	if err != nil {
		return nil, err
	}
	return &PartitionedFrame{pf: out}, nil
}

// StackMapColumn explodes a map column within each partition.
func (p *PartitionedFrame) StackMapColumn(mapColumn string, keepColumns []string, labelSuffix, valueSuffix string) (*PartitionedFrame, error) {
	out, err := p.pf.StackMapColumn(mapColumn, keepColumns, labelSuffix, valueSuffix)
	if err != nil {
		return nil, err
	}
	return &PartitionedFrame{pf: out}, nil
}

// SplitColumn splits a string column into a list column in every partition.
func (p *PartitionedFrame) SplitColumn(column, sep, out string) (*PartitionedFrame, error) {
	res, err := p.pf.SplitColumn(column, sep, out)
	if err != nil {
		return nil, err
	}
	return &PartitionedFrame{pf: res}, nil
}

// Collect concatenates the partitions back into one DataFrame.
func (p *PartitionedFrame) Collect() (*DataFrame, error) {
	out, err := p.pf.Collect()
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: out}, nil
}

// ContentHash returns the combined digest of the partitions in order.
func (p *PartitionedFrame) ContentHash() string {
	return p.pf.ContentHash()
}

// Release frees all partitions.
func (p *PartitionedFrame) Release() {
	p.pf.Release()
}

// Session ties a catalog to a data directory so dataset registration and
// the parquet files behind it stay consistent.
type Session struct {
	s *catalog.Session
}

// AnalysisFunc computes a new partitioned frame from its loaded upstream
// inputs, keyed by dataset name. The inputs are released after the function
// returns; it must return a frame it owns, not one of the inputs.
type AnalysisFunc func(inputs map[string]*PartitionedFrame) (*PartitionedFrame, error)

// NewSession opens (or creates) the catalog at catalogPath and stores
// dataset files under dataDir. A nil allocator falls back to the Go
// allocator.
func NewSession(catalogPath, dataDir string, mem memory.Allocator) (*Session, error) {
	s, err := catalog.NewSession(catalogPath, dataDir, mem)
	if err != nil {
		return nil, err
	}
	return &Session{s: s}, nil
}

// Catalog returns the session's catalog.
func (s *Session) Catalog() *Catalog {
	return &Catalog{c: s.s.Catalog()}
}

// DumpPartitioned persists a partitioned frame and registers it under name
// and version with the given lineage.
func (s *Session) DumpPartitioned(pf *PartitionedFrame, name, version string, upstream ...*Dataset) (*Dataset, error) {
	return s.s.DumpPartitioned(pf.pf, name, version, upstream...)
}

// DumpFrame persists an eager frame as a single-partition dataset.
func (s *Session) DumpFrame(df *DataFrame, name, version string, upstream ...*Dataset) (*Dataset, error) {
	return s.s.DumpFrame(df.df, name, version, upstream...)
}

// LoadPartitioned reads a registered dataset back as a partitioned frame,
// verifying its content digest against the catalog record.
func (s *Session) LoadPartitioned(ds *Dataset) (*PartitionedFrame, error) {
	pf, err := s.s.LoadPartitioned(ds)
	if err != nil {
		return nil, err
	}
	return &PartitionedFrame{pf: pf}, nil
}

// LoadFrame reads a registered dataset back as one eager frame.
func (s *Session) LoadFrame(ds *Dataset) (*DataFrame, error) {
	df, err := s.s.LoadFrame(ds)
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: df}, nil
}

// Analysis resolves the upstream keys, loads them, runs fn, and registers
// the result under name and version with the resolved upstreams as lineage.
func (s *Session) Analysis(name, version string, upstreamKeys []string, fn AnalysisFunc) (*Dataset, error) {
	return s.s.Analysis(name, version, upstreamKeys, func(inputs map[string]*partition.Frame) (*partition.Frame, error) {
		wrapped := make(map[string]*PartitionedFrame, len(inputs))
		for k, v := range inputs {
			wrapped[k] = &PartitionedFrame{pf: v}
		}
		out, err := fn(wrapped)
		if err != nil {
			return nil, err
		}
		return out.pf, nil
	})
}

// ParquetOptions controls parquet encoding.
type ParquetOptions = frameio.ParquetOptions

// DefaultParquetOptions returns options built from the global configuration.
func DefaultParquetOptions() ParquetOptions {
	return frameio.DefaultParquetOptions()
}

// WriteParquet writes one DataFrame as a parquet stream, index designation
// included.
func WriteParquet(w stdio.Writer, df *DataFrame, opts ParquetOptions) error {
	return frameio.NewParquetWriter(w, opts).Write(df.df)
}

// ReadParquet reads one DataFrame from a parquet stream, restoring the
// index designation. A nil allocator falls back to the Go allocator.
func ReadParquet(r stdio.Reader, mem memory.Allocator) (*DataFrame, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	df, err := frameio.NewParquetReader(r, frameio.DefaultParquetOptions(), mem).Read()
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: df}, nil
}

// CSVOptions controls CSV encoding and decoding.
type CSVOptions = frameio.CSVOptions

// DefaultCSVOptions returns default CSV options.
func DefaultCSVOptions() CSVOptions {
	return frameio.DefaultCSVOptions()
}

// WriteCSV writes one DataFrame as CSV. Nulls write as empty cells; list
// and map columns are not representable.
func WriteCSV(w stdio.Writer, df *DataFrame, opts CSVOptions) error {
	return frameio.NewCSVWriter(w, opts).Write(df.df)
}

// ReadCSV reads one DataFrame from CSV, inferring column types from the
// cells. A nil allocator falls back to the Go allocator.
func ReadCSV(r stdio.Reader, opts CSVOptions, mem memory.Allocator) (*DataFrame, error) {
	df, err := frameio.NewCSVReader(r, opts, mem).Read()
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: df}, nil
}
