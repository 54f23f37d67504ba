package catalog

import (
	"fmt"
	"path/filepath"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/marmoset/internal/config"
	"github.com/paveg/marmoset/internal/dataframe"
	"github.com/paveg/marmoset/internal/errors"
	frameio "github.com/paveg/marmoset/internal/io"
	"github.com/paveg/marmoset/internal/partition"
)

// Session ties a catalog to a data directory so registered datasets and
// their files move together. It is an explicit handle passed by the caller;
// there is no ambient global session.
type Session struct {
	catalog *Catalog
	dataDir string
	mem     memory.Allocator
}

// NewSession opens (or creates) the catalog at catalogPath and stores
// dataset files under dataDir. A nil allocator falls back to the Go
// allocator.
func NewSession(catalogPath, dataDir string, mem memory.Allocator) (*Session, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	cat, err := Open(catalogPath, "")
	if err != nil {
		return nil, err
	}
	return &Session{catalog: cat, dataDir: dataDir, mem: mem}, nil
}

// Catalog returns the underlying catalog.
func (s *Session) Catalog() *Catalog {
	return s.catalog
}

// datasetDir is where a dataset version's partition files live.
func (s *Session) datasetDir(name, version string) string {
	return filepath.Join(s.dataDir, name, version)
}

func (s *Session) parquetOptions() frameio.ParquetOptions {
	cfg := config.Global()
	return frameio.ParquetOptions{
		Compression: cfg.ParquetCompression,
		BatchSize:   cfg.ParquetBatchSize,
	}
}

// DumpPartitioned writes a partitioned frame under the data directory, one
// parquet file per partition, and registers it in the catalog with the
// given lineage. The content hash combines the per-partition digests.
func (s *Session) DumpPartitioned(pf *partition.Frame, name, version string, upstream ...*Dataset) (*Dataset, error) {
	dir := s.datasetDir(name, version)
	ds, err := NewDataset(name, version, dir, "", upstream...)
	if err != nil {
		return nil, err
	}
	if err := pf.WriteParquet(dir, s.parquetOptions()); err != nil {
		return nil, err
	}
	if err := ds.SetContentHash(pf.ContentHash()); err != nil {
		return nil, err
	}
	if err := s.catalog.Append(ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// DumpFrame registers a single-partition dataset from an eager frame.
func (s *Session) DumpFrame(df *dataframe.DataFrame, name, version string, upstream ...*Dataset) (*Dataset, error) {
	pf, err := partition.FromFrames(df)
	if err != nil {
		return nil, err
	}
	return s.DumpPartitioned(pf, name, version, upstream...)
}

// LoadPartitioned reads a registered dataset back as a partitioned frame
// and verifies its content digest against the catalog record.
func (s *Session) LoadPartitioned(ds *Dataset) (*partition.Frame, error) {
	pf, err := partition.ReadParquet(ds.URLPath, s.mem)
	if err != nil {
		return nil, err
	}
	if got := pf.ContentHash(); got != ds.ContentHash {
		pf.Release()
		return nil, errors.NewHashMismatch("LoadPartitioned", ds.VersionName(), ds.ContentHash, got)
	}
	return pf, nil
}

// LoadFrame reads a registered dataset back as one eager frame.
func (s *Session) LoadFrame(ds *Dataset) (*dataframe.DataFrame, error) {
	pf, err := s.LoadPartitioned(ds)
	if err != nil {
		return nil, err
	}
	defer pf.Release()
	return pf.Collect()
}

// AnalysisFunc computes a new dataset from its loaded upstream inputs,
// keyed by dataset name. The inputs are owned by the caller and released
// after fn returns; fn must return a frame it owns, not one of the inputs.
type AnalysisFunc func(inputs map[string]*partition.Frame) (*partition.Frame, error)

// Analysis resolves each upstream key, loads the inputs, runs fn, and
// registers the result under name and version with the resolved upstreams
// as lineage. Upstream keys resolve exact-first, then latest-by-name; a key
// matching nothing fails.
func (s *Session) Analysis(name, version string, upstreamKeys []string, fn AnalysisFunc) (*Dataset, error) {
	upstream := make([]*Dataset, 0, len(upstreamKeys))
	inputs := make(map[string]*partition.Frame, len(upstreamKeys))
	defer func() {
		for _, pf := range inputs {
			pf.Release()
		}
	}()

	for _, key := range upstreamKeys {
		res, err := s.catalog.Resolve(key)
		if err != nil {
			return nil, err
		}
		if res.Kind == ResolvedNone {
			return nil, errors.NewNotFound("Analysis", key)
		}
		pf, err := s.LoadPartitioned(res.Dataset)
		if err != nil {
			return nil, fmt.Errorf("loading upstream %s: %w", key, err)
		}
		upstream = append(upstream, res.Dataset)
		// Inputs are keyed by dataset name; a later key resolving to the
		// same name displaces the earlier frame.
		if prev, ok := inputs[res.Dataset.Name]; ok {
			prev.Release()
		}
		inputs[res.Dataset.Name] = pf
	}

	result, err := fn(inputs)
	if err != nil {
		return nil, fmt.Errorf("analysis %s_%s: %w", name, version, err)
	}
	defer result.Release()
	return s.DumpPartitioned(result, name, version, upstream...)
}
