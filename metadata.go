package ioc

import (
	"sync"

	"github.com/junioryono/ioc/internal/reflection"
)

// Metadata declares what a constructor implements and which tokens it
// requires, in positional order.
type Metadata struct {
	// Implements is the token this constructor satisfies. Optional for
	// constructors that are only ever consumed directly.
	Implements *Token

	// Requires lists the constructor's dependencies in parameter order.
	Requires []*Token
}

// MetadataProvider gives read access to constructor metadata. The boolean
// result distinguishes a missing record from an empty one.
type MetadataProvider interface {
	Metadata(ctor any) (*Metadata, bool)
}

// MetadataTable is a side table from constructor identity to its metadata.
// It is safe for concurrent use.
type MetadataTable struct {
	mu      sync.RWMutex
	records map[any]*Metadata
}

var _ MetadataProvider = (*MetadataTable)(nil)

// NewMetadataTable creates an empty metadata table.
func NewMetadataTable() *MetadataTable {
	return &MetadataTable{records: make(map[any]*Metadata)}
}

// Set attaches metadata to a constructor, replacing any previous record.
func (m *MetadataTable) Set(ctor any, meta Metadata) error {
	key, err := reflection.Key(ctor)
	if err != nil {
		return err
	}

	record := &Metadata{
		Implements: meta.Implements,
		Requires:   append([]*Token(nil), meta.Requires...),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = record
	return nil
}

// Metadata returns the record attached to ctor.
func (m *MetadataTable) Metadata(ctor any) (*Metadata, bool) {
	key, err := reflection.Key(ctor)
	if err != nil {
		return nil, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	meta, ok := m.records[key]
	return meta, ok
}

var defaultMetadata = NewMetadataTable()

// DefaultMetadata returns the package-level table used by Injectable and by
// containers created without WithMetadata.
func DefaultMetadata() *MetadataTable {
	return defaultMetadata
}

// Injectable attaches metadata to ctor in the default table and returns
// ctor, so it can wrap a declaration:
//
//	var NewUserService = ioc.Injectable(newUserService, ioc.Metadata{
//	    Implements: UserServiceToken,
//	    Requires:   []*ioc.Token{DatabaseToken, LoggerToken},
//	})
//
// It panics if ctor is not a function or *Factory.
func Injectable[C any](ctor C, meta Metadata) C {
	if err := defaultMetadata.Set(ctor, meta); err != nil {
		panic(err)
	}
	return ctor
}
