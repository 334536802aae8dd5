package vector

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/axiomgov/axiom/internal/models"
)

// File names inside the store directory. The two files form one logical unit:
// vectors in a compact binary file, chunks and metadata in a JSON companion.
const (
	vectorsFile = "vectors.bin"
	chunksFile  = "chunks.json"
)

type persistedChunks struct {
	Dimension int                    `json:"dimension"`
	Chunks    []models.Chunk         `json:"chunks"`
	Metadata  []models.ChunkMetadata `json:"metadata"`
}

// Save persists the store (vectors, chunks, metadata, dimension) to dir.
// The directory is created if needed. Layout: dimension (4 bytes), entry count
// (4 bytes), then count*dimension float32s, little-endian; chunks and metadata
// go to a JSON companion file.
func (s *Store) Save(dir string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, vectorsFile))
	if err != nil {
		return fmt.Errorf("create vectors file: %w", err)
	}
	defer f.Close()
	if err := binary.Write(f, binary.LittleEndian, uint32(s.dimension)); err != nil {
		return fmt.Errorf("write dimension: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(s.vectors))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	buf := make([]byte, s.dimension*4)
	for _, vec := range s.vectors {
		for i, v := range vec {
			binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(v))
		}
		if _, err := f.Write(buf); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}

	data, err := json.Marshal(persistedChunks{
		Dimension: s.dimension,
		Chunks:    s.chunks,
		Metadata:  s.metadata,
	})
	if err != nil {
		return fmt.Errorf("marshal chunks: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, chunksFile), data, 0644); err != nil {
		return fmt.Errorf("write chunks file: %w", err)
	}
	return nil
}

// Load restores the store from dir, replacing in-memory contents.
// A missing vectors or chunks file means no prior state: the store is left
// empty and no error is returned. A present but inconsistent pair (dimension
// mismatch, unequal entry counts) is an error.
func (s *Store) Load(dir string) error {
	if dir == "" {
		return nil
	}

	vf, err := os.Open(filepath.Join(dir, vectorsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open vectors file: %w", err)
	}
	defer vf.Close()

	cdata, err := os.ReadFile(filepath.Join(dir, chunksFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read chunks file: %w", err)
	}

	var dim, count uint32
	if err := binary.Read(vf, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimension: %w", err)
	}
	if int(dim) != s.dimension {
		return fmt.Errorf("%w: file has %d, store expects %d", ErrDimensionMismatch, dim, s.dimension)
	}
	if err := binary.Read(vf, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("read count: %w", err)
	}

	vectors := make([][]float32, 0, count)
	buf := make([]byte, s.dimension*4)
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(vf, buf); err != nil {
			return fmt.Errorf("read vector %d: %w", i, err)
		}
		vec := make([]float32, s.dimension)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[j*4 : (j+1)*4]))
		}
		vectors = append(vectors, vec)
	}

	var pc persistedChunks
	if err := json.Unmarshal(cdata, &pc); err != nil {
		return fmt.Errorf("parse chunks file: %w", err)
	}
	if pc.Dimension != s.dimension {
		return fmt.Errorf("%w: chunks file has %d, store expects %d", ErrDimensionMismatch, pc.Dimension, s.dimension)
	}
	if len(pc.Chunks) != len(vectors) || len(pc.Metadata) != len(vectors) {
		return fmt.Errorf("persisted store inconsistent: %d vectors, %d chunks, %d metadata",
			len(vectors), len(pc.Chunks), len(pc.Metadata))
	}
	for i, meta := range pc.Metadata {
		if meta == nil {
			pc.Metadata[i] = models.ChunkMetadata{}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = vectors
	s.chunks = pc.Chunks
	s.metadata = pc.Metadata
	return nil
}
