// Package sng reads SNG song packages.
//
// An SNG file bundles a song's chart, MIDI, audio stems and artwork into a
// single container:
//
//   - Header: "SNGPKG", format version and a 16-byte XOR mask
//   - Metadata: length-prefixed key/value pairs
//   - File index: name, size and absolute offset of each entry
//   - File data: entry contents, XOR-masked by position within the entry
//
// Only reading is supported. The converter uses it to pull notes.chart or
// notes.mid out of a package.
package sng

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const identifier = "SNGPKG"

// ErrNotFound is returned by ReadFile for names missing from the index
var ErrNotFound = errors.New("file not found in package")

type header struct {
	Identifier [6]byte
	Version    uint32
	XorMask    [16]byte
}

// Entry is one file stored in the package
type Entry struct {
	Name   string
	Size   uint64
	Offset uint64
}

// Package is an opened SNG file
type Package struct {
	Version  uint32
	Metadata map[string]string
	Entries  []Entry

	mask   [16]byte
	data   io.ReaderAt
	closer io.Closer
}

// Open opens an SNG file from disk. The package must be closed.
func Open(filename string) (*Package, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("error opening SNG file: %w", err)
	}

	pkg, err := Read(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("error reading SNG file %s: %w", filename, err)
	}

	pkg.closer = file
	return pkg, nil
}

// Read parses the header, metadata and file index from data
func Read(data io.ReaderAt) (*Package, error) {
	reader := io.NewSectionReader(data, 0, 1<<62)

	var hdr header
	if err := binary.Read(reader, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if string(hdr.Identifier[:]) != identifier {
		return nil, fmt.Errorf("invalid file identifier: %q", string(hdr.Identifier[:]))
	}

	pkg := &Package{
		Version:  hdr.Version,
		Metadata: make(map[string]string),
		mask:     hdr.XorMask,
		data:     data,
	}

	if err := pkg.readMetadata(reader); err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	if err := pkg.readIndex(reader); err != nil {
		return nil, fmt.Errorf("failed to read file index: %w", err)
	}

	return pkg, nil
}

// Close releases the underlying file when the package came from Open
func (p *Package) Close() error {
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

func (p *Package) readMetadata(reader io.Reader) error {
	var sectionLength, count uint64
	if err := binary.Read(reader, binary.LittleEndian, &sectionLength); err != nil {
		return err
	}
	if err := binary.Read(reader, binary.LittleEndian, &count); err != nil {
		return err
	}

	for i := uint64(0); i < count; i++ {
		key, err := readString32(reader, 1024)
		if err != nil {
			return fmt.Errorf("metadata key %d: %w", i, err)
		}
		value, err := readString32(reader, 10240)
		if err != nil {
			return fmt.Errorf("metadata value for %s: %w", key, err)
		}
		p.Metadata[key] = value
	}

	return nil
}

func (p *Package) readIndex(reader io.Reader) error {
	var sectionLength, count uint64
	if err := binary.Read(reader, binary.LittleEndian, &sectionLength); err != nil {
		return err
	}
	if err := binary.Read(reader, binary.LittleEndian, &count); err != nil {
		return err
	}

	for i := uint64(0); i < count; i++ {
		var nameLen uint8
		if err := binary.Read(reader, binary.LittleEndian, &nameLen); err != nil {
			return err
		}

		name := make([]byte, nameLen)
		if _, err := io.ReadFull(reader, name); err != nil {
			return err
		}

		entry := Entry{Name: string(name)}
		if err := binary.Read(reader, binary.LittleEndian, &entry.Size); err != nil {
			return err
		}
		if err := binary.Read(reader, binary.LittleEndian, &entry.Offset); err != nil {
			return err
		}

		p.Entries = append(p.Entries, entry)
	}

	return nil
}

func readString32(reader io.Reader, limit int32) (string, error) {
	var length int32
	if err := binary.Read(reader, binary.LittleEndian, &length); err != nil {
		return "", err
	}
	if length < 0 || length > limit {
		return "", fmt.Errorf("invalid length: %d", length)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// ReadFile returns the unmasked contents of the named entry
func (p *Package) ReadFile(name string) ([]byte, error) {
	for _, entry := range p.Entries {
		if entry.Name != name {
			continue
		}

		buf := make([]byte, entry.Size)
		if n, err := p.data.ReadAt(buf, int64(entry.Offset)); n < len(buf) {
			return nil, fmt.Errorf("error reading %s: %w", name, err)
		}
		Mask(buf, p.mask)
		return buf, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Mask XORs data in place with the package mask. Each byte is combined
// with a lookup value chosen by its position inside the entry, so
// applying Mask twice restores the input.
func Mask(data []byte, mask [16]byte) {
	var lookup [256]byte
	for i := range lookup {
		lookup[i] = byte(i) ^ mask[i&0x0F]
	}

	for i := range data {
		data[i] ^= lookup[i&0xFF]
	}
}
