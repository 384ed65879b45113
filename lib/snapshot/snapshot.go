// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/cap/lib/acl"
	"github.com/bureau-foundation/cap/lib/codec"
)

// Snapshot is the persisted state of the platform's directories.
type Snapshot struct {
	// SavedAt is when the snapshot was taken, at second precision.
	SavedAt time.Time `cbor:"saved_at"`

	// Platform is the name of the platform that wrote the snapshot.
	// Restoring into a platform with a different name is refused by
	// the caller since every registered name carries the old suffix.
	Platform string `cbor:"platform"`

	// Identities are the AMS registrations in registration order.
	Identities []acl.AgentIdentifier `cbor:"identities,omitempty"`

	// Entries are the DF registrations in registration order.
	Entries []acl.DirectoryEntry `cbor:"entries,omitempty"`
}

// ErrCorrupt is returned when a snapshot file fails header or digest
// verification.
var ErrCorrupt = errors.New("snapshot corrupt")

// File layout:
//
//	magic        4 bytes  "CAPS"
//	version      1 byte   formatVersion
//	compression  1 byte   Compression
//	size         4 bytes  uncompressed payload length, big-endian
//	digest      32 bytes  keyed BLAKE3 of the uncompressed CBOR payload,
//	                      checked after decompression
//	payload      rest     CBOR-encoded Snapshot, compressed
const (
	formatVersion = 1
	headerSize    = 4 + 1 + 1 + 4 + 32
	maxPayload    = 64 << 20
)

var magic = [4]byte{'C', 'A', 'P', 'S'}

// digestKey is the BLAKE3 key for snapshot digests: the ASCII domain
// name zero-padded to 32 bytes.
var digestKey = [32]byte{
	'c', 'a', 'p', '.', 'p', 'l', 'a', 't', 'f', 'o', 'r', 'm', '.',
	's', 'n', 'a', 'p', 's', 'h', 'o', 't',
}

func digest(data []byte) [32]byte {
	hasher, err := blake3.NewKeyed(digestKey[:])
	if err != nil {
		panic("snapshot: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var sum [32]byte
	copy(sum[:], hasher.Sum(nil))
	return sum
}

// Encode serializes snapshot into the file format.
func Encode(snapshot Snapshot, algorithm Compression) ([]byte, error) {
	payload, err := codec.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	if len(payload) > maxPayload {
		return nil, fmt.Errorf("snapshot payload is %d bytes, limit %d", len(payload), maxPayload)
	}
	compressed, used, err := compress(payload, algorithm)
	if err != nil {
		return nil, err
	}

	sum := digest(payload)
	output := make([]byte, headerSize, headerSize+len(compressed))
	copy(output[0:4], magic[:])
	output[4] = formatVersion
	output[5] = byte(used)
	binary.BigEndian.PutUint32(output[6:10], uint32(len(payload)))
	copy(output[10:headerSize], sum[:])
	return append(output, compressed...), nil
}

// Decode parses and verifies a snapshot produced by Encode. Any
// structural or digest failure wraps ErrCorrupt.
func Decode(data []byte) (Snapshot, error) {
	if len(data) < headerSize {
		return Snapshot{}, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(data))
	}
	if !bytes.Equal(data[0:4], magic[:]) {
		return Snapshot{}, fmt.Errorf("%w: bad magic %q", ErrCorrupt, data[0:4])
	}
	if data[4] != formatVersion {
		return Snapshot{}, fmt.Errorf("%w: unsupported format version %d", ErrCorrupt, data[4])
	}
	size := binary.BigEndian.Uint32(data[6:10])
	if size > maxPayload {
		return Snapshot{}, fmt.Errorf("%w: payload size %d exceeds limit", ErrCorrupt, size)
	}

	payload, err := decompress(data[headerSize:], Compression(data[5]), int(size))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if digest(payload) != [32]byte(data[10:headerSize]) {
		return Snapshot{}, fmt.Errorf("%w: digest mismatch", ErrCorrupt)
	}

	var snapshot Snapshot
	if err := codec.Unmarshal(payload, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return snapshot, nil
}

// Save writes snapshot to path atomically via a temp file in the same
// directory and a rename.
func Save(path string, snapshot Snapshot, algorithm Compression) error {
	data, err := Encode(snapshot, algorithm)
	if err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp snapshot file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp snapshot file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming snapshot file: %w", err)
	}

	success = true
	return nil
}

// Load reads and verifies the snapshot at path. A missing file returns
// an error satisfying errors.Is(err, os.ErrNotExist).
func Load(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	snapshot, err := Decode(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading %s: %w", path, err)
	}
	return snapshot, nil
}
