// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot persists the platform's identity and capability
// directories across restarts.
//
// A snapshot file is a fixed header followed by the CBOR-encoded
// [Snapshot], optionally compressed with LZ4 or zstd. The header
// carries a keyed BLAKE3 digest of the uncompressed payload so a
// truncated or bit-flipped file is rejected with [ErrCorrupt] instead
// of restoring partial state. [Save] writes via temp file and rename,
// so a crash mid-write leaves the previous snapshot intact.
package snapshot
