package store

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/whitlocke/intrigue/pkg/types"
)

// World snapshots are stored as zstd-compressed JSON. JSON keeps snapshots
// inspectable with standard tooling once decompressed; zstd keeps the
// per-turn write small since the full aggregate is rewritten on every save.

var (
	snapshotEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	snapshotDecoder, _ = zstd.NewReader(nil)
)

// EncodeSnapshot serializes a world into its compressed snapshot form.
func EncodeSnapshot(w *types.World) ([]byte, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("store: failed to marshal world %q: %w", w.ID, err)
	}
	return snapshotEncoder.EncodeAll(data, nil), nil
}

// DecodeSnapshot restores a world from its compressed snapshot form.
// The result is a fresh aggregate graph with no aliasing to any other copy.
func DecodeSnapshot(blob []byte) (*types.World, error) {
	data, err := snapshotDecoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("store: failed to decompress snapshot: %w", err)
	}
	var w types.World
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("store: failed to unmarshal snapshot: %w", err)
	}
	return &w, nil
}
