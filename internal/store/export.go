package store

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/rcliao/agent-state/internal/model"
)

// ExportJSON writes snap as indented JSON.
func ExportJSON(w io.Writer, snap model.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(snap), "encode snapshot")
}

// ImportJSON reads a snapshot in the format written by ExportJSON.
func ImportJSON(r io.Reader) (model.Snapshot, error) {
	var snap model.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return model.Snapshot{}, errors.Wrap(err, "parse snapshot")
	}
	return snap, nil
}
