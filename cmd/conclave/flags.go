// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"strings"

	"github.com/luxfi/ids"
)

func parseNodeID(s string) (ids.NodeID, error) {
	if s == "" {
		return ids.NodeID{}, fmt.Errorf("empty node id")
	}
	id, err := ids.NodeIDFromString(s)
	if err != nil {
		return ids.NodeID{}, fmt.Errorf("parsing node id %q: %w", s, err)
	}
	return id, nil
}

func parseNodeIDList(s string) ([]ids.NodeID, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]ids.NodeID, 0, len(parts))
	for _, p := range parts {
		id, err := parseNodeID(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// parseEventID parses an event/prev_hash id, treating the empty string as
// ids.Empty — the sentinel prevHash a first append in a chain uses.
func parseEventID(s string) (ids.ID, error) {
	if s == "" {
		return ids.Empty, nil
	}
	id, err := ids.FromString(s)
	if err != nil {
		return ids.Empty, fmt.Errorf("parsing event id %q: %w", s, err)
	}
	return id, nil
}
