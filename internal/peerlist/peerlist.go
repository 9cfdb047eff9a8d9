// Package peerlist loads the static peer file the node consults for chain
// sync and block broadcast: one "host:port" string per non-empty line, no
// comments, no quoting, consumed literally.
package peerlist

import (
	"bufio"
	"fmt"
	"os"
)

// Load reads path and returns each non-empty line verbatim. A missing file
// is treated as an empty peer list, matching this repo's generally
// permissive posture toward absent-but-optional collaborator files.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("peerlist: open %s: %w", path, err)
	}
	defer f.Close()

	var peers []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		peers = append(peers, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("peerlist: read %s: %w", path, err)
	}
	return peers, nil
}
