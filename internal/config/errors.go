// Package config loads the JSON ecosystem-topology file describing which
// authoritative servers and greeting HTTP servers to start and where the
// recursive resolver's root server lives, replacing the teacher's YAML/Viper-backed Config tree (this
// ecosystem has no nested server/upstream/rate-limit sections to bind,
// so a small hand-decoded struct is the right-sized tool; see DESIGN.md).
package config

import "errors"

// ErrConfig is the sentinel for a malformed or incomplete configuration
// file: an unreadable file, invalid JSON, or a missing RecResConfig.root.
// Construction fails synchronously with this error, aborting startup
// before any socket is opened.
var ErrConfig = errors.New("config: invalid configuration")
