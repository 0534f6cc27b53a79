//
// Copyright 2019-2020 Nestybox, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package overlay implements the redirection resolver (C3): deciding
// whether a canonical path falls under the configured mount point and, if
// so, computing its rewritten virtual-root counterpart. The resolver is a
// pure function of its inputs and the two paths it was configured with —
// it never touches the filesystem (§4.2).
package overlay

import (
	"strings"

	"github.com/winoverlay/winoverlay/domain"
)

// resolver holds the two read-mostly path fields bound once at agent
// init, the way fuse.FuseServerService holds its mountPoint after Setup.
type resolver struct {
	mountPoint  string
	virtualRoot string
}

// NewResolver builds a domain.Resolver over cfg. Callers are expected to
// build exactly one of these per agent lifetime and share it read-only
// across every detour goroutine thereafter (§5).
func NewResolver(cfg domain.MountConfig) domain.Resolver {
	return &resolver{
		mountPoint:  strings.TrimRight(cfg.MountPoint, `\`),
		virtualRoot: strings.TrimRight(cfg.VirtualRoot, `\`),
	}
}

func (r *resolver) MountPoint() string  { return r.mountPoint }
func (r *resolver) VirtualRoot() string { return r.virtualRoot }

// Redirect implements the contract of §4.2: equal to the mount point maps
// to the virtual root itself; a strict-prefix match maps to the
// corresponding suffix under the virtual root; anything else is a no-op.
func (r *resolver) Redirect(canonical string) (string, bool) {
	clean := strings.TrimRight(canonical, `\`)

	if pathEqualFold(clean, r.mountPoint) {
		return r.virtualRoot, true
	}

	if suffix, ok := stripPrefixDir(clean, r.mountPoint); ok {
		return r.virtualRoot + suffix, true
	}

	return "", false
}

func pathEqualFold(a, b string) bool {
	return strings.EqualFold(a, b)
}

// stripPrefixDir reports whether child lies strictly under parent (a
// directory-boundary prefix, never a bare string prefix: "\mnt2" must not
// match parent "\mnt"). On a match it returns the "\..." suffix, including
// its leading separator.
func stripPrefixDir(child, parent string) (string, bool) {
	if parent == "" || len(child) <= len(parent) {
		return "", false
	}
	if !strings.EqualFold(child[:len(parent)], parent) {
		return "", false
	}
	rest := child[len(parent):]
	if rest[0] != '\\' {
		return "", false
	}
	return rest, true
}
