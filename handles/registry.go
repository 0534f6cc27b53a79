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

// Package handles implements the handle registry (C4): a bidirectional
// map between kernel handles and their logical paths, shaped the same way
// the teacher's state.containerStateService shares one *container between
// an id-keyed and a netns-keyed index under a single RWMutex.
package handles

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/winoverlay/winoverlay/domain"
)

type registry struct {
	sync.RWMutex

	byHandle map[domain.Handle]*domain.HandleInfo
	byPath   map[string]*domain.HandleInfo
}

// NewRegistry builds an empty handle registry. One instance is shared for
// the agent's process lifetime.
func NewRegistry() domain.HandleRegistry {
	return &registry{
		byHandle: make(map[domain.Handle]*domain.HandleInfo),
		byPath:   make(map[string]*domain.HandleInfo),
	}
}

// Insert adds (h, path, rerouted) only if h is not already registered; it
// reports whether the insert took place. A path that is already indexed
// is re-pointed to the new entry. Operations here are best-effort (§4.3 policy): a conflicting
// insert is simply rejected rather than panicking.
func (r *registry) Insert(h domain.Handle, path string, rerouted bool) bool {
	r.Lock()
	defer r.Unlock()

	if _, ok := r.byHandle[h]; ok {
		logrus.Debugf("handles: refusing duplicate insert for handle %#x", h)
		return false
	}

	info := &domain.HandleInfo{Handle: h, Path: path, Rerouted: rerouted}
	r.byHandle[h] = info
	r.byPath[path] = info

	return true
}

func (r *registry) GetByHandle(h domain.Handle) (*domain.HandleInfo, bool) {
	r.RLock()
	defer r.RUnlock()

	info, ok := r.byHandle[h]
	return info, ok
}

func (r *registry) GetByPath(path string) (*domain.HandleInfo, bool) {
	r.RLock()
	defer r.RUnlock()

	info, ok := r.byPath[path]
	return info, ok
}

// RemoveByHandle drops the handle-keyed entry and its matching path-keyed
// entry together, preserving the invariant that the two indices never
// drift apart.
func (r *registry) RemoveByHandle(h domain.Handle) (*domain.HandleInfo, bool) {
	r.Lock()
	defer r.Unlock()

	info, ok := r.byHandle[h]
	if !ok {
		return nil, false
	}

	delete(r.byHandle, h)
	// Only remove the path entry if it still points back at this handle:
	// a later Insert may have replaced it for the same path already.
	if cur, ok := r.byPath[info.Path]; ok && cur.Handle == h {
		delete(r.byPath, info.Path)
	}

	return info, true
}
