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

// Package querydup implements the query-handle duplicator (C5): when a
// caller opens a mount-point directory and then enumerates it, the kernel
// would otherwise see the real (possibly empty) directory instead of the
// overlay. A second handle, opened against the virtual root, backs the
// enumeration instead while the caller keeps using the original handle.
package querydup

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/winoverlay/winoverlay/domain"
)

type tracker struct {
	sync.RWMutex
	dup map[domain.Handle]domain.Handle
}

// NewTracker builds an empty query-duplicate tracker.
func NewTracker() domain.QueryDuplicates {
	return &tracker{dup: make(map[domain.Handle]domain.Handle)}
}

// Acquire implements the four-step protocol of §4.4. open is called at
// most once, only when no duplicate is already tracked and rerouted is
// true; its failure
// falls back to the original handle rather than propagating an error, per
// §4.4's stated failure mode.
func (t *tracker) Acquire(original domain.Handle, restartScan bool, resolved string, rerouted bool, open func(path string) (domain.Handle, error)) domain.Handle {
	if restartScan {
		t.closeExisting(original)
	}

	t.RLock()
	if d, ok := t.dup[original]; ok {
		t.RUnlock()
		return d
	}
	t.RUnlock()

	if !rerouted {
		return original
	}

	d, err := open(resolved)
	if err != nil {
		logrus.Debugf("querydup: un-hooked open of %q failed, falling back to original handle: %v", resolved, err)
		return original
	}

	t.Lock()
	// Another goroutine may have raced us; keep the first winner and
	// discard ours rather than leak a handle silently (best effort: the
	// caller, not this package, owns closing d on a losing race).
	if existing, ok := t.dup[original]; ok {
		t.Unlock()
		return existing
	}
	t.dup[original] = d
	t.Unlock()

	return d
}

// Release drops the tracked duplicate for original, reporting it so the
// close detour can close it before forwarding to the real close.
func (t *tracker) Release(original domain.Handle) (domain.Handle, bool) {
	t.Lock()
	defer t.Unlock()

	d, ok := t.dup[original]
	if !ok {
		return 0, false
	}
	delete(t.dup, original)
	return d, true
}

func (t *tracker) closeExisting(original domain.Handle) {
	// The caller (the detour) is responsible for actually closing the
	// kernel handle; here we only forget our bookkeeping so the next
	// Acquire call opens a fresh one.
	t.Lock()
	delete(t.dup, original)
	t.Unlock()
}
