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

package handles

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winoverlay/winoverlay/domain"
)

func TestInsertAndLookup(t *testing.T) {
	r := NewRegistry()

	ok := r.Insert(domain.Handle(1), `C:\virtual\a`, true)
	require.True(t, ok)

	byH, ok := r.GetByHandle(domain.Handle(1))
	require.True(t, ok)
	assert.Equal(t, `C:\virtual\a`, byH.Path)
	assert.True(t, byH.Rerouted)

	byP, ok := r.GetByPath(`C:\virtual\a`)
	require.True(t, ok)
	assert.Same(t, byH, byP)
}

func TestInsertRejectsDuplicateHandle(t *testing.T) {
	r := NewRegistry()
	require.True(t, r.Insert(domain.Handle(1), `C:\a`, false))
	assert.False(t, r.Insert(domain.Handle(1), `C:\b`, false))
}

func TestRemoveByHandleDropsBothIndices(t *testing.T) {
	r := NewRegistry()
	require.True(t, r.Insert(domain.Handle(1), `C:\a`, false))

	info, ok := r.RemoveByHandle(domain.Handle(1))
	require.True(t, ok)
	assert.Equal(t, `C:\a`, info.Path)

	_, ok = r.GetByHandle(domain.Handle(1))
	assert.False(t, ok)
	_, ok = r.GetByPath(`C:\a`)
	assert.False(t, ok)
}

func TestRemoveByHandleUnknown(t *testing.T) {
	r := NewRegistry()
	_, ok := r.RemoveByHandle(domain.Handle(99))
	assert.False(t, ok)
}

func TestRemoveThenInsertReplacesStaleEntry(t *testing.T) {
	r := NewRegistry()
	require.True(t, r.Insert(domain.Handle(1), `C:\a`, false))
	_, ok := r.RemoveByHandle(domain.Handle(1))
	require.True(t, ok)

	require.True(t, r.Insert(domain.Handle(2), `C:\a`, true))
	info, ok := r.GetByPath(`C:\a`)
	require.True(t, ok)
	assert.Equal(t, domain.Handle(2), info.Handle)
}

func TestConcurrentInsertsAreSafe(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Insert(domain.Handle(i+1), "path", false)
		}(i)
	}
	wg.Wait()

	count := 0
	for i := 0; i < 200; i++ {
		if _, ok := r.GetByHandle(domain.Handle(i + 1)); ok {
			count++
		}
	}
	assert.Equal(t, 200, count)
}
