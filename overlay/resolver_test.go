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

package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/winoverlay/winoverlay/domain"
)

func newTestResolver() domain.Resolver {
	return NewResolver(domain.MountConfig{
		MountPoint:  `C:\mnt`,
		VirtualRoot: `C:\virtual`,
	})
}

func TestRedirectExactMount(t *testing.T) {
	r := newTestResolver()
	got, ok := r.Redirect(`C:\mnt`)
	assert.True(t, ok)
	assert.Equal(t, `C:\virtual`, got)
}

func TestRedirectStrictPrefix(t *testing.T) {
	r := newTestResolver()
	got, ok := r.Redirect(`C:\mnt\sub\file.txt`)
	assert.True(t, ok)
	assert.Equal(t, `C:\virtual\sub\file.txt`, got)
}

func TestRedirectUnrelatedSibling(t *testing.T) {
	r := newTestResolver()
	// "C:\mnt2" is NOT under "C:\mnt" even though it shares the string
	// prefix — the boundary must be a path separator.
	_, ok := r.Redirect(`C:\mnt2\file.txt`)
	assert.False(t, ok)
}

func TestRedirectOutsideMount(t *testing.T) {
	r := newTestResolver()
	_, ok := r.Redirect(`C:\other\file.txt`)
	assert.False(t, ok)
}

func TestRedirectJoinLaw(t *testing.T) {
	r := newTestResolver()
	suffix := `\a\b\c.txt`
	got, ok := r.Redirect(r.MountPoint() + suffix)
	assert.True(t, ok)
	assert.Equal(t, r.VirtualRoot()+suffix, got)
}

func TestRedirectIffPrefixOrEqual(t *testing.T) {
	r := newTestResolver()
	cases := []struct {
		path string
		want bool
	}{
		{`C:\mnt`, true},
		{`C:\mnt\x`, true},
		{`C:\mntx`, false},
		{`C:\mn`, false},
		{`D:\mnt\x`, false},
	}
	for _, c := range cases {
		_, ok := r.Redirect(c.path)
		assert.Equalf(t, c.want, ok, "path=%s", c.path)
	}
}
