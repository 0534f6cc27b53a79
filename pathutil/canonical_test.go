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

package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripNTPrefix(t *testing.T) {
	assert.Equal(t, `C:\foo\bar`, StripNTPrefix(`\??\C:\foo\bar`))
	assert.Equal(t, `C:\foo\bar`, StripNTPrefix(`C:\foo\bar`))
}

func TestCanonicalizeAbsolute(t *testing.T) {
	out, err := Canonicalize(`C:\foo\.\bar\..\baz`, `C:\cwd`)
	require.NoError(t, err)
	assert.Equal(t, `C:\foo\baz`, out)
}

func TestCanonicalizeRelative(t *testing.T) {
	out, err := Canonicalize(`bar\baz`, `C:\foo`)
	require.NoError(t, err)
	assert.Equal(t, `C:\foo\bar\baz`, out)
}

func TestCanonicalizeStripsNTPrefix(t *testing.T) {
	out, err := Canonicalize(`\??\C:\foo\bar`, `C:\cwd`)
	require.NoError(t, err)
	assert.Equal(t, `C:\foo\bar`, out)
}

func TestCanonicalizeUnderflow(t *testing.T) {
	_, err := Canonicalize(`C:\foo\..\..\..`, `C:\cwd`)
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestCanonicalizeIdempotent(t *testing.T) {
	once, err := Canonicalize(`C:\foo\.\bar`, `C:\cwd`)
	require.NoError(t, err)
	twice, err := Canonicalize(once, `C:\cwd`)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestCanonicalizeUNC(t *testing.T) {
	out, err := Canonicalize(`\\server\share\a\..\b`, `C:\cwd`)
	require.NoError(t, err)
	assert.Equal(t, `\\server\share\b`, out)
}

func TestDecodeUTF16LE(t *testing.T) {
	raw := Encode(`C:\foo`, UTF16LE)
	s, err := Decode(raw, UTF16LE)
	require.NoError(t, err)
	assert.Equal(t, `C:\foo`, s)
}

func TestToCanonicalUTF16LE(t *testing.T) {
	raw := Encode(`\??\C:\foo\.\bar`, UTF16LE)
	out, err := ToCanonical(raw, UTF16LE, `C:\cwd`)
	require.NoError(t, err)
	assert.Equal(t, `C:\foo\bar`, out)
}
