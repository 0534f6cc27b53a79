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

// Package pathutil implements the path canonicalizer (C2): stripping the
// NT object-manager prefix, resolving relative paths against a working
// directory, and lexically normalizing the result without touching the
// filesystem.
package pathutil

import (
	"strings"

	"github.com/winoverlay/winoverlay/domain"
)

// ntPrefix is the leading sequence NT-native APIs use to mark a path as
// absolute within the object-manager namespace (§ glossary).
const ntPrefix = `\??\`

// StripNTPrefix removes a leading `\??\` if present; it returns the
// original string otherwise.
func StripNTPrefix(path string) string {
	return strings.TrimPrefix(path, ntPrefix)
}

// Canonicalize resolves path to an absolute, lexically normalized form.
// Relative paths are joined onto cwd first. It fails with ErrInvalidPath
// when there are more ".." components than can be resolved against the
// prefix built so far (underflow).
func Canonicalize(path, cwd string) (string, error) {
	p := StripNTPrefix(path)
	p = strings.ReplaceAll(p, `/`, `\`)

	if !isAbs(p) {
		base := StripNTPrefix(cwd)
		base = strings.ReplaceAll(base, `/`, `\`)
		p = joinWindows(base, p)
	}

	return normalize(p)
}

// ToCanonical decodes a raw OS-native path buffer (either 8-bit or 16-bit
// encoded) and canonicalizes it against cwd, stripping any NT prefix.
func ToCanonical(raw []byte, enc Encoding, cwd string) (string, error) {
	s, err := Decode(raw, enc)
	if err != nil {
		return "", domain.NewError(domain.ErrDecodeFailure, err.Error())
	}
	out, err := Canonicalize(s, cwd)
	if err != nil {
		return "", domain.NewError(domain.ErrCanonicalizeFailure, err.Error())
	}
	return out, nil
}

func isAbs(p string) bool {
	if len(p) >= 2 && p[1] == ':' {
		return true
	}
	return strings.HasPrefix(p, `\\`)
}

func joinWindows(base, rel string) string {
	base = strings.TrimRight(base, `\`)
	rel = strings.TrimLeft(rel, `\`)
	if rel == "" {
		return base
	}
	return base + `\` + rel
}

// normalize resolves "." and ".." components lexically. It never touches
// the filesystem (symlinks are not resolved). An underflow — a ".." with
// no preceding component left to cancel, past the volume root — is an
// error (ErrInvalidPath via ErrCanonicalizeFailure upstream).
func normalize(p string) (string, error) {
	volume := ""
	rest := p
	if len(p) >= 2 && p[1] == ':' {
		volume = p[:2]
		rest = p[2:]
	} else if strings.HasPrefix(p, `\\`) {
		// UNC path: keep the leading "\\server\share" segment intact and
		// normalize only what follows it.
		trimmed := strings.TrimPrefix(p, `\\`)
		parts := strings.SplitN(trimmed, `\`, 3)
		if len(parts) < 2 {
			return p, nil
		}
		volume = `\\` + parts[0] + `\` + parts[1]
		if len(parts) == 3 {
			rest = `\` + parts[2]
		} else {
			rest = ""
		}
	}

	segments := strings.Split(rest, `\`)
	stack := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(stack) == 0 {
				return "", ErrInvalidPath
			}
			stack = stack[:len(stack)-1]
		default:
			stack = append(stack, seg)
		}
	}

	out := volume
	if len(stack) == 0 {
		if out == "" {
			return `\`, nil
		}
		return out + `\`, nil
	}
	return out + `\` + strings.Join(stack, `\`), nil
}
