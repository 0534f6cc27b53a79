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

package disposition

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/winoverlay/winoverlay/domain"
)

func TestResolveTruthTable(t *testing.T) {
	p := NewPolicy()

	cases := []struct {
		name          string
		d             domain.Disposition
		virtualExists bool
		realExists    bool
		want          domain.Route
	}{
		{"open-existing always virtual (both absent)", domain.DispositionOpenExisting, false, false, domain.RouteVirtual},
		{"open-existing always virtual (both present)", domain.DispositionOpenExisting, true, true, domain.RouteVirtual},

		{"create-new fails when real exists", domain.DispositionCreateNew, false, true, domain.RouteFail},
		{"create-new fails when both exist", domain.DispositionCreateNew, true, true, domain.RouteFail},
		{"create-new routes virtual when real absent", domain.DispositionCreateNew, false, false, domain.RouteVirtual},
		{"create-new routes virtual when virtual also exists but real doesn't", domain.DispositionCreateNew, true, false, domain.RouteVirtual},

		{"open-if routes real when only real exists", domain.DispositionOpenAlways, false, true, domain.RouteReal},
		{"open-if routes virtual when virtual exists", domain.DispositionOpenAlways, true, false, domain.RouteVirtual},
		{"open-if routes virtual when both exist", domain.DispositionOpenAlways, true, true, domain.RouteVirtual},
		{"open-if routes virtual when neither exists", domain.DispositionOpenAlways, false, false, domain.RouteVirtual},

		{"supersede routes real when only real exists", domain.DispositionSupersede, false, true, domain.RouteReal},
		{"supersede routes virtual when virtual exists", domain.DispositionSupersede, true, false, domain.RouteVirtual},

		{"overwrite-if routes real when only real exists", domain.DispositionOverwriteIf, false, true, domain.RouteReal},
		{"overwrite-if routes virtual when virtual exists", domain.DispositionOverwriteIf, true, true, domain.RouteVirtual},

		{"overwrite-existing always virtual", domain.DispositionOverwriteExisting, false, true, domain.RouteVirtual},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := p.Resolve(c.d, c.virtualExists, c.realExists)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestResolveNeverShadowsRealWithMissingVirtual(t *testing.T) {
	p := NewPolicy()
	// A disposition that would create/overwrite must never silently pick
	// a virtual side that doesn't exist when the real one does, outside
	// of create-new/open-existing/overwrite-existing's documented shapes.
	got := p.Resolve(domain.DispositionOpenAlways, false, true)
	assert.Equal(t, domain.RouteReal, got)
}
