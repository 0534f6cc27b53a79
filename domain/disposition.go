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

package domain

// Disposition is the create-time rule governing behavior when the target
// file does or does not already exist (§4.7, §6 glossary).
type Disposition int

const (
	// DispositionOpenExisting requires the file to already exist.
	DispositionOpenExisting Disposition = iota
	// DispositionCreateNew fails if the target already exists.
	DispositionCreateNew
	// DispositionOpenAlways opens the file, creating it if absent.
	DispositionOpenAlways
	// DispositionSupersede replaces an existing file if present, else creates.
	DispositionSupersede
	// DispositionOverwriteIf truncates an existing file if present, else creates.
	DispositionOverwriteIf
	// DispositionOverwriteExisting requires the file to already exist and truncates it.
	DispositionOverwriteExisting
)

// Route is the side of the overlay a create-file call should be directed to.
type Route int

const (
	RouteVirtual Route = iota
	RouteReal
	RouteFail
)

func (r Route) String() string {
	switch r {
	case RouteVirtual:
		return "virtual"
	case RouteReal:
		return "real"
	case RouteFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Policy implements the disposition truth table of §4.7.
type Policy interface {
	Resolve(d Disposition, virtualExists, realExists bool) Route
}
