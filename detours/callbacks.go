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

//go:build !windows

package detours

// Replacements is empty on non-Windows build targets: there is nothing to
// hand syscall.NewCallback on a platform with no stdcall calling
// convention. The core Set logic above is still fully testable here
// against afero.NewMemMapFs(); only the native entry points in
// callbacks_windows.go are Windows-only.
func (s *Set) Replacements() map[string]uintptr {
	return map[string]uintptr{}
}
