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

package detours

// RedirectProfilePath is the only translation the private-profile-string
// family (string/int/section variants, ANSI+wide) needs from this
// package: the .ini file path argument is redirected like any other path
// argument, and the actual INI parsing stays in the original function —
// the GetPrivateProfileStringW adapter, the only family member with one,
// calls through to it with the redirected path rather than reimplementing
// GetPrivateProfileString's parsing here.
func (s *Set) RedirectProfilePath(canonical string) string {
	target, _ := s.redirectOrSame(canonical)
	return target
}
