// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2024 Canonical Ltd
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package testutil

import (
	"reflect"

	. "gopkg.in/check.v1"

	"github.com/snapcore/luks2unlock/internal/luks2"
)

type errorKindEqualsChecker struct {
	*CheckerInfo
}

// ErrorKindEquals checks that an error is (or wraps) a *luks2.Error with
// the expected Kind.
var ErrorKindEquals Checker = &errorKindEqualsChecker{
	&CheckerInfo{Name: "ErrorKindEquals", Params: []string{"error", "kind"}}}

func (checker *errorKindEqualsChecker) Check(params []interface{}, names []string) (result bool, errStr string) {
	err, ok := params[0].(error)
	if !ok {
		return false, names[0] + " is not an error"
	}
	kind, ok := params[1].(luks2.Kind)
	if !ok {
		return false, names[1] + " is not a luks2.Kind"
	}

	got, ok := luks2.KindOf(err)
	if !ok {
		return false, names[0] + " is not a *luks2.Error"
	}
	return got == kind, ""
}

type hasKeyChecker struct {
	*CheckerInfo
}

// HasKey checks that a map contains the given key.
var HasKey = &hasKeyChecker{
	&CheckerInfo{Name: "HasKey", Params: []string{"map", "key"}}}

func (checker *hasKeyChecker) Check(params []interface{}, names []string) (result bool, errStr string) {
	m := reflect.ValueOf(params[0])
	if m.Kind() != reflect.Map {
		return false, names[0] + " is not a map"
	}

	k := reflect.ValueOf(params[1])
	if k.Type() != m.Type().Key() {
		return false, names[1] + " has an unexpected type"
	}

	for _, key := range m.MapKeys() {
		if key.Interface() == k.Interface() {
			return true, ""
		}
	}
	return false, ""
}
