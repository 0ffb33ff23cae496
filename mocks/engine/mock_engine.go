// Copyright (c) 2016-2019 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mocks is a hand-written gomock mock of engine.Engine, in the
// shape mockgen would generate for it.
package mocks

import (
	reflect "reflect"

	gomock "github.com/golang/mock/gomock"

	engine "github.com/uber/torrentd/engine"
)

// MockEngine is a mock of the Engine interface.
type MockEngine struct {
	ctrl     *gomock.Controller
	recorder *MockEngineMockRecorder
}

// MockEngineMockRecorder is the mock recorder for MockEngine.
type MockEngineMockRecorder struct {
	mock *MockEngine
}

// NewMockEngine creates a new mock instance.
func NewMockEngine(ctrl *gomock.Controller) *MockEngine {
	mock := &MockEngine{ctrl: ctrl}
	mock.recorder = &MockEngineMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockEngine) EXPECT() *MockEngineMockRecorder {
	return m.recorder
}

// Subscribe mocks base method.
func (m *MockEngine) Subscribe() (<-chan engine.Alert, func()) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Subscribe")
	ret0, _ := ret[0].(<-chan engine.Alert)
	ret1, _ := ret[1].(func())
	return ret0, ret1
}

// Subscribe indicates an expected call of Subscribe.
func (mr *MockEngineMockRecorder) Subscribe() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Subscribe", reflect.TypeOf((*MockEngine)(nil).Subscribe))
}

// ConfigValue mocks base method.
func (m *MockEngine) ConfigValue(name string) (engine.ConfigValue, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ConfigValue", name)
	ret0, _ := ret[0].(engine.ConfigValue)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ConfigValue indicates an expected call of ConfigValue.
func (mr *MockEngineMockRecorder) ConfigValue(name interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ConfigValue", reflect.TypeOf((*MockEngine)(nil).ConfigValue), name)
}

// UserAgent mocks base method.
func (m *MockEngine) UserAgent() string {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UserAgent")
	ret0, _ := ret[0].(string)
	return ret0
}

// UserAgent indicates an expected call of UserAgent.
func (mr *MockEngineMockRecorder) UserAgent() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UserAgent", reflect.TypeOf((*MockEngine)(nil).UserAgent))
}
