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

// Package log holds the single global *zap.SugaredLogger the rest of this
// daemon logs through. Packages that need a logger of their own (transport,
// history, alerts, ...) take one explicitly as a constructor argument;
// global package-level logging calls (log.Infof, log.Fatalf, ...) go
// through here.
package log

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	mu  sync.RWMutex
	cur = zap.NewNop().Sugar()
)

// SetGlobalLogger replaces the global logger.
func SetGlobalLogger(l *zap.SugaredLogger) {
	mu.Lock()
	defer mu.Unlock()
	cur = l
}

// Default returns the current global logger.
func Default() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// ConfigureLogger builds a zap logger from cfg, installs it as the global
// logger, and returns it for callers that want to defer its Sync.
func ConfigureLogger(cfg zap.Config) *zap.SugaredLogger {
	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("build zap logger: %s", err))
	}
	sugared := logger.Sugar()
	SetGlobalLogger(sugared)
	return sugared
}

// Debug logs at debug level through the global logger.
func Debug(args ...interface{}) { Default().Debug(args...) }

// Debugf logs at debug level through the global logger.
func Debugf(template string, args ...interface{}) { Default().Debugf(template, args...) }

// Info logs at info level through the global logger.
func Info(args ...interface{}) { Default().Info(args...) }

// Infof logs at info level through the global logger.
func Infof(template string, args ...interface{}) { Default().Infof(template, args...) }

// Warn logs at warn level through the global logger.
func Warn(args ...interface{}) { Default().Warn(args...) }

// Warnf logs at warn level through the global logger.
func Warnf(template string, args ...interface{}) { Default().Warnf(template, args...) }

// Error logs at error level through the global logger.
func Error(args ...interface{}) { Default().Error(args...) }

// Errorf logs at error level through the global logger.
func Errorf(template string, args ...interface{}) { Default().Errorf(template, args...) }

// Fatal logs at fatal level through the global logger, then exits.
func Fatal(args ...interface{}) { Default().Fatal(args...) }

// Fatalf logs at fatal level through the global logger, then exits.
func Fatalf(template string, args ...interface{}) { Default().Fatalf(template, args...) }

// With returns a child logger with the supplied structured fields.
func With(args ...interface{}) *zap.SugaredLogger { return Default().With(args...) }
