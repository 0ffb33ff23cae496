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
package rpc

import (
	"context"
	"errors"

	"github.com/uber/torrentd/core"
	"github.com/uber/torrentd/engine"
	"github.com/uber/torrentd/rencode"
)

// configValueAliases maps the two legacy setting names the control protocol
// still uses onto the engine's own names for them.
var configValueAliases = map[string]string{
	"max_download_speed": "download_rate_limit",
	"max_upload_speed":   "upload_rate_limit",
}

// RegisterHandlers registers the four RPC methods this daemon answers
// against d, backed by e.
func RegisterHandlers(d *Dispatcher, e engine.Engine) {
	d.Register("daemon.login", "[ss]{}", loginHandler)
	d.Register("daemon.set_event_interest", "[[s]]{}", setEventInterestHandler)
	d.Register("daemon.info", "[]{}", infoHandler(e))
	d.Register("core.get_config_value", "[s]{}", getConfigValueHandler(e))
}

// loginHandler ignores the supplied credentials: any client that completes
// the TLS handshake is already trusted. It reports the one authorization
// level this daemon has.
func loginHandler(ctx context.Context, args, kwargs []rencode.Token, buf []byte, enc *rencode.Encoder) error {
	enc.AppendList(1)
	enc.AppendInt(core.AuthLevel)
	return nil
}

// setEventInterestHandler accepts the client's list of event names it wants
// to subscribe to. This daemon doesn't yet filter events by subscription,
// so it always answers true.
func setEventInterestHandler(ctx context.Context, args, kwargs []rencode.Token, buf []byte, enc *rencode.Encoder) error {
	enc.AppendList(1)
	enc.AppendBool(true)
	return nil
}

func infoHandler(e engine.Engine) Handler {
	return func(ctx context.Context, args, kwargs []rencode.Token, buf []byte, enc *rencode.Encoder) error {
		enc.AppendList(1)
		enc.AppendStr(e.UserAgent())
		return nil
	}
}

func getConfigValueHandler(e engine.Engine) Handler {
	return func(ctx context.Context, args, kwargs []rencode.Token, buf []byte, enc *rencode.Encoder) error {
		name := args[1].String(buf)
		if alias, ok := configValueAliases[name]; ok {
			name = alias
		}

		v, err := e.ConfigValue(name)
		if err != nil {
			var unknown *engine.ErrUnknownConfigValue
			if errors.As(err, &unknown) {
				return errors.New("unknown configuration")
			}
			return err
		}

		enc.AppendList(1)
		switch v.Kind {
		case engine.ConfigValueString:
			enc.AppendStr(v.Str)
		case engine.ConfigValueInt:
			enc.AppendInt(v.Int)
		case engine.ConfigValueBool:
			enc.AppendBool(v.Bool)
		}
		return nil
	}
}
