/*
 *
 * Copyright 2025 The share-mem Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package sharemem

// Option configures Create and Open.
type Option func(*options)

type options struct {
	framing        Framing
	attachExisting bool
}

func buildOptions(opts []Option) options {
	o := options{framing: FramingLengthPrefixed}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithFraming selects the framing policy for this handle. Both sides of the
// channel must use the same policy.
func WithFraming(f Framing) Option {
	return func(o *options) {
		o.framing = f
	}
}

// WithAttachExisting makes Create attach to an already-initialized channel in
// the region instead of failing with ErrAlreadyInitialized. Cursors are left
// untouched; the existing geometry must match the requested one.
func WithAttachExisting() Option {
	return func(o *options) {
		o.attachExisting = true
	}
}
