// Package future implements the C3 cached-future registry: concurrent
// callers resolving the same HashPath collapse onto a single in-flight
// extraction, each getting the same result once it completes. Nothing
// is kept after a call completes: a later Do for the same key, after a
// success or a failure alike, runs fn again (NAE serves repeat
// successes from its own cache). golang.org/x/sync/singleflight already is exactly this primitive, so
// Registry is a thin, typed wrapper rather than a reimplementation.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package future

import "golang.org/x/sync/singleflight"

type Registry[T any] struct {
	g singleflight.Group
}

func New[T any]() *Registry[T] { return &Registry[T]{} }

// Do runs fn for key if no call for that key is already in flight, or
// waits for and shares the result of the one that is. The shared=true
// return tells the caller whether its own refcounted cleanup (e.g. a
// handle.Handle.Clone) is appropriate, versus having done the work itself.
func (r *Registry[T]) Do(key string, fn func() (T, error)) (T, bool, error) {
	v, shared, err := r.g.Do(key, func() (any, error) {
		return fn()
	})
	var zero T
	if err != nil {
		return zero, false, err
	}
	return v.(T), shared, nil
}

// Forget drops key from the in-flight set without affecting a call
// already running for it: the next Do for key starts a fresh call
// instead of joining the running one. A completed call is never shared
// in any case, since singleflight drops it as soon as it returns.
func (r *Registry[T]) Forget(key string) {
	r.g.Forget(key)
}
