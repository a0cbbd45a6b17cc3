// Copyright 2022 The jackal Authors
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

package hook

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHooks_Add(t *testing.T) {
	// given
	h := NewHooks()

	// when
	h.AddHook("h1", nil, 10)
	h.AddHook("h1", nil, 1)
	h.AddHook("h1", nil, 3)

	// then
	require.Len(t, h.handlers["h1"], 3)

	require.Equal(t, Priority(10), h.handlers["h1"][0].p)
	require.Equal(t, Priority(3), h.handlers["h1"][1].p)
	require.Equal(t, Priority(1), h.handlers["h1"][2].p)
}

func TestHooks_Remove(t *testing.T) {
	// given
	h := NewHooks()

	// when
	var hnd1 Handler = func(ctx context.Context, execCtx *ExecutionContext) error { return nil }
	var hnd2 Handler = func(ctx context.Context, execCtx *ExecutionContext) error { return nil }
	var hnd3 Handler = func(ctx context.Context, execCtx *ExecutionContext) error { return nil }

	h.AddHook("h1", hnd1, 0)
	h.AddHook("h1", hnd2, 0)
	h.AddHook("h1", hnd3, 0)

	h.RemoveHook("h1", hnd3)
	h.RemoveHook("h1", hnd2)
	h.RemoveHook("h1", hnd1)

	// then
	require.Len(t, h.handlers["h1"], 0)
}

func TestHooks_Run(t *testing.T) {
	// given
	h := NewHooks()

	// when
	var i int
	var hnd1 Handler = func(ctx context.Context, execCtx *ExecutionContext) error { i++; return nil }
	var hnd2 Handler = func(ctx context.Context, execCtx *ExecutionContext) error { i++; return nil }
	var hnd3 Handler = func(ctx context.Context, execCtx *ExecutionContext) error { i++; return nil }

	h.AddHook("h1", hnd1, 0)
	h.AddHook("h1", hnd2, 0)
	h.AddHook("h1", hnd3, 0)

	halted, err := h.Run(context.Background(), "h1", nil)

	// then
	require.Nil(t, err)
	require.False(t, halted)

	require.Equal(t, 3, i)
}

func TestHooks_RegistrationOrderRun(t *testing.T) {
	// given
	h := NewHooks()

	// when
	var order []string
	var hnd1 Handler = func(ctx context.Context, execCtx *ExecutionContext) error { order = append(order, "first"); return nil }
	var hnd2 Handler = func(ctx context.Context, execCtx *ExecutionContext) error { order = append(order, "second"); return nil }
	var hnd3 Handler = func(ctx context.Context, execCtx *ExecutionContext) error { order = append(order, "third"); return nil }

	h.AddHook("h1", hnd1, DefaultPriority)
	h.AddHook("h1", hnd2, DefaultPriority)
	h.AddHook("h1", hnd3, DefaultPriority)

	_, err := h.Run(context.Background(), "h1", nil)

	// then
	require.Nil(t, err)
	require.Equal(t, []string{"first", "second", "third"}, order)
}

func TestHooks_NestedRunWithConcurrentAdd(t *testing.T) {
	// given
	h := NewHooks()

	var innerCount int
	h.AddHook("inner", func(ctx context.Context, execCtx *ExecutionContext) error {
		innerCount++
		return nil
	}, DefaultPriority)

	addDone := make(chan struct{})

	h.AddHook("outer", func(ctx context.Context, execCtx *ExecutionContext) error {
		// queue a writer while the outer hook is still executing...
		go func() {
			h.AddHook("inner", func(ctx context.Context, execCtx *ExecutionContext) error { return nil }, DefaultPriority)
			close(addDone)
		}()
		time.Sleep(time.Millisecond * 50)

		// ...and re-enter the hook runner from inside a handler
		_, err := h.Run(ctx, "inner", execCtx)
		return err
	}, DefaultPriority)

	// when
	done := make(chan error, 1)
	go func() {
		_, err := h.Run(context.Background(), "outer", nil)
		done <- err
	}()

	// then
	select {
	case err := <-done:
		require.Nil(t, err)
	case <-time.After(time.Second * 2):
		require.Fail(t, "nested hook execution did not complete")
	}
	<-addDone

	require.Equal(t, 1, innerCount)
}

func TestHooks_HaltedRun(t *testing.T) {
	// given
	h := NewHooks()

	// when
	var i int
	var hnd1 Handler = func(ctx context.Context, execCtx *ExecutionContext) error { i++; return nil }
	var hnd2 Handler = func(ctx context.Context, execCtx *ExecutionContext) error { i++; return ErrStopped }
	var hnd3 Handler = func(ctx context.Context, execCtx *ExecutionContext) error { i++; return nil }

	h.AddHook("h1", hnd1, 10)
	h.AddHook("h1", hnd2, 5)
	h.AddHook("h1", hnd3, 0)

	halted, err := h.Run(context.Background(), "h1", nil)

	// then
	require.Nil(t, err)
	require.True(t, halted)

	require.Equal(t, 2, i)
}
