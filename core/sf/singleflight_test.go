package sf

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroup_Do(t *testing.T) {
	g := New[string, int]()
	v, err, _ := g.Do("a", func() (int, error) { return 42, nil })
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestGroup_Do_Error(t *testing.T) {
	g := New[string, string]()
	boom := errors.New("boom")
	v, err, _ := g.Do("a", func() (string, error) { return "ignored", boom })
	require.ErrorIs(t, err, boom)
	require.Empty(t, v)
}

func TestGroup_Do_Coalesces(t *testing.T) {
	var (
		g       Group[string, int]
		calls   atomic.Int32
		release = make(chan struct{})
		wg      sync.WaitGroup
	)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err, _ := g.Do("k", func() (int, error) {
				calls.Add(1)
				<-release
				return 7, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 7, v)
		}()
	}

	// give the goroutines a chance to join the in-flight call
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
}

func TestGroup_Do_DistinctKeys(t *testing.T) {
	var (
		g       Group[any, string]
		release = make(chan struct{})
		entered = make(chan struct{})
		done    = make(chan string)
	)

	// int(1) and int64(1) print the same but are different keys
	go func() {
		v, _, _ := g.Do(int(1), func() (string, error) {
			close(entered)
			<-release
			return "int", nil
		})
		done <- v
	}()
	<-entered

	v, err, shared := g.Do(int64(1), func() (string, error) { return "int64", nil })
	require.NoError(t, err)
	require.False(t, shared)
	require.Equal(t, "int64", v)

	close(release)
	require.Equal(t, "int", <-done)
	require.Empty(t, g.slots, "slots are released once no caller holds them")
}

func TestGroup_Forget(t *testing.T) {
	var (
		g       Group[string, int]
		release = make(chan struct{})
		entered = make(chan struct{})
		done    = make(chan int)
	)

	go func() {
		v, _, _ := g.Do("k", func() (int, error) {
			close(entered)
			<-release
			return 1, nil
		})
		done <- v
	}()
	<-entered

	g.Forget("k")
	v, err, shared := g.Do("k", func() (int, error) { return 2, nil })
	require.NoError(t, err)
	require.False(t, shared)
	require.Equal(t, 2, v)

	close(release)
	require.Equal(t, 1, <-done)

	// forgetting an idle key is a no-op
	g.Forget("idle")
}
