package session

import (
	"context"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateKeepsTrailingCharacters(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "cde", Truncate("abcde", 3))
	assert.Equal(t, "衰竭", Truncate("心臟衰竭", 2))
	assert.Equal(t, "心臟衰竭", Truncate("心臟衰竭", 4))
}

func stores(t *testing.T) map[string]Store {
	mr := miniredis.RunT(t)
	rs, err := NewRedisStore(mr.Addr(), "", 0, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rs.Close() })
	return map[string]Store{"memory": NewMemoryStore(), "redis": rs}
}

func TestStoreAppendAndCap(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := st.Get(ctx, "U1")
			require.NoError(t, err)
			assert.False(t, ok)

			got, err := st.Append(ctx, "U1", "hello ")
			require.NoError(t, err)
			assert.Equal(t, "hello ", got)

			long := strings.Repeat("a", 1990) + strings.Repeat("心", 20)
			got, err = st.Append(ctx, "U1", long)
			require.NoError(t, err)
			assert.Equal(t, MaxTranscriptLen, utf8.RuneCountInString(got))
			assert.Equal(t, Truncate("hello "+long, MaxTranscriptLen), got)
			assert.True(t, strings.HasSuffix(got, strings.Repeat("心", 20)))

			stored, ok, err := st.Get(ctx, "U1")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, got, stored)
		})
	}
}

func TestStoreDeleteAndClear(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := st.Append(ctx, "U1", "a")
			require.NoError(t, err)
			_, err = st.Append(ctx, "U2", "b")
			require.NoError(t, err)

			n, err := st.Len(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			require.NoError(t, st.Delete(ctx, "U1"))
			require.NoError(t, st.Delete(ctx, "missing"))
			_, ok, err := st.Get(ctx, "U1")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, st.Clear(ctx))
			n, err = st.Len(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, n)
			assert.NoError(t, st.Ping(ctx))
		})
	}
}

func TestMemoryStoreConcurrentAppend(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = st.Append(ctx, "U1", "x")
		}()
	}
	wg.Wait()

	got, _, err := st.Get(ctx, "U1")
	require.NoError(t, err)
	assert.Len(t, got, 50)
}

func TestNewRedisStoreUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	st, err := NewRedisStore(addr, "", 0, 0)
	assert.Error(t, err)
	assert.Nil(t, st)
}
