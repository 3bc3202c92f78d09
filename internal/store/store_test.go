package store_test

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/heysubinoy/keyval/internal/store"
	"github.com/heysubinoy/keyval/pkg/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type backend struct {
	name       string
	persistent bool
	open       func(path string) (kv.Store, error)
}

var backends = []backend{
	{
		name: "memory",
		open: func(string) (kv.Store, error) { return store.NewMemStore(), nil },
	},
	{
		name:       "sqlite",
		persistent: true,
		open: func(path string) (kv.Store, error) {
			s, err := store.NewSQLiteStore(path)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
	},
	{
		name:       "bolt",
		persistent: true,
		open: func(path string) (kv.Store, error) {
			s, err := store.NewBoltStore(path)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
	},
}

func openStore(t *testing.T, b backend) (kv.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), b.name+".db")
	s, err := b.open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

// text draws non-empty strings.
func text() *rapid.Generator[string] {
	return rapid.StringN(1, 64, -1)
}

func TestStore_GetUnknownKey(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s, _ := openStore(t, b)

			val, err := s.Get("never-written")
			assert.ErrorIs(t, err, kv.ErrNotFound)
			assert.Equal(t, "", val)
		})
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s, _ := openStore(t, b)

			rapid.Check(t, func(rt *rapid.T) {
				key := text().Draw(rt, "key")
				value := rapid.String().Draw(rt, "value")

				require.NoError(rt, s.Set(key, value))
				got, err := s.Get(key)
				require.NoError(rt, err)
				assert.Equal(rt, value, got)
			})
		})
	}
}

func TestStore_EmbeddedNUL(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s, _ := openStore(t, b)

			require.NoError(t, s.Set("k\x00ey", "a\x00b"))
			require.NoError(t, s.Set("trailing", "ab\x00"))

			got, err := s.Get("k\x00ey")
			require.NoError(t, err)
			assert.Equal(t, "a\x00b", got)

			got, err = s.Get("trailing")
			require.NoError(t, err)
			assert.Equal(t, "ab\x00", got)

			// A key is not a prefix match for one holding a NUL.
			_, err = s.Get("k")
			assert.ErrorIs(t, err, kv.ErrNotFound)
		})
	}
}

func TestStore_LastWriteWins(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s, _ := openStore(t, b)

			rapid.Check(t, func(rt *rapid.T) {
				key := text().Draw(rt, "key")
				values := rapid.SliceOfN(text(), 1, 8).Draw(rt, "values")

				for _, v := range values {
					require.NoError(rt, s.Set(key, v))
				}
				got, err := s.Get(key)
				require.NoError(rt, err)
				assert.Equal(rt, values[len(values)-1], got)
			})
		})
	}
}

func TestStore_Count(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s, _ := openStore(t, b)

			n, err := s.Count()
			require.NoError(t, err)
			assert.Equal(t, int64(0), n)

			for i := 0; i < 25; i++ {
				require.NoError(t, s.Set(fmt.Sprintf("key-%d", i), "v"))
			}
			n, err = s.Count()
			require.NoError(t, err)
			assert.Equal(t, int64(25), n)

			// Rewriting keys leaves the count alone.
			for i := 0; i < 10; i++ {
				require.NoError(t, s.Set(fmt.Sprintf("key-%d", i), "other"))
			}
			n, err = s.Count()
			require.NoError(t, err)
			assert.Equal(t, int64(25), n)
		})
	}
}

func TestStore_SizeBytes(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s, _ := openStore(t, b)

			require.NoError(t, s.Set("foo", strings.Repeat("x", 4096)))
			size, err := s.SizeBytes()
			require.NoError(t, err)
			assert.Greater(t, size, int64(0))
		})
	}
}

func TestStore_MaxValue(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s, _ := openStore(t, b)

			big := strings.Repeat("a", kv.MaxValueBytes)
			require.NoError(t, s.Set("big", big))
			got, err := s.Get("big")
			require.NoError(t, err)
			assert.Equal(t, len(big), len(got))
		})
	}
}

func TestStore_ConcurrentWritesSameKey(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s, _ := openStore(t, b)

			const writers = 16
			valid := make(map[string]bool, writers)
			var wg sync.WaitGroup
			for i := 0; i < writers; i++ {
				v := fmt.Sprintf("value-%02d-%s", i, strings.Repeat("z", 512))
				valid[v] = true
				wg.Add(1)
				go func() {
					defer wg.Done()
					assert.NoError(t, s.Set("shared", v))
					// Readers never see a torn value.
					got, err := s.Get("shared")
					if assert.NoError(t, err) {
						assert.Contains(t, valid, got)
					}
				}()
			}
			wg.Wait()

			got, err := s.Get("shared")
			require.NoError(t, err)
			assert.True(t, valid[got])

			n, err := s.Count()
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)
		})
	}
}

func TestStore_SurvivesReopen(t *testing.T) {
	for _, b := range backends {
		if !b.persistent {
			continue
		}
		t.Run(b.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), b.name+".db")

			s, err := b.open(path)
			require.NoError(t, err)
			require.NoError(t, s.Set("a", "1"))
			require.NoError(t, s.Set("b", "2"))
			require.NoError(t, s.Set("a", "3"))
			require.NoError(t, s.Close())

			s, err = b.open(path)
			require.NoError(t, err)
			defer s.Close()

			val, err := s.Get("a")
			require.NoError(t, err)
			assert.Equal(t, "3", val)

			n, err := s.Count()
			require.NoError(t, err)
			assert.Equal(t, int64(2), n)
		})
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	for _, backend := range []string{"", store.BackendSQLite, store.BackendBolt, store.BackendMemory} {
		t.Run("backend="+backend, func(t *testing.T) {
			// Parent directories are created on demand.
			path := filepath.Join(dir, "nested", backend+"data.db")
			s, err := store.Open(backend, path)
			require.NoError(t, err)
			defer s.Close()

			require.NoError(t, s.Set("k", "v"))
			val, err := s.Get("k")
			require.NoError(t, err)
			assert.Equal(t, "v", val)
		})
	}

	_, err := store.Open("redis", filepath.Join(dir, "x.db"))
	assert.Error(t, err)

	_, err = store.Open(store.BackendSQLite, "")
	assert.Error(t, err)
}
