package reflector

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStruct struct {
	Name string
}

const pkg = "github.com/codewandler/typecache-go/internal/reflector"

func TestTypeInfoFor(t *testing.T) {
	ti := TypeInfoFor[testStruct]()
	require.Equal(t, pkg+".testStruct", ti.Name)
	require.Equal(t, reflect.TypeFor[testStruct](), ti.Type)
}

func TestTypeInfoFor_Pointer(t *testing.T) {
	ti := TypeInfoFor[*testStruct]()
	require.Equal(t, "*"+pkg+".testStruct", ti.Name)
	require.Equal(t, reflect.Pointer, ti.Type.Kind(), "pointers must stay distinct from their element")
}

func TestTypeInfoFor_Builtins(t *testing.T) {
	require.Equal(t, "string", TypeInfoFor[string]().Name)
	require.Equal(t, "int", TypeInfoFor[int]().Name)
	require.Equal(t, "[]uint8", TypeInfoFor[[]byte]().Name)
	require.Equal(t, "map[string]int", TypeInfoFor[map[string]int]().Name)
}

func TestTypeInfoForType_Nil(t *testing.T) {
	ti := TypeInfoForType(nil)
	require.Equal(t, "<nil>", ti.Name)
	require.Nil(t, ti.Type)
}

func TestPairName(t *testing.T) {
	require.Equal(t, "string:*"+pkg+".testStruct", PairName[string, *testStruct]())
	require.Equal(t, "int:string", PairName[int, string]())
}

func TestTypeInfoFor_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, pkg+".testStruct", TypeInfoFor[testStruct]().Name)
		}()
	}
	wg.Wait()
}
