package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/besttest/besttest/internal/repotest"
	"github.com/besttest/besttest/pkg/types"
)

func TestBackendContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) types.Repository { return New() })
}

func TestSaveStoresACopy(t *testing.T) {
	b := New()
	st := repotest.SampleState()
	require.NoError(t, b.Save("p1", st))

	st.Modules[0].Name = "mutated"

	got, err := b.Load("p1")
	require.NoError(t, err)
	assert.Equal(t, "Authentication", got.Modules[0].Name)
}
