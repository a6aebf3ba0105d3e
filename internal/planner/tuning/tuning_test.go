package tuning

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSorted(t *testing.T) {
	tn := Default()
	tn.Penalties = []PenaltyTier{{MaxDays: 7, Penalty: 1}, {MaxDays: 1, Penalty: 100}}

	sorted := tn.Sorted()
	assert.Equal(t, 100.0, sorted.Penalty(1))
	assert.Equal(t, 1.0, sorted.Penalty(4))
	assert.Equal(t, 0.0, sorted.Penalty(8))
	assert.Equal(t, 7, tn.Penalties[0].MaxDays, "the receiver keeps its order")
}

// Configuration loads this package, so it must not reach back into the module.
func TestNoModuleImports(t *testing.T) {
	files, err := filepath.Glob("*.go")
	require.NoError(t, err)

	fset := token.NewFileSet()
	for _, name := range files {
		src, err := os.ReadFile(name)
		require.NoError(t, err)
		f, err := parser.ParseFile(fset, name, src, parser.ImportsOnly)
		require.NoError(t, err)
		for _, imp := range f.Imports {
			assert.False(t, strings.HasPrefix(strings.Trim(imp.Path.Value, `"`), "meal-rotation/"),
				"%s imports %s", name, imp.Path.Value)
		}
	}
}
