package checklist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s := Default()

	c, err := s.Get("")
	require.NoError(t, err)
	assert.Equal(t, "5s", c.Name)
	assert.Equal(t, "Reporte_Auditorias_5S", c.Kind)
	assert.Len(t, c.Questions, 25)
	assert.Equal(t, "¿El pasillo peatonal se encuentra libre de obstáculos?", c.Questions[4])
	assert.Contains(t, c.Areas, "Mensajería y Distribución")

	ext, err := s.Get("extintores")
	require.NoError(t, err)
	assert.Len(t, ext.Questions, 7)
	assert.Equal(t, "Reporte_Extintores", ext.Kind)

	kits, err := s.Get("botiquines")
	require.NoError(t, err)
	assert.Len(t, kits.Questions, 5)
}

func TestGetUnknown(t *testing.T) {
	_, err := Default().Get("montacargas")
	assert.ErrorIs(t, err, ErrUnknownChecklist)
}

func TestLoadEmptyPathIsDefault(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Len(t, s.Checklists, 3)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checklist.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
checklists:
  - name: patio
    kind: Reporte_Patio
    questions:
      - "¿El patio está limpio?"
      - "¿Las rampas están despejadas?"
`), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	c, err := s.Get("")
	require.NoError(t, err)
	assert.Equal(t, "patio", c.Name)
	assert.Equal(t, []string{"¿El patio está limpio?", "¿Las rampas están despejadas?"}, c.Questions)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read checklist")
}

func TestParseInvalid(t *testing.T) {
	cases := map[string]string{
		"empty":        `checklists: []`,
		"no name":      "checklists:\n  - questions: [\"a\"]\n",
		"no questions": "checklists:\n  - name: a\n",
		"blank":        "checklists:\n  - name: a\n    questions: [\" \"]\n",
		"duplicate":    "checklists:\n  - name: a\n    questions: [\"q\"]\n  - name: a\n    questions: [\"q\"]\n",
		"not yaml":     "checklists: [",
	}
	for name, doc := range cases {
		_, err := Parse([]byte(doc))
		assert.Error(t, err, name)
	}
}
