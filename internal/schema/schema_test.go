package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Área", "area"},
		{" Comprobación  Incidencia ", "comprobacion incidencia"},
		{"RUT", "rut"},
		{"Día", "dia"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestNormalizeWorkerID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{" 12.345.678-9 ", "12345678-9"},
		{"12345678-9", "12345678-9"},
		{"ab 12. 3", "AB123"},
		{"12.345.678-k", "12345678-K"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeWorkerID(tt.in))
		})
	}
}

func TestBuildMapping(t *testing.T) {
	t.Parallel()

	headers := []string{"Nombre del Colaborador", "RUT", "Área", "Supervisor", "Fecha Entrada", "Hora Entrada"}
	m := BuildMapping(headers, nil)

	i, ok := m.Index(ColWorkerID)
	require.True(t, ok)
	assert.Equal(t, 1, i)

	i, ok = m.Index(ColArea)
	require.True(t, ok)
	assert.Equal(t, 2, i)

	assert.True(t, m.Has(ColEntryDate))
	assert.True(t, m.Has(ColEntryTime))
	assert.False(t, m.Has(ColExitTime))
}

func TestBuildMappingOverrideWins(t *testing.T) {
	t.Parallel()

	headers := []string{"Cédula", "RUT"}
	m := BuildMapping(headers, map[string]string{ColWorkerID: "Cédula"})

	i, ok := m.Index(ColWorkerID)
	require.True(t, ok)
	assert.Equal(t, 0, i)
}

func TestMappingCell(t *testing.T) {
	t.Parallel()

	m := BuildMapping([]string{"RUT", "Turno"}, nil)
	row := []string{" 11.111.111-1 ", "T1"}

	assert.Equal(t, "11.111.111-1", m.Cell(row, ColWorkerID))
	assert.Equal(t, "T1", m.Cell(row, ColDeclaredShift))
	assert.Equal(t, "", m.Cell(row, ColArea))
	assert.Equal(t, "", m.Cell([]string{}, ColWorkerID))
}

func TestLoadOverrides(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte("attendance:\n  worker_id: Cédula\n"), 0o644))

	o, err := LoadOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, "Cédula", o.Attendance[ColWorkerID])

	o, err = LoadOverrides("")
	require.NoError(t, err)
	assert.Nil(t, o.Attendance)

	_, err = LoadOverrides(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
