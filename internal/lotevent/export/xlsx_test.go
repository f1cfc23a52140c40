package export

import (
	"bytes"
	"testing"
	"time"

	lotevent "github.com/agrilink/agrilink/internal/lotevent/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	temp := 24.5
	events := []lotevent.Event{
		{ID: 1, Type: lotevent.TypePlanted, At: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC), Place: "Field 1"},
		{ID: 2, Type: lotevent.TypeSensor, Temp: &temp, At: time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC), Note: "Sensor reading from Master Device"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "DEMOLOT", events))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, headers[0], rows[0][0])
	assert.Equal(t, "PLANTED", rows[1][1])
	assert.Equal(t, "24.5", rows[2][3])
	assert.Equal(t, "Sensor reading from Master Device", rows[2][6])
}
