package observer_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"codeberg.org/mutker/laserlog/internal/datalog"
	"codeberg.org/mutker/laserlog/internal/logger"
	"codeberg.org/mutker/laserlog/internal/observer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func point(seq int, values map[string]string) datalog.DataPoint {
	return datalog.DataPoint{
		SessionID: "s",
		Sequence:  uint64(seq),
		At:        base.Add(time.Duration(seq) * time.Second),
		Values:    values,
	}
}

func TestSeriesGroupsByFamily(t *testing.T) {
	s := observer.NewSeries(10)
	s.OnDataPoint(point(1, map[string]string{
		"TecCurrent-SHG":    "1.250",
		"TecVoltage-SHG":    "-2.000",
		"ActualTemp-THG":    "51.31",
		"SetTemp-THG":       "51.30",
		"ActualCurrent-LDD": "12.48",
		"PowerMonitor-Main": "3.21",
		"Flow":              "2.4",
		"Humidity-Head":     "31",
		"PRF":               "100000",
		"Alarms":            "",
	}))

	assert.Equal(t, []string{"SHG"}, s.Labels(observer.TECCurrent))
	assert.Equal(t, []string{"SHG"}, s.Labels(observer.TECVoltage))
	assert.Equal(t, []string{"THG"}, s.Labels(observer.Temperature))
	assert.Equal(t, []string{"LDD"}, s.Labels(observer.DiodeCurrent))
	assert.Equal(t, []string{"Main"}, s.Labels(observer.Power))
	assert.Equal(t, []string{"Flow", "Head"}, s.Labels(observer.Sensor))

	pts := s.Points(observer.TECVoltage, "SHG")
	require.Len(t, pts, 1)
	assert.InDelta(t, -2.0, pts[0].Value, 1e-9)
	assert.Equal(t, base.Add(time.Second), pts[0].At)
	assert.Empty(t, s.Alarms())
}

func TestSeriesWindowIsBounded(t *testing.T) {
	s := observer.NewSeries(3)
	for i := 1; i <= 5; i++ {
		s.OnDataPoint(point(i, map[string]string{"PowerMonitor-Main": "1." + string(rune('0'+i))}))
	}

	pts := s.Points(observer.Power, "Main")
	require.Len(t, pts, 3)
	assert.InDelta(t, 1.3, pts[0].Value, 1e-9)
	assert.InDelta(t, 1.5, pts[2].Value, 1e-9)
}

func TestSeriesSkipsNonNumeric(t *testing.T) {
	s := observer.NewSeries(0)
	s.OnDataPoint(point(1, map[string]string{"PowerMonitor-Main": "n/a"}))
	assert.Empty(t, s.Points(observer.Power, "Main"))
}

func TestSeriesDeduplicatesAlarms(t *testing.T) {
	s := observer.NewSeries(10)
	seq := 0
	next := func(alarm string) {
		seq++
		s.OnDataPoint(point(seq, map[string]string{"Alarms": alarm}))
	}

	next("[Flow low]")
	next("[Flow low]")
	next("[Flow low][Door open]")
	assert.Equal(t, "[Flow low][Door open]", s.ActiveAlarm())
	next("")
	assert.Empty(t, s.ActiveAlarm())
	next("[Flow low]")

	alarms := s.Alarms()
	require.Len(t, alarms, 3)
	assert.Equal(t, "[Flow low]", alarms[0].Message)
	assert.Equal(t, base.Add(time.Second), alarms[0].At)
	assert.Equal(t, "[Flow low][Door open]", alarms[1].Message)
	assert.Equal(t, "[Flow low]", alarms[2].Message)
	assert.Equal(t, base.Add(5*time.Second), alarms[2].At)
}

func TestDebugLogsEveryColumn(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, "debug")
	t.Cleanup(func() { logger.InitWithWriter(&bytes.Buffer{}, "info") })

	observer.NewDebug().OnDataPoint(point(7, map[string]string{"PRF": "100000", "Alarms": ""}))

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "Data point logged", line["message"])
	assert.Equal(t, "observer", line["component"])
	assert.Equal(t, "100000", line["PRF"])
	assert.Equal(t, "", line["Alarms"])
	assert.EqualValues(t, 7, line["seq"])
}
