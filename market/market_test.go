package market

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickStore(t *testing.T) {
	t.Parallel()

	s := NewTickStore()

	_, err := s.Get("BTCUSDT")
	assert.ErrorIs(t, err, ErrNoPrice)

	now := time.Now()
	s.Set(Tick{Symbol: "BTCUSDT", Price: 50000, Time: now})
	s.Set(Tick{Symbol: "ETHUSDT", Price: 2000, Time: now})

	tick, err := s.Get("BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 50000.0, tick.Price)

	snap := s.Snapshot()
	assert.Equal(t, map[string]float64{"BTCUSDT": 50000, "ETHUSDT": 2000}, snap)
}

func TestSide(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "long", Long.String())
	assert.Equal(t, "short", Short.String())
	assert.Equal(t, Short, Long.Opposite())
	assert.Equal(t, 1.0, Long.Sign())
	assert.Equal(t, -1.0, Short.Sign())
}

func TestCandleBuilder(t *testing.T) {
	t.Parallel()

	b := NewCandleBuilder(time.Minute)
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_, done := b.Add(Tick{Symbol: "BTCUSDT", Price: 100, Time: start})
	assert.False(t, done)
	_, done = b.Add(Tick{Symbol: "BTCUSDT", Price: 110, Time: start.Add(10 * time.Second)})
	assert.False(t, done)
	_, done = b.Add(Tick{Symbol: "BTCUSDT", Price: 95, Time: start.Add(30 * time.Second)})
	assert.False(t, done)

	// Next minute closes the first candle.
	c, done := b.Add(Tick{Symbol: "BTCUSDT", Price: 105, Time: start.Add(time.Minute)})
	require.True(t, done)
	assert.Equal(t, 100.0, c.Open)
	assert.Equal(t, 110.0, c.High)
	assert.Equal(t, 95.0, c.Low)
	assert.Equal(t, 95.0, c.Close)
	assert.Equal(t, start, c.Time)

	cur, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, 105.0, cur.Open)
}

func TestTimeframeDuration(t *testing.T) {
	t.Parallel()

	d, err := TimeframeDuration("1h")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, d)

	_, err = TimeframeDuration("7m")
	assert.Error(t, err)
}

func TestReadCandles(t *testing.T) {
	t.Parallel()

	data := strings.Join([]string{
		"time,open,high,low,close,volume",
		"2025-06-01T00:00:00Z,100,110,95,105,12.5",
		"2025-06-01T01:00:00Z,105,115,100,112,8.1",
	}, "\n")

	candles, err := ReadCandles(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, 105.0, candles[0].Close)
	assert.Equal(t, 112.0, candles[1].Close)

	_, err = ReadCandles(strings.NewReader("time,open,high,low,close,volume\nnot-a-time,1,2,3,4,5"))
	assert.Error(t, err)
}
