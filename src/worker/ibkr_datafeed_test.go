package worker

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIBSubscribe(t *testing.T) {
	assert.Equal(t, `smd+265598+{"fields":["31"]}`, string(IBSubscribe("265598")))
}

func TestIBIncomingTickDTOToTick(t *testing.T) {
	payload := `{"topic":"smd+265598","_updated":1700000000500,"31":"189.97","conid":265598}`

	var dto IBIncomingTickDTO
	require.NoError(t, json.Unmarshal([]byte(payload), &dto))

	tick, err := dto.ToTick()
	require.NoError(t, err)

	assert.Equal(t, 265598, tick.ConID)
	assert.Equal(t, 189.97, tick.Price)
	assert.Equal(t, time.Unix(1700000000, 500*int64(time.Millisecond)).UnixMilli(), tick.Timestamp.UnixMilli())
}

func TestIBIncomingTickDTOToTickErrors(t *testing.T) {
	t.Run("missing conid", func(t *testing.T) {
		dto := IBIncomingTickDTO{Topic: "smd+265598", Price: "189.97"}

		_, err := dto.ToTick()
		assert.Error(t, err)
	})

	t.Run("unparseable price", func(t *testing.T) {
		dto := IBIncomingTickDTO{Topic: "smd+265598", ConID: 265598, Price: ""}

		_, err := dto.ToTick()
		assert.Error(t, err)
	})
}
