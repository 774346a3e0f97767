package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRawComplaint(t *testing.T) {
	t.Run("string fields", func(t *testing.T) {
		data := []byte(`{"settlement":"Hofit","openDate":"2024-01-01","topic":"Noise","department":"Security","status":"Open","temperature":"18.5","duration":"2","exceededDeadline":0,"exceededDeadlinePercentage":0}`)
		rec, err := DecodeRawComplaint(data)
		require.NoError(t, err)
		assert.Equal(t, LooseString("Hofit"), rec.Locality)
		assert.Equal(t, LooseString("18.5"), rec.Temperature)
		assert.Equal(t, Status("Open"), rec.Status)
	})

	t.Run("numbers and nulls", func(t *testing.T) {
		data := []byte(`{"settlement":"Hofit","openDate":1704067200000,"temperature":18.5,"duration":null,"exceededDeadline":"1","exceededDeadlinePercentage":"50"}`)
		rec, err := DecodeRawComplaint(data)
		require.NoError(t, err)
		assert.Equal(t, LooseString("1704067200000"), rec.OpenDate)
		assert.Equal(t, LooseString("18.5"), rec.Temperature)
		assert.Empty(t, rec.Duration)
		assert.Equal(t, LooseInt(1), rec.ExceededDeadline)
		assert.Equal(t, LooseInt(50), rec.ExceededDeadlinePercentage)
	})

	t.Run("decoded numbers clean like strings", func(t *testing.T) {
		data := []byte(`{"settlement":"Hofit","openDate":1704067200000,"temperature":18.5}`)
		rec, err := DecodeRawComplaint(data)
		require.NoError(t, err)

		out, _ := Clean([]RawComplaint{rec})
		require.Len(t, out, 1)
		assert.Equal(t, 2024, out[0].Date.Year())
		assert.InDelta(t, 18.5, out[0].Temperature, 1e-9)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := DecodeRawComplaint([]byte("{nope"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode raw complaint")
	})

	t.Run("object in loose field", func(t *testing.T) {
		_, err := DecodeRawComplaint([]byte(`{"temperature":{"c":1}}`))
		assert.Error(t, err)
	})
}

func TestStatusClosed(t *testing.T) {
	assert.True(t, StatusHandled.Closed())
	assert.True(t, Status(" "+string(StatusNoResponse)+" ").Closed())
	assert.False(t, Status("בטיפול").Closed())
	assert.False(t, Status("").Closed())
}
