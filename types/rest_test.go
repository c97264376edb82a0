package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIResponse_KLines(t *testing.T) {
	body := `{"status":0,"data":[{"openTime":"1618588800000","open":"6376000","high":"6475000","low":"6330000","close":"6444000","volume":"54.3466"}],"responsetime":"2021-04-17T06:11:37.561Z"}`

	var resp APIResponse[[]KLine]
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	require.Len(t, resp.Data, 1)

	k := resp.Data[0]
	assert.Equal(t, time.Date(2021, 4, 16, 16, 0, 0, 0, time.UTC), k.OpenTime.Time())
	assert.Equal(t, "54.3466", k.Volume.String())
}

func TestAPIResponse_ErrorMessages(t *testing.T) {
	body := `{"status":5,"messages":[{"message_code":"ERR-5201","message_string":"MAINTENANCE. Please wait for a while"}],"responsetime":"2019-03-19T02:15:06.001Z"}`

	var resp APIResponse[StatusResponse]
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, 5, resp.Status)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "ERR-5201", resp.Messages[0].Code)
}

func TestAccountMargin_NullRatio(t *testing.T) {
	body := `{"actualProfitLoss":"68286188","availableAmount":"57262506","margin":"1021682","marginCallStatus":"NORMAL","marginRatio":null,"profitLoss":"0","transferableAmount":"57262506"}`

	var m AccountMargin
	require.NoError(t, json.Unmarshal([]byte(body), &m))
	assert.False(t, m.MarginRatio.Valid)
	assert.Equal(t, MarginNormal, m.MarginCallStatus)
}

func TestKLineInterval_Daily(t *testing.T) {
	assert.False(t, Interval1Min.Daily())
	assert.False(t, Interval1Hour.Daily())
	assert.True(t, Interval4Hour.Daily())
	assert.True(t, Interval1Month.Daily())
}
