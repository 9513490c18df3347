package predlog

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Veraticus/credit-risk-model/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prediction(customer string, p float64) model.Prediction {
	return model.Prediction{
		Transaction: model.Transaction{
			CustomerID:      customer,
			Amount:          95000,
			Value:           10,
			ProductCategory: "loan",
			ChannelID:       "ChannelId_2",
			ProviderID:      "ProviderId_3",
			StartTime:       "2018-11-15 03:12:00+00:00",
		},
		Probability: p,
		Label:       model.LabelFor(p),
		Band:        model.BandFor(p),
	}
}

func readRecords(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestAppend_HeaderWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "predictions_log.csv")
	ctx := context.Background()

	log, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, log.Append(ctx, []model.Prediction{prediction("c1", 0.7)}))
	require.NoError(t, log.Close())

	log, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, log.Append(ctx, []model.Prediction{prediction("c2", 0.1), prediction("c3", 0.3)}))
	require.NoError(t, log.Append(ctx, nil))
	require.NoError(t, log.Close())

	records := readRecords(t, path)
	require.Len(t, records, 4)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, []string{"c1", "95000", "10", "loan", "ChannelId_2", "ProviderId_3", "2018-11-15 03:12:00+00:00", "0.7", "1", "High"}, records[1])
	assert.Equal(t, "Low", records[2][9])
	assert.Equal(t, "Medium", records[3][9])
}

func TestAppend_Concurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "predictions_log.csv")
	log, err := Open(path)
	require.NoError(t, err)
	defer log.Close()

	const writers, perWriter = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				p := prediction(fmt.Sprintf("w%d-%d", w, i), 0.5)
				assert.NoError(t, log.Append(context.Background(), []model.Prediction{p}))
			}
		}(w)
	}
	wg.Wait()

	records := readRecords(t, path)
	require.Len(t, records, 1+writers*perWriter)
	headers := 0
	for _, r := range records {
		assert.Len(t, r, len(Header))
		if r[0] == Header[0] {
			headers++
		}
	}
	assert.Equal(t, 1, headers)
}

func TestAppend_Cancelled(t *testing.T) {
	log, err := Open(filepath.Join(t.TempDir(), "log.csv"))
	require.NoError(t, err)
	defer log.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, log.Append(ctx, []model.Prediction{prediction("c", 0.2)}), context.Canceled)
}
