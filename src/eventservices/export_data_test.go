package eventservices

import (
	"os"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petewilburn/ibkr-options-chains/src/eventmodels"
)

func newTestChain(t *testing.T) *eventmodels.OptionChain {
	t.Helper()

	chain := eventmodels.NewOptionChain("AAPL", "265598", 189.50, "JAN26", time.Now().UTC())

	chain.AddContracts(195, []*eventmodels.OptionContract{
		{ConID: "9195", UnderlyingSymbol: "AAPL", Strike: 195, MaturityDate: "20260116", OptionType: eventmodels.OptionTypePut},
	})
	chain.AddContracts(185, []*eventmodels.OptionContract{
		{ConID: "9185", UnderlyingSymbol: "AAPL", Strike: 185, MaturityDate: "20260116", OptionType: eventmodels.OptionTypePut},
	})

	return chain
}

func TestExportOptionChainToCsv(t *testing.T) {
	outDir := t.TempDir()
	exportedAt := time.Date(2026, 1, 5, 14, 30, 0, 0, time.UTC)

	outFile, err := ExportOptionChainToCsv(newTestChain(t), outDir, "", exportedAt)
	require.NoError(t, err)

	assert.Equal(t, path.Join(outDir, "options_contracts_20260105_143000.csv"), outFile)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, "contract_id,symbol,strike_price,maturity_date,contract_type,export_timestamp", lines[0])
	assert.Equal(t, "9185,AAPL,185.00,20260116,PUT,2026-01-05T14:30:00Z", lines[1])
	assert.Equal(t, "9195,AAPL,195.00,20260116,PUT,2026-01-05T14:30:00Z", lines[2])
}

func TestExportOptionChainToCsvCustomFilename(t *testing.T) {
	outDir := t.TempDir()

	outFile, err := ExportOptionChainToCsv(newTestChain(t), outDir, "aapl_puts.csv", time.Now().UTC())
	require.NoError(t, err)

	assert.Equal(t, path.Join(outDir, "aapl_puts.csv"), outFile)

	_, err = os.Stat(outFile)
	assert.NoError(t, err)
}

func TestExportOptionChainToCsvEmptyChain(t *testing.T) {
	chain := eventmodels.NewOptionChain("AAPL", "265598", 189.50, "JAN26", time.Now().UTC())

	_, err := ExportOptionChainToCsv(chain, t.TempDir(), "", time.Now().UTC())
	assert.ErrorIs(t, err, eventmodels.ErrNoContractsToSave)
}
