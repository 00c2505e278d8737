package eventservices

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"

	"github.com/petewilburn/ibkr-options-chains/src/eventmodels"
)

// ExportOptionChainToCsv writes the chain's contracts to a CSV file,
// ordered by ascending strike, and returns the output path. An empty
// filename generates a timestamped default.
func ExportOptionChainToCsv(chain *eventmodels.OptionChain, outDir string, filename string, exportedAt time.Time) (string, error) {
	if chain.NumContracts() == 0 {
		return "", fmt.Errorf("ExportOptionChainToCsv: %s: %w", chain.UnderlyingSymbol, eventmodels.ErrNoContractsToSave)
	}

	if filename == "" {
		filename = fmt.Sprintf("options_contracts_%s.csv", exportedAt.Format("20060102_150405"))
	}

	outFile := filename
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return "", fmt.Errorf("ExportOptionChainToCsv: failed to create directory %s: %v", outDir, err)
		}

		outFile = path.Join(outDir, filename)
	}

	log.Infof("Exporting %d strike groups to %s", len(chain.ContractsByStrike), outFile)

	file, err := os.Create(outFile)
	if err != nil {
		return "", fmt.Errorf("ExportOptionChainToCsv: error creating CSV file: %v", err)
	}

	defer file.Close()

	rows := make([]*eventmodels.OptionContractCsvDTO, 0, chain.NumContracts())
	for _, contract := range chain.SortedContracts() {
		rows = append(rows, contract.ToCsvDTO(exportedAt))
	}

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return "", fmt.Errorf("ExportOptionChainToCsv: error marshalling file: %v", err)
	}

	log.Infof("Exported %d contracts to %s", len(rows), outFile)

	return outFile, nil
}
