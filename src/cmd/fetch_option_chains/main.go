package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/petewilburn/ibkr-options-chains/src/eventmodels"
	"github.com/petewilburn/ibkr-options-chains/src/eventservices"
	"github.com/petewilburn/ibkr-options-chains/src/logger"
	"github.com/petewilburn/ibkr-options-chains/src/utils"
)

const defaultGatewayURL = "https://localhost:5001"

type RunArgs struct {
	GoEnv      string
	Symbol     string
	Exchange   string
	PriceRange float64
	Right      string
	Month      string
	OutDir     string
	ConfigFile string
}

type RunResult struct {
	ExportedFilepaths []string
}

var runCmd = &cobra.Command{
	Use:   "go run src/cmd/fetch_option_chains/main.go --symbol AAPL --exchange NASDAQ --price-range 15",
	Short: "Fetch an options chain from the local IBKR gateway and export it to CSV",
	Run: func(cmd *cobra.Command, args []string) {
		goEnv, err := cmd.Flags().GetString("go-env")
		if err != nil {
			log.Fatalf("error getting go-env: %v", err)
		}

		symbol, err := cmd.Flags().GetString("symbol")
		if err != nil {
			log.Fatalf("error getting symbol: %v", err)
		}

		exchange, err := cmd.Flags().GetString("exchange")
		if err != nil {
			log.Fatalf("error getting exchange: %v", err)
		}

		priceRange, err := cmd.Flags().GetFloat64("price-range")
		if err != nil {
			log.Fatalf("error getting price-range: %v", err)
		}

		right, err := cmd.Flags().GetString("right")
		if err != nil {
			log.Fatalf("error getting right: %v", err)
		}

		month, err := cmd.Flags().GetString("month")
		if err != nil {
			log.Fatalf("error getting month: %v", err)
		}

		outDir, err := cmd.Flags().GetString("out-dir")
		if err != nil {
			log.Fatalf("error getting out-dir: %v", err)
		}

		configFile, err := cmd.Flags().GetString("config")
		if err != nil {
			log.Fatalf("error getting config: %v", err)
		}

		result, err := Run(RunArgs{
			GoEnv:      goEnv,
			Symbol:     symbol,
			Exchange:   exchange,
			PriceRange: priceRange,
			Right:      right,
			Month:      month,
			OutDir:     outDir,
			ConfigFile: configFile,
		})

		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		for _, filepath := range result.ExportedFilepaths {
			fmt.Printf("Exported: %s\n", filepath)
		}
	},
}

func jobsFromArgs(args RunArgs) ([]eventmodels.OptionsJobYAML, error) {
	if args.ConfigFile != "" {
		config, err := eventmodels.LoadOptionsConfig(args.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("jobsFromArgs: %w", err)
		}

		return config.Jobs, nil
	}

	job := eventmodels.OptionsJobYAML{
		Symbol:     args.Symbol,
		Exchange:   args.Exchange,
		PriceRange: args.PriceRange,
		Right:      args.Right,
		Month:      args.Month,
	}

	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("jobsFromArgs: %w", err)
	}

	return []eventmodels.OptionsJobYAML{job}, nil
}

func Run(args RunArgs) (RunResult, error) {
	logger.Init(os.Getenv("LOG_LEVEL"))

	if err := utils.InitEnvironmentVariables(args.GoEnv); err != nil {
		return RunResult{}, fmt.Errorf("error loading environment variables: %v", err)
	}

	jobs, err := jobsFromArgs(args)
	if err != nil {
		return RunResult{}, err
	}

	gatewayURL := os.Getenv("IBKR_GATEWAY_URL")
	if gatewayURL == "" {
		gatewayURL = defaultGatewayURL
	}

	timeout := 30 * time.Second
	if timeoutStr := os.Getenv("IBKR_GATEWAY_TIMEOUT"); timeoutStr != "" {
		parsed, parseErr := time.ParseDuration(timeoutStr)
		if parseErr != nil {
			return RunResult{}, fmt.Errorf("invalid IBKR_GATEWAY_TIMEOUT: %v", parseErr)
		}

		timeout = parsed
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := eventservices.NewGatewayClient(gatewayURL, timeout)

	var result RunResult

	for _, job := range jobs {
		params := eventservices.FetchOptionChainParams{
			Symbol:     eventmodels.NewStockSymbol(job.Symbol),
			Exchange:   job.Exchange,
			PriceRange: job.PriceRange,
			OptionType: job.OptionType(),
			Month:      job.Month,
			Progress: func(current int, total int, strike float64) {
				log.Infof("[%d/%d] Processing strike %.2f", current, total, strike)
			},
		}

		chain, err := eventservices.FetchOptionChain(ctx, client, params)
		if err != nil {
			return RunResult{}, fmt.Errorf("error fetching option chain for %s: %w", job.Symbol, err)
		}

		outFile, err := eventservices.ExportOptionChainToCsv(chain, args.OutDir, "", time.Now().UTC())
		if err != nil {
			return RunResult{}, fmt.Errorf("error exporting option chain for %s: %w", job.Symbol, err)
		}

		result.ExportedFilepaths = append(result.ExportedFilepaths, outFile)
	}

	client.Monitor.RenderSummary(os.Stdout)

	return result, nil
}

func main() {
	runCmd.PersistentFlags().String("go-env", "development", "The go environment to run the command in.")
	runCmd.PersistentFlags().String("symbol", "", "The underlying stock symbol, e.g. AAPL.")
	runCmd.PersistentFlags().String("exchange", "", "The primary listing exchange, e.g. NASDAQ.")
	runCmd.PersistentFlags().Float64("price-range", 10.0, "The strike range above/below the current price to include.")
	runCmd.PersistentFlags().String("right", "P", "The option right: P or C.")
	runCmd.PersistentFlags().String("month", "", "The expiration month, e.g. JAN26. Defaults to the front month.")
	runCmd.PersistentFlags().String("out-dir", "", "The directory to write the output to.")
	runCmd.PersistentFlags().String("config", "", "Path to a YAML jobs config. Overrides the single-job flags.")

	runCmd.Execute()
}
