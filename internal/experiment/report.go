package experiment

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"papermill/internal/config"
	"papermill/internal/logger"
	"papermill/internal/models"
)

// Runner executes the full evaluation: load, split, select, fit, score.
type Runner struct {
	cfg config.ExperimentConfig
	log *logger.Logger
}

// NewRunner creates a runner for the configured experiment.
func NewRunner(cfg config.ExperimentConfig, log *logger.Logger) *Runner {
	return &Runner{cfg: cfg, log: log}
}

// Run evaluates every baseline on the configured dataset.
func (r *Runner) Run() (*models.ExperimentReport, error) {
	series, err := LoadCSV(r.cfg.Dataset, &CSVOptions{
		ValueColumn: r.cfg.ValueColumn,
		DateColumn:  r.cfg.DateColumn,
		DateFormat:  r.cfg.DateFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	hash, err := fileSHA256(r.cfg.Dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint dataset: %w", err)
	}

	return r.Evaluate(series, hash)
}

// Evaluate scores the baselines on an already-loaded series.
func (r *Runner) Evaluate(series *Series, datasetHash string) (*models.ExperimentReport, error) {
	train, test := series.Split(r.cfg.TrainSplit)
	if len(train) == 0 || len(test) == 0 {
		return nil, ErrTrainTooShort
	}

	horizon := r.cfg.Horizon
	if horizon < 1 {
		horizon = 1
	}

	// Baselines are fitted and rolled in normalized space; predictions are
	// mapped back before scoring so the report stays in dataset units.
	var norm *MinMax
	if r.cfg.Normalize {
		m, err := FitMinMax(train)
		if err != nil {
			r.log.Warn("normalization skipped", "error", err)
		} else {
			norm = m
		}
	}

	scaledTrain, scaledTest := train, test
	if norm != nil {
		scaledTrain = norm.Transform(train)
		scaledTest = norm.Transform(test)
	}

	window, err := SelectWindow(scaledTrain, r.cfg.Windows, horizon)
	if err != nil {
		return nil, fmt.Errorf("window selection failed: %w", err)
	}

	order, err := SelectAROrder(scaledTrain, r.cfg.AROrders)
	if err != nil {
		return nil, fmt.Errorf("order selection failed: %w", err)
	}

	r.log.Info("experiment configuration selected",
		"window", window, "ar_order", order, "horizon", horizon, "normalized", norm != nil)

	report := &models.ExperimentReport{
		Dataset:     r.cfg.Dataset,
		DatasetHash: datasetHash,
		Rows:        series.Len(),
		TrainRows:   len(train),
		TestRows:    len(test),
		Window:      window,
		Horizon:     horizon,
		AROrder:     order,
	}

	forecasters := []Forecaster{
		Naive{},
		SeasonalNaive{Period: r.cfg.SeasonalPeriod},
		MovingAverage{Window: window},
		NewAR(order),
	}

	for _, f := range forecasters {
		score, err := scoreForecaster(f, scaledTrain, scaledTest, test, horizon, norm)
		if err != nil {
			r.log.Warn("baseline skipped", "model", f.Name(), "error", err)
			continue
		}

		report.Scores = append(report.Scores, *score)
	}

	if len(report.Scores) == 0 {
		return nil, fmt.Errorf("no baseline produced a score")
	}

	return report, nil
}

// scoreForecaster fits on the (possibly normalized) training segment, rolls
// predictions over the test segment at the configured horizon, and scores
// them against the original-scale actuals.
func scoreForecaster(f Forecaster, train, test, actual []float64, horizon int, norm *MinMax) (*models.ModelScore, error) {
	if err := f.Fit(train); err != nil {
		return nil, err
	}

	preds, err := RollingForecastHorizon(f, train, test, horizon)
	if err != nil {
		return nil, err
	}

	if norm != nil {
		preds = norm.Inverse(preds)
	}

	mae, err := MAE(actual, preds)
	if err != nil {
		return nil, err
	}

	rmse, err := RMSE(actual, preds)
	if err != nil {
		return nil, err
	}

	mape, skipped, err := MAPE(actual, preds)
	if err != nil {
		return nil, err
	}

	return &models.ModelScore{
		Model:       f.Name(),
		MAE:         mae,
		RMSE:        rmse,
		MAPE:        mape,
		MAPESkipped: skipped,
	}, nil
}

// MarkdownTable renders the report as a markdown table for the Results
// section.
func MarkdownTable(report *models.ExperimentReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "| Model | MAE | RMSE | MAPE (%%) |\n")
	fmt.Fprintf(&b, "| --- | --- | --- | --- |\n")

	for _, s := range report.Scores {
		fmt.Fprintf(&b, "| %s | %.4f | %.4f | %.2f |\n", s.Model, s.MAE, s.RMSE, s.MAPE)
	}

	fmt.Fprintf(&b,
		"\nDataset: %d observations (%d train / %d test, %.0f%% split), window %d, horizon %d, AR order %d. Fingerprint `%s`.\n",
		report.Rows, report.TrainRows, report.TestRows,
		100*float64(report.TrainRows)/float64(report.Rows),
		report.Window, report.Horizon, report.AROrder,
		shortHash(report.DatasetHash),
	)

	return b.String()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
