package models

// ModelScore holds evaluation metrics for one forecasting baseline.
type ModelScore struct {
	Model       string  `json:"model"`
	MAE         float64 `json:"mae"`
	RMSE        float64 `json:"rmse"`
	MAPE        float64 `json:"mape"`
	MAPESkipped int     `json:"mapeSkipped"`
}

// ExperimentReport is the persisted output of the experiment stage. The
// generate stage feeds it into the Results section so quoted numbers are
// reproducible from the dataset.
type ExperimentReport struct {
	Dataset     string       `json:"dataset"`
	DatasetHash string       `json:"datasetHash"`
	Rows        int          `json:"rows"`
	TrainRows   int          `json:"trainRows"`
	TestRows    int          `json:"testRows"`
	Window      int          `json:"window"`
	Horizon     int          `json:"horizon"`
	AROrder     int          `json:"arOrder"`
	Scores      []ModelScore `json:"scores"`
}

// Best returns the score with the lowest RMSE, or nil when empty.
func (r *ExperimentReport) Best() *ModelScore {
	var best *ModelScore
	for i := range r.Scores {
		if best == nil || r.Scores[i].RMSE < best.RMSE {
			best = &r.Scores[i]
		}
	}
	return best
}
