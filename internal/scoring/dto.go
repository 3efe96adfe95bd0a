package scoring

const dateLayout = "2006-01-02"

type ScoreResponse struct {
	UserID     int64      `json:"userId"`
	Date       string     `json:"date"`
	ScoreValue float64    `json:"scoreValue"`
	Components Components `json:"components"`
}

type BoardResponse struct {
	Date    string       `json:"date"`
	Entries []BoardEntry `json:"entries"`
}

type TriggerResponse struct {
	Job    string `json:"job"`
	Status string `json:"status"`
}

func ToScoreResponse(s *Score) ScoreResponse {
	return ScoreResponse{
		UserID:     s.UserID,
		Date:       s.Date.Format(dateLayout),
		ScoreValue: s.ScoreValue,
		Components: s.Components,
	}
}

func ToScoreResponses(scores []*Score) []ScoreResponse {
	out := make([]ScoreResponse, 0, len(scores))
	for _, s := range scores {
		out = append(out, ToScoreResponse(s))
	}
	return out
}

func ResultToResponse(r *Result) ScoreResponse {
	return ScoreResponse{
		UserID:     r.UserID,
		Date:       r.Date.Format(dateLayout),
		ScoreValue: r.ScoreValue,
		Components: r.Components,
	}
}
