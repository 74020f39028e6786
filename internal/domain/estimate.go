package domain

import "time"

// Estimate is the outcome of the komi bisection for one position.
type Estimate struct {
	Komi    float64 `json:"score_komi" bson:"score_komi"`
	Neural  float64 `json:"score_neural" bson:"score_neural"`
	Winrate float64 `json:"winrate_komi" bson:"winrate_komi"`
}

// Row is one line of output: a position and its estimate.
type Row struct {
	Size      int       `json:"size" bson:"board_size"`
	Stones    string    `json:"stones" bson:"stones"`
	NumStones int       `json:"num_stones" bson:"num_stones"`
	Handicap  bool      `json:"handicap" bson:"handicap"`
	UpdatedAt time.Time `json:"-" bson:"updated_at"`
	Estimate  `bson:",inline"`
}
