package models

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/CodeAndHammer/eventdle/internal/catalog"
	"github.com/CodeAndHammer/eventdle/internal/codec"
)

// WrongPlace is a guessed character that occurs in the secret, but not at Index.
// It is encoded as a two-element JSON array: [index, "char"].
type WrongPlace struct {
	Index int
	Char  string
}

func (w WrongPlace) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{w.Index, w.Char})
}

func (w *WrongPlace) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("wrong place: want 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &w.Index); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &w.Char)
}

type GuessResult struct {
	Correct        bool         `json:"correct"`
	CorrectIndexes []int        `json:"correct_indexes"`
	WrongPlaces    []WrongPlace `json:"wrong_places"`
}

type StartGameResponse struct {
	Question catalog.QuestionID `json:"question"`
	Hash     string             `json:"hash"`
	Length   int                `json:"length"`
}

type CheckRequest struct {
	Hash  string `json:"hash" binding:"required"`
	Event string `json:"event"`
}

type RateLimiterEntry struct {
	Limiter        *rate.Limiter
	LastAccessTime time.Time
}

type App struct {
	Catalog        *catalog.Catalog
	Codec          *codec.Codec
	LimiterMap     map[string]*RateLimiterEntry
	LimiterMutex   sync.RWMutex
	IsProduction   bool
	StartTime      time.Time
	StaticDir      string
	StaticCacheAge time.Duration
	RateLimitRPS   int
	RateLimitBurst int
	RateLimiterTTL time.Duration
	CORSOrigins    []string
}
