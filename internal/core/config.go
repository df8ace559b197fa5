package core

import (
	"log"
	"time"

	"github.com/lumipallolabs/textscan/internal/checkpoint"
	"github.com/lumipallolabs/textscan/internal/estimate"
	"github.com/lumipallolabs/textscan/internal/exclude"
	"github.com/lumipallolabs/textscan/internal/logging"
)

// Config is the immutable configuration a controller is built with.
type Config struct {
	MinFileSize    int64         // files below this are never evaluated
	SaveBatch      int           // checkpoint after this many directories
	SaveInterval   time.Duration // or after this much time, whichever first
	EstimateBuffer int64         // denominator headroom when estimates run behind
	SystemRoots    []string      // directory subtrees pruned from every walk
	RecordDir      string        // where checkpoint and count records live
	Policy         estimate.PolicyResolver
	Log            *log.Logger
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		MinFileSize:    256,
		SaveBatch:      100,
		SaveInterval:   30 * time.Second,
		EstimateBuffer: 1000,
		SystemRoots:    exclude.DefaultSystemRoots(),
		RecordDir:      checkpoint.DefaultDir(),
		Policy:         estimate.DefaultPolicy,
		Log:            logging.New(),
	}
}
