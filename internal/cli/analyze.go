package cli

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	biomasa "github.com/Evils19/BioMasa"
	"github.com/Evils19/BioMasa/internal/store"
	"github.com/Evils19/BioMasa/pkg/processing"
)

var (
	analyzeTimeout time.Duration
	noSave         bool
	maxDim         int

	analyzeCmd = &cobra.Command{
		Use:   "analyze <image>",
		Short: "Analyze one pasture photograph",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}
)

func init() {
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 5*time.Minute, "overall analysis timeout")
	analyzeCmd.Flags().BoolVar(&noSave, "no-save", false, "do not record the result in the history database")
	analyzeCmd.Flags().IntVar(&maxDim, "max-dim", 0, "downscale the image so its long side does not exceed this many pixels (0 = keep original)")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	app, err := biomasa.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if !app.LocalModelAvailable() {
		log.Printf("local model unavailable, running remote-only")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read image file: %w", err)
	}
	if maxDim > 0 {
		data, err = downscale(data, maxDim)
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), analyzeTimeout)
	defer cancel()

	result, err := app.AnalyzeBytes(ctx, data)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if !noSave {
		st, err := store.NewStore(cfg.Storage.DatabasePath)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Save(*result); err != nil {
			log.Printf("could not record analysis: %v", err)
		}
	}

	// The embedded image would dwarf the useful output
	display := *result
	display.ImageBase64 = ""

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(display)
}

// downscale re-encodes the image as JPEG with its long side capped, keeping
// the remote request payload small on large photographs.
func downscale(data []byte, maxDim int) ([]byte, error) {
	proc := processing.NewProcessor()
	img, err := proc.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b64, err := proc.PrepareImageForModel(img, "jpg", maxDim, 90)
	if err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(b64)
}
