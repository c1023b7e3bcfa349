package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"valyxo/errors"
	"valyxo/logging"
	"valyxo/script"
)

// BatchMode executes a ValyxoScript file without starting the shell. Imports
// resolve relative to the script's own directory; execution aborts on the
// first error.
func BatchMode(filePath string, cfg *Config, logger logging.Logger) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return errors.NewSystemError("SCRIPT_READ_FAILED",
			fmt.Sprintf("failed to read script '%s'", filePath)).Wrap(err)
	}

	scriptDir := filepath.Dir(filePath)
	loader := func(name string) (string, error) {
		imported, err := os.ReadFile(filepath.Join(scriptDir, name))
		if err != nil {
			return "", err
		}
		return string(imported), nil
	}

	runtime := script.New(
		script.WithOutput(os.Stdout),
		script.WithMaxIterations(cfg.Script.MaxIterations),
		script.WithImportLoader(loader),
	)

	log := logger.WithComponent("batch")
	start := time.Now()
	log.Debug("executing script",
		logging.StringField("file", filePath),
		logging.IntField("bytes", len(data)))

	if err := runtime.RunProgram(string(data)); err != nil {
		log.ErrorScript(err, logging.StringField("file", filePath))
		return err
	}

	log.Debug("script finished",
		logging.StringField("file", filePath),
		logging.DurationField("duration", time.Since(start)))
	return nil
}
