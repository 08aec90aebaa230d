package outwriter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/huangsam/corpusmetrics/internal/contract"
	"github.com/huangsam/corpusmetrics/internal/tabular"
)

// statusOutput receives the "wrote file" notices; tests swap it out.
var statusOutput io.Writer = os.Stderr

// announce reports a file written by one of the writers.
func announce(successMsg, outputFile string) {
	_, _ = fmt.Fprintf(statusOutput, "💾 %s to %s\n", successMsg, outputFile)
}

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		announce(successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeRecords writes records with the table codec. Files are replaced atomically;
// stdout gets the same bytes followed by a newline for the terminal.
func writeRecords(outputFile string, records [][]string) error {
	if outputFile == "" {
		if err := tabular.WriteTo(os.Stdout, records); err != nil {
			return err
		}
		if len(records) > 0 {
			_, err := fmt.Fprintln(os.Stdout)
			return err
		}
		return nil
	}
	if err := tabular.WriteFile(outputFile, records); err != nil {
		return err
	}
	announce("Wrote table", outputFile)
	return nil
}
