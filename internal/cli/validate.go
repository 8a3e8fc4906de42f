package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/scenesync/internal/scenefile"
)

// ValidationError is one problem found in a scene file.
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// EntitySummary describes one entity of a valid scene.
type EntitySummary struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Parameters int    `json:"parameters"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	SceneID  int               `json:"scene_id,omitempty"`
	Entities []EntitySummary   `json:"entities,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scene.cue>",
		Short: "Validate a scene file",
		Long: `Load a CUE scene file against the scene schema and build it without
connecting anywhere. Prints the entities and their parameter counts.

Exit codes:
  0 - Scene is valid
  1 - Scene is invalid`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newOutputFormatter(opts, cmd)

	doc, err := scenefile.Load(path)
	if err != nil {
		return outputValidationErrors(formatter, []ValidationError{loadValidationError(err)})
	}
	formatter.VerboseLog("Loaded %d object(s) from %s", len(doc.Objects), path)

	built, err := scenefile.Build(doc)
	if err != nil {
		return outputValidationErrors(formatter, []ValidationError{{
			Code:    ErrCodeSceneBuild,
			Message: err.Error(),
		}})
	}

	result := ValidationResult{Valid: true, SceneID: int(built.Scene.ID())}
	for _, ent := range built.Scene.Entities() {
		result.Entities = append(result.Entities, EntitySummary{
			ID:         int(ent.ID()),
			Name:       ent.Name(),
			Kind:       ent.Kind().String(),
			Parameters: ent.ParameterCount(),
		})
	}

	return formatter.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Scene %d valid: %d entities\n", result.SceneID, len(result.Entities))
		for _, e := range result.Entities {
			fmt.Fprintf(w, "  %3d %-10s %-20s %d parameters\n", e.ID, e.Kind, e.Name, e.Parameters)
		}
	})
}

// loadValidationError converts a scene load error, keeping the CUE position.
func loadValidationError(err error) ValidationError {
	var le *scenefile.LoadError
	if errors.As(err, &le) {
		ve := ValidationError{Code: ErrCodeSceneLoad, Field: le.Field, Message: le.Message}
		if le.Pos.IsValid() {
			ve.Line = le.Pos.Line()
			ve.Column = le.Pos.Column()
		}
		return ve
	}
	return ValidationError{Code: ErrCodeSceneLoad, Message: err.Error()}
}

// outputValidationErrors reports errs and fails with exit code 1.
func outputValidationErrors(formatter *OutputFormatter, errs []ValidationError) error {
	result := ValidationResult{Valid: false, Errors: errs}
	cliErr := &CLIError{Code: errs[0].Code, Message: errs[0].Message}

	err := formatter.Failure(result, cliErr, func(w io.Writer) {
		fmt.Fprintln(w, "✗ Validation failed")
		fmt.Fprintln(w)
		for _, e := range errs {
			if e.Line > 0 {
				fmt.Fprintf(w, "line %d\n", e.Line)
			}
			if e.Field != "" {
				fmt.Fprintf(w, "  %s: %s: %s\n\n", e.Code, e.Field, e.Message)
				continue
			}
			fmt.Fprintf(w, "  %s: %s\n\n", e.Code, e.Message)
		}
	})
	if err != nil {
		return err
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
