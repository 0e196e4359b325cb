package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/cv-synth/internal/schemas"
)

var validateDocCmd = &cobra.Command{
	Use:   "validate-doc",
	Short: "Validate a CV document against the JSON schema",
	Long:  "Validates a CV document JSON file against the embedded document schema, or against --schema when given.",
	RunE:  runValidateDoc,
}

var (
	validateDocInput  string
	validateDocSchema string
)

func init() {
	validateDocCmd.Flags().StringVarP(&validateDocInput, "in", "i", "", "Path to CV document JSON file (required)")
	validateDocCmd.Flags().StringVarP(&validateDocSchema, "schema", "s", "", "Path to a JSON schema file (embedded schema if empty)")

	if err := validateDocCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(validateDocCmd)
}

func runValidateDoc(cmd *cobra.Command, _ []string) error {
	var err error
	if validateDocSchema != "" {
		err = schemas.ValidateJSON(validateDocSchema, validateDocInput)
	} else {
		content, readErr := os.ReadFile(validateDocInput)
		if readErr != nil {
			return fmt.Errorf("failed to read document file: %w", readErr)
		}
		err = schemas.ValidateDocumentJSON(content)
	}

	out := cmd.OutOrStdout()
	if err != nil {
		var validationErr *schemas.ValidationError
		if errors.As(err, &validationErr) {
			for _, fe := range validationErr.Errors {
				_, _ = fmt.Fprintf(out, "✗ %s: %s\n", fe.Field, fe.Message)
			}
			return fmt.Errorf("document %s is invalid: %d error(s)", validateDocInput, len(validationErr.Errors))
		}
		return err
	}

	_, _ = fmt.Fprintf(out, "✅ %s is valid\n", validateDocInput)
	return nil
}
