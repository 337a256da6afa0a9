// Package main provides the signer command that validates a paper and
// signs or verifies its provenance block.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"papermill/internal/config"
	"papermill/internal/models"
	"papermill/internal/validator"
	"papermill/pkg/metadata"
)

func main() {
	inputPath := flag.String("input", "", "Path to paper markdown")
	draftPath := flag.String("draft", "", "Draft JSON for structural validation (optional)")
	configPath := flag.String("config", "", "Path to pipeline YAML config")
	verify := flag.Bool("verify", false, "Verify the existing signature instead of signing")
	flag.Parse()

	if *inputPath == "" {
		fmt.Println("Usage: signer -input <path> [-verify]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	contentBytes, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("Error reading file: %v\n", err)
	}

	content := string(contentBytes)
	fmt.Printf("📂 Reading: %s (%d bytes)\n", *inputPath, len(content))

	if *verify {
		valid, err := metadata.Verify(content)
		if !valid {
			log.Fatalf("❌ Verification failed: %v\n", err)
		}

		meta, _ := metadata.Extract(content)
		fmt.Printf("✅ Signature valid (model: %s, generated: %s)\n",
			meta.Model, meta.GeneratedAt.Format("2006-01-02 15:04"))

		return
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, loadErr := config.Load(*configPath)
		if loadErr != nil {
			fmt.Printf("⚠️  Warning: could not load config from %s: %v. Using defaults.\n", *configPath, loadErr)
		} else {
			cfg = loaded
		}
	}

	validated := false

	if *draftPath != "" {
		draftBytes, readErr := os.ReadFile(*draftPath)
		if readErr != nil {
			log.Fatalf("❌ Error reading draft: %v\n", readErr)
		}

		var draft models.Draft
		if err := json.Unmarshal(draftBytes, &draft); err != nil {
			log.Fatalf("❌ Error parsing draft: %v\n", err)
		}

		v := validator.NewDraftValidator(cfg.Pipeline.Validation, cfg.Features.StrictValidation)

		result := v.Validate(&draft, cfg.Pipeline.Sections)
		fmt.Println(result)
		result.PrintErrors()
		result.PrintWarnings()

		validated = result.IsValid
	} else {
		fmt.Println("⚠️  No draft provided. Signing as unvalidated.")
	}

	fmt.Println("✍️  Signing file...")

	meta, _ := metadata.Extract(content)
	model := ""
	if meta != nil {
		model = meta.Model
	}

	signed := metadata.Sign(content, model, validated)

	if err := os.WriteFile(*inputPath, []byte(signed), 0o644); err != nil {
		log.Fatalf("Error writing file: %v\n", err)
	}

	fmt.Printf("✅ Signed and saved to: %s\n", *inputPath)
}
