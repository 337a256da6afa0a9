// Package main provides the formatter command that realigns tables in
// markdown files and re-signs their provenance blocks.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"papermill/internal/formatter"
)

func main() {
	targetPath := flag.String("path", ".", "Path to file or directory to format")
	write := flag.Bool("write", false, "Write changes to file (default: false, dry-run)")
	help := flag.Bool("help", false, "Show usage information")
	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}

	fmt.Printf("📂 Scanning path: %s\n", *targetPath)

	if *write {
		fmt.Println("✍️  Write mode ENABLED (files will be modified)")
	} else {
		fmt.Println("👀 Dry-run mode (no changes will be written)")
	}

	fmt.Println()

	count := 0
	changed := 0
	errors := 0

	err := filepath.Walk(*targetPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Printf("❌ Error accessing path %s: %v\n", path, err)

			errors++

			return nil
		}

		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && info.Name() != "." {
				return filepath.SkipDir
			}

			return nil
		}

		if strings.ToLower(filepath.Ext(path)) != ".md" {
			return nil
		}

		count++

		wasChanged, procErr := processFile(path, *write)
		if procErr != nil {
			fmt.Printf("❌ Failed to process %s: %v\n", path, procErr)

			errors++
		} else if wasChanged {
			changed++

			if *write {
				fmt.Printf("✅ Formatted & signed: %s\n", path)
			} else {
				fmt.Printf("📝 Would format & sign: %s\n", path)
			}
		}

		return nil
	})

	if err != nil {
		log.Fatalf("❌ Error walking path: %v\n", err)
	}

	fmt.Println("\n----------------------------------------------------------------")
	fmt.Printf("📈 Summary:\n")
	fmt.Printf("  Scanned: %d files\n", count)
	fmt.Printf("  Changed: %d files\n", changed)
	fmt.Printf("  Errors:  %d\n", errors)

	if changed > 0 && !*write {
		fmt.Println("\n💡 Run with -write to apply changes.")
		os.Exit(1)
	}
}

func processFile(path string, write bool) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	original := string(content)

	formatted, err := formatter.FormatMarkdown(original)
	if err != nil {
		return false, err
	}

	if formatted == original {
		return false, nil
	}

	if write {
		if err := os.WriteFile(path, []byte(formatted), 0o644); err != nil {
			return false, err
		}
	}

	return true, nil
}

func printUsage() {
	fmt.Println("Usage: ./bin/formatter [OPTIONS]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  ./bin/formatter -path out")
	fmt.Println("  ./bin/formatter -path out/paper.md -write")
}
