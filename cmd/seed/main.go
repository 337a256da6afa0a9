// Package main provides the seed command-line tool for post-deploy upload.
// It waits for the archive service to be healthy, then formats and publishes
// the generated papers.
package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
)

// Config holds the seeder configuration.
type Config struct {
	ArchiveURL    string
	PapersAPI     string
	HealthTimeout time.Duration
	AdminEmail    string
	AdminPassword string
	BinDir        string
	OutDir        string
	ConfigPath    string
}

func logInfo(msg string) {
	fmt.Printf("%s[SEEDER]%s %s\n", colorGreen, colorReset, msg)
}

func logWarn(msg string) {
	fmt.Printf("%s[SEEDER]%s %s\n", colorYellow, colorReset, msg)
}

func logError(msg string) {
	fmt.Printf("%s[SEEDER]%s %s\n", colorRed, colorReset, msg)
}

func main() {
	cfg := parseConfig()

	if !waitForArchive(cfg) {
		logError("Aborting seeding - archive service not available")
		os.Exit(1)
	}

	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		logError("ARCHIVE_EMAIL and ARCHIVE_PASSWORD must be set")
		os.Exit(1)
	}

	// Format and re-sign the generated markdown before uploading.
	logInfo("Formatting generated markdown files...")
	runFormatter(cfg)

	uploadPapers(cfg)

	logInfo("===========================================")
	logInfo("Seeding complete!")
	logInfo("===========================================")
}

func parseConfig() Config {
	archiveURL := flag.String("archive-url", "", "Archive service URL (default: ARCHIVE_BASE_URL or http://papermill-archive:3000)")
	healthTimeout := flag.Duration("health-timeout", 120*time.Second, "Health check timeout")
	binDir := flag.String("bin-dir", "./bin", "Directory containing binaries")
	outDir := flag.String("out-dir", "./out", "Pipeline output directory")
	configPath := flag.String("config", "./configs/pipeline.yaml", "Pipeline config path")
	flag.Parse()

	url := *archiveURL
	if url == "" {
		url = os.Getenv("ARCHIVE_BASE_URL")
	}
	if url == "" {
		url = "http://papermill-archive:3000"
	}

	return Config{
		ArchiveURL:    url,
		PapersAPI:     url + "/api/papers",
		HealthTimeout: *healthTimeout,
		AdminEmail:    os.Getenv("ARCHIVE_EMAIL"),
		AdminPassword: os.Getenv("ARCHIVE_PASSWORD"),
		BinDir:        *binDir,
		OutDir:        *outDir,
		ConfigPath:    *configPath,
	}
}

func waitForArchive(cfg Config) bool {
	startTime := time.Now()
	logInfo(fmt.Sprintf("Waiting for archive service at %s...", cfg.ArchiveURL))

	client := &http.Client{Timeout: 5 * time.Second}

	for {
		resp, err := client.Get(cfg.ArchiveURL)
		if err == nil {
			statusCode := resp.StatusCode
			if closeErr := resp.Body.Close(); closeErr != nil {
				logWarn(fmt.Sprintf("Failed to close response body: %v", closeErr))
			}
			if statusCode >= 200 && statusCode < 400 {
				logInfo(fmt.Sprintf("Archive service is ready! (HTTP %d)", statusCode))

				// Verify the papers API is actually serving before uploading.
				if waitForPapersAPI(cfg, client) {
					return true
				}
				logWarn("Papers API not ready after initial wait, continuing to retry...")
			}
		}

		elapsed := time.Since(startTime)
		if elapsed >= cfg.HealthTimeout {
			logError(fmt.Sprintf("Archive service failed to start within %v", cfg.HealthTimeout))
			return false
		}

		fmt.Print(".")
		time.Sleep(2 * time.Second)
	}
}

// waitForPapersAPI verifies the papers endpoint responds with a valid listing.
func waitForPapersAPI(cfg Config, client *http.Client) bool {
	for i := 0; i < 5; i++ {
		resp, err := client.Get(cfg.PapersAPI)
		if err != nil {
			time.Sleep(2 * time.Second)
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == 200 && !strings.Contains(string(body), "Failed query") {
			logInfo("Papers API is ready")
			return true
		}

		logWarn(fmt.Sprintf("Papers API not ready (attempt %d/5), waiting...", i+1))
		time.Sleep(3 * time.Second)
	}

	return false
}

func runFormatter(cfg Config) {
	formatterPath := filepath.Join(cfg.BinDir, "formatter")

	cmd := exec.Command(formatterPath, "-path", cfg.OutDir, "-write")
	// A formatting failure should not block the upload.
	_ = cmd.Run()
}

func uploadPapers(cfg Config) {
	entries, err := os.ReadDir(cfg.OutDir)
	if err != nil {
		logError(fmt.Sprintf("Failed to read output directory %s: %v", cfg.OutDir, err))
		return
	}

	uploaded := 0

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}

		mdPath := filepath.Join(cfg.OutDir, entry.Name())
		draftPath := strings.TrimSuffix(mdPath, ".md") + ".json"
		if entry.Name() == "paper.md" {
			draftPath = filepath.Join(cfg.OutDir, "draft.json")
		}

		if _, err := os.Stat(draftPath); os.IsNotExist(err) {
			logWarn(fmt.Sprintf("No draft artifact for %s, skipping: %s", entry.Name(), draftPath))
			continue
		}

		logInfo(fmt.Sprintf("Uploading %s...", entry.Name()))

		if err := runPublisher(cfg, mdPath, draftPath); err != nil {
			logError(fmt.Sprintf("Failed to upload %s: %v", entry.Name(), err))
			continue
		}

		uploaded++
	}

	logInfo(fmt.Sprintf("Uploaded %d paper(s)", uploaded))
}

func runPublisher(cfg Config, inputPath, draftPath string) error {
	publishPath := filepath.Join(cfg.BinDir, "publish")

	args := []string{
		"-config", cfg.ConfigPath,
		"-input", inputPath,
		"-draft", draftPath,
		"-archive-url", cfg.ArchiveURL,
		"-email", cfg.AdminEmail,
		"-password", cfg.AdminPassword,
	}

	cmd := exec.Command(publishPath, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}
