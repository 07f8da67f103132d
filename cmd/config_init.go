/*
Copyright © 2024 sunerpy <nkuzhangshn@gmail.com>
Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:
The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.
THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/qdispatch/qdispatch/core"
	"github.com/qdispatch/qdispatch/models"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd groups the config subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or initialize the dispatcher's configuration",
}

// configInitCmd represents the init command
var configInitCmd = &cobra.Command{
	Use:     "init",
	Short:   "Create the working directory and a starter config file",
	Long:    "Creates ~/.qdispatch and a config.yaml with one placeholder node, ready to edit.",
	Example: `  qdispatch config init`,
	Run:     initConfigAndDBFile,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
}

func checkAndInitWorkDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create working directory: %v", err)
		}
		color.Green("created working directory: %s", dir)
	}
	return nil
}

func starterConfig() models.Config {
	return models.Config{
		ListenAddr: models.DefaultListenAddr,
		Nodes: []models.NodeDescriptor{
			{
				Name:      "node-1",
				BaseURL:   "http://127.0.0.1:8081",
				Username:  "admin",
				Password:  "adminadmin",
				MinFreeGB: 20,
				Weight:    1.0,
			},
		},
		Policy:          models.DefaultScoringPolicy,
		RequestTracking: models.DefaultRequestTracking,
		Logging:         models.DefaultZapConfig,
	}
}

func initConfigAndDBFile(cmd *cobra.Command, args []string) {
	home, err := os.UserHomeDir()
	if err != nil {
		color.Red("cannot determine home directory: %v", err)
		os.Exit(1)
	}
	workDir := filepath.Join(home, models.WorkDir)
	if err := checkAndInitWorkDir(workDir); err != nil {
		color.Red("init failed: %v", err)
		os.Exit(1)
	}
	configPath := filepath.Join(workDir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		color.Yellow("config already exists at %s, leaving it untouched", configPath)
		return
	}
	raw, err := yaml.Marshal(starterConfig())
	if err != nil {
		color.Red("build starter config: %v", err)
		os.Exit(1)
	}
	if err := os.WriteFile(configPath, raw, 0o644); err != nil {
		color.Red("write config: %v", err)
		os.Exit(1)
	}
	if _, err := core.ParseAndValidate(raw); err != nil {
		color.Red("starter config failed its own validation: %v", err)
		os.Exit(1)
	}
	color.Green("wrote %s — edit it, then run `qdispatch serve`", configPath)
}
