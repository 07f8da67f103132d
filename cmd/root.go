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
	"github.com/qdispatch/qdispatch/config"
	"github.com/qdispatch/qdispatch/global"
	"github.com/qdispatch/qdispatch/models"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	addrFlag string
	logLevel string
	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "qdispatch",
		Short: "qdispatch: a space-aware dispatcher fronting a fleet of qBittorrent nodes",
		Long: `qdispatch evaluates every node in a configured qBittorrent fleet on free
disk, in-flight downloads, and bandwidth, then routes each incoming torrent
submission to the best candidate node. It also fronts a qBittorrent-
compatible endpoint so existing media managers can submit transparently.`,
		Example: `  # Start the dispatcher
  qdispatch serve
  # Generate shell completion for Bash
  qdispatch completion bash
  # Generate shell completion for Zsh
  qdispatch completion zsh
  # Initialize a configuration file
  qdispatch config init`,
		PersistentPreRunE: initTools,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.qdispatch/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&addrFlag, "addr", "", "listen address, overriding the config file's listen_addr")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level, overriding the config file's logging.level")
}

// defaultConfigPath returns $HOME/.qdispatch/config.yaml.
func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, models.WorkDir, "config.yaml"), nil
}

// resolveConfigPath honors --config when set, falling back to the default
// location discovered via the process-wide viper instance.
func resolveConfigPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	v := global.Viper()
	if v.ConfigFileUsed() != "" {
		return v.ConfigFileUsed(), nil
	}
	return defaultConfigPath()
}

func initTools(cmd *cobra.Command, args []string) error {
	zapCfg := models.DefaultZapConfig
	if logLevel != "" {
		zapCfg.Level = logLevel
	}
	logger, err := config.BuildLogger(zapCfg)
	if err != nil {
		color.Red("Failed to build logger\n")
		return fmt.Errorf("build logger: %w", err)
	}
	global.InitLogger(logger)
	return nil
}
