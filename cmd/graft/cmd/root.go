// Copyright © 2020 Skyline Tools

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "graft",
	Short: "Graft moves content across the versions of a module graph",
	Long: `Graft manages estates of modules referencing each other at versions, and
reconciles parallel instances of a module graph: it walks the reference graph
of a destination root, merges the corresponding source content module by
module, and rewrites reference declarations where the source graph pins
different versions.

Versions are either dynamic (branch-like, mutable) or static (tag-like,
frozen). Merging only ever writes to dynamic versions; static references are
adopted, or promoted to a dynamic version, as their divergence requires.`,
}

var config *CLIConfig

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		osExit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)
	addLogLevelFlag(rootCmd)
	addNoInputFlag(rootCmd)
	addRegistryFlag(rootCmd)
	addStoreFlag(rootCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if os.Getenv("GRAFT_CONFIG") != "" {
		viper.SetConfigFile(os.Getenv("GRAFT_CONFIG"))
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.graft")
		viper.AddConfigPath("/etc/graft")
		viper.SetConfigName("graft")
	}

	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		log.Println("Using config file:", viper.ConfigFileUsed())
	}
	var err error
	config, err = newConfig()
	if err != nil {
		logFatalln(err)
	}
	config.setGraftParams(&graftFlags)
}
