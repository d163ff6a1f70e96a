// Package cmd wires the CLI surface for the query router process.
package cmd

import (
	"fmt"

	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	rconfig "github.com/distributed-ai/query-router/library/config"
	"github.com/distributed-ai/query-router/library/log"
)

var rootCmd = &cobra.Command{
	Use:   "query-router",
	Short: "query-router",
	Long:  `coordination server for a distributed pool of query-answering nodes`,
	Args:  gcmd.NoExtraArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return gconfig.S.BindPFlags(cmd.Flags())
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "run in debug mode")
	rootCmd.PersistentFlags().StringP("config", "c", "/etc/query-router/settings.yml", "config file path")
	rootCmd.PersistentFlags().String("log-level", "info", "`debug/info/error`")
	rootCmd.PersistentFlags().String("listen", rconfig.DefaultListen, "address to listen on")
	rootCmd.PersistentFlags().String("admin-secret", "", "HMAC secret enabling the /admin/* surface; empty disables it")
	rootCmd.PersistentFlags().String("redis-addr", "", "Redis address for best-effort lifecycle notifications; empty disables it")

	rootCmd.AddCommand(serveCmd)
}

func setupSettings() {
	if gconfig.S.GetBool("debug") {
		fmt.Println("run in debug mode")
		gconfig.S.Set("log-level", "debug")
	} else {
		fmt.Println("run in prod mode")
	}

	rconfig.LoadFromFile(gconfig.S.GetString("config"))
}

func setupLogger() {
	lvl := gconfig.S.GetString("log-level")
	if err := log.Logger.ChangeLevel(lvl); err != nil {
		log.Logger.Panic("change log level", zap.Error(err), zap.String("level", lvl))
	}
}

// Execute runs the root command, exiting the process on fatal error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Logger.Panic("start", zap.Error(err))
	}
}
