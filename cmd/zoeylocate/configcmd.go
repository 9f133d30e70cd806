package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zoeyai/zoeylocate/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printYAML(cfg)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		m := configManager()
		force, _ := cmd.Flags().GetBool("force")
		if m.Exists() && !force {
			return fmt.Errorf("配置文件已存在: %s (使用 --force 覆盖)", m.GetConfigFile())
		}
		if err := m.Save(config.Default()); err != nil {
			return err
		}
		fmt.Printf("配置已写入: %s\n", m.GetConfigFile())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configInitCmd)
	configInitCmd.Flags().Bool("force", false, "覆盖已存在的配置文件")
}

func configManager() *config.Manager {
	if path, _ := rootCmd.PersistentFlags().GetString("config"); path != "" {
		return config.NewManagerWithFile(path)
	}
	return config.GetDefaultManager()
}
