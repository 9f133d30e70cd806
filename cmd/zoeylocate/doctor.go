package main

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/zoeyai/zoeylocate/pkg/auto/screen"
	"github.com/zoeyai/zoeylocate/pkg/permissions"
	"github.com/zoeyai/zoeylocate/pkg/python"
	"github.com/zoeyai/zoeylocate/pkg/uia"
	"github.com/zoeyai/zoeylocate/pkg/window"
)

// doctorReport 运行环境检查结果
type doctorReport struct {
	OS          string              `yaml:"os"`
	Version     string              `yaml:"version"`
	Screen      screenReport        `yaml:"screen"`
	Permissions *permissions.Status `yaml:"permissions"`
	Python      *python.Info        `yaml:"python"`
	UIA         bool                `yaml:"uia_supported"`
	ConfigFile  string              `yaml:"config_file"`
	Hint        string              `yaml:"hint,omitempty"`
}

type screenReport struct {
	Width    int `yaml:"width"`
	Height   int `yaml:"height"`
	Displays int `yaml:"displays"`
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check screen capture and UI Automation prerequisites",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, h := screen.Size()
		status := permissions.Check()
		report := doctorReport{
			OS:          runtime.GOOS + "/" + runtime.GOARCH,
			Version:     Version,
			Screen:      screenReport{Width: w, Height: h, Displays: screen.DisplayCount()},
			Permissions: status,
			Python:      python.Detect(),
			UIA:         uia.IsSupported(),
			ConfigFile:  configManager().GetConfigFile(),
			Hint:        status.Instructions(),
		}
		return printYAML(report)
	},
}

var windowsCmd = &cobra.Command{
	Use:   "windows [FILTER]",
	Short: "List top-level windows usable with --window",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := window.List()
		if err != nil {
			return err
		}
		if len(args) == 1 {
			ws = window.Filter(ws, args[0])
		}

		type row struct {
			window.Info `yaml:",inline"`
			Bounds      [4]int `yaml:"bounds"`
		}
		rows := make([]row, len(ws))
		for i, w := range ws {
			b := w.Bounds
			rows[i] = row{Info: w, Bounds: [4]int{b.Min.X, b.Min.Y, b.Dx(), b.Dy()}}
		}
		return printYAML(rows)
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd, windowsCmd)
}
