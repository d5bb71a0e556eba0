/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/packagewjx/rail-analyzer/internal/config"
	"github.com/packagewjx/rail-analyzer/internal/pipeline"
	"github.com/packagewjx/rail-analyzer/internal/present"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// railsCmd represents the rails command
var railsCmd = &cobra.Command{
	Use:   "rails [logFile]",
	Short: "输出日志中按前缀识别到的电压轨列名",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 1 {
			return fmt.Errorf("参数错误，最多只能指定一个日志文件")
		}
		return bindFlags(cmd, map[string]string{FlagRailPrefix: "rail-prefix"})
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		input := ""
		if len(args) == 1 {
			input = args[0]
		}
		cfg, err := loadConfig(input)
		if err != nil {
			return err
		}

		rails, err := pipeline.Rails(afero.NewOsFs(), cfg)
		if err != nil {
			return err
		}
		present.PrintRails(os.Stdout, rails)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(railsCmd)

	railsCmd.Flags().StringP(FlagRailPrefix, "p", config.Default().RailPrefix,
		"电压轨列名前缀")
}
