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
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const (
	FlagOutputDir   = "output-dir"
	FlagSpreadsheet = "spreadsheet"
	FlagFormat      = "format"
	FlagRailPrefix  = "rail-prefix"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [logFile]",
	Short: "分析电压轨日志，输出统计表格与图表",
	Long: "依次完成：转换表格副本（失败只警告）、读取日志、计算相对时间并识别电压轨、\n" +
		"统计指定phase的电压范围、按cluster频率分组计算归一化平均电压、输出表格与两张图表。\n" +
		"未指定logFile时使用配置中的input。",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 1 {
			return fmt.Errorf("参数错误，最多只能指定一个日志文件")
		}
		return bindFlags(cmd, map[string]string{
			FlagOutputDir:   "output-dir",
			FlagSpreadsheet: "spreadsheet",
			FlagFormat:      "presentation.format",
			FlagRailPrefix:  "rail-prefix",
		})
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

		result, err := pipeline.Run(afero.NewOsFs(), cfg, os.Stdout)
		if err != nil {
			return errors.Wrap(err, "分析失败")
		}
		for _, path := range result.Artifacts {
			fmt.Printf("已输出%s\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	def := config.Default()
	analyzeCmd.Flags().StringP(FlagOutputDir, "o", def.OutputDir,
		"图表输出目录")
	analyzeCmd.Flags().StringP(FlagSpreadsheet, "s", def.Spreadsheet,
		"输入文件的xlsx副本路径。auto为输入文件旁边的同名xlsx，设置为空字符串则不转换")
	analyzeCmd.Flags().StringP(FlagFormat, "f", def.Presentation.Format,
		"图表格式，png或svg")
	analyzeCmd.Flags().StringP(FlagRailPrefix, "p", def.RailPrefix,
		"电压轨列名前缀")
}
