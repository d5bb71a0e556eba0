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
	"unicode/utf8"

	"github.com/packagewjx/rail-analyzer/internal/spreadsheet"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const FlagDelimiter = "delimiter"

var delimiter string

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert outputFile inputFile...",
	Short: "将CSV文件转换为xlsx，每个文件一个工作表",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 2 {
			return fmt.Errorf("命令错误")
		}
		_, err := os.Stat(args[0])
		if !os.IsNotExist(err) {
			return fmt.Errorf("输出文件已存在")
		}
		if utf8.RuneCountInString(delimiter) != 1 {
			return fmt.Errorf("分隔符必须是单个字符")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		r, _ := utf8.DecodeRuneInString(delimiter)
		err := spreadsheet.ConvertCSV(afero.NewOsFs(), args[1:], args[0], r)
		if err != nil {
			return errors.Wrap(err, "转换失败")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&delimiter, FlagDelimiter, "d", ",",
		"CSV文件的分隔符")
}
