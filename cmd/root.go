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
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/packagewjx/rail-analyzer/internal/config"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	FlagConfig   = "config"
	FlagLogLevel = "log-level"
)

const (
	envPrefix      = "RAIL_ANALYZER"
	configFileName = ".rail-analyzer"
)

var cfgFile string
var logLevel string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rail-analyzer",
	Short: "CPU电压轨日志分析工具",
	Long: "读取记录了各电压轨电压与各cluster频率的CSV日志，按phase统计每个电压轨的电压范围，\n" +
		"按活跃cluster的频率分组计算归一化平均电压，并绘制电压随时间变化的图表。",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return errors.Wrap(err, "日志级别错误")
		}
		logrus.SetLevel(level)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	rootCmd.PersistentFlags().StringVar(&cfgFile, FlagConfig, "",
		fmt.Sprintf("配置文件 (默认为$HOME/%s.yaml)", configFileName))
	rootCmd.PersistentFlags().StringVar(&logLevel, FlagLogLevel, logrus.InfoLevel.String(),
		"日志级别，可选panic、fatal、error、warn、info、debug、trace")

	setDefaults(config.Default())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			logrus.Fatalf("无法获取用户目录：%v", err)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(configFileName)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logrus.Infof("使用配置文件%s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
		logrus.Fatalf("读取配置文件失败：%v", err)
	}
}

// setDefaults 注册所有配置项的默认值，使环境变量与配置文件都能覆盖它们
func setDefaults(def *config.Config) {
	viper.SetDefault("input", def.Input)
	viper.SetDefault("delimiter", def.Delimiter)
	viper.SetDefault("spreadsheet", def.Spreadsheet)
	viper.SetDefault("output-dir", def.OutputDir)
	viper.SetDefault("rail-prefix", def.RailPrefix)
	viper.SetDefault("summary-phases", def.SummaryPhases)
	viper.SetDefault("phase-clusters", def.PhaseClusters)
	viper.SetDefault("cluster-rails", def.ClusterRails)

	p := def.Presentation
	viper.SetDefault("presentation.font-path", p.FontPath)
	viper.SetDefault("presentation.font-size", p.FontSize)
	viper.SetDefault("presentation.title-font-size", p.TitleFontSize)
	viper.SetDefault("presentation.width", p.Width)
	viper.SetDefault("presentation.height", p.Height)
	viper.SetDefault("presentation.narrow-width", p.NarrowWidth)
	viper.SetDefault("presentation.dpi", p.DPI)
	viper.SetDefault("presentation.format", p.Format)
	viper.SetDefault("presentation.time-series-file", p.TimeSeriesFile)
	viper.SetDefault("presentation.cluster-rails-file", p.ClusterRailsFile)
}

// bindFlags 只在命令实际执行时绑定，不同子命令的同名参数互不覆盖。flags中的键为参数名，值为配置项
func bindFlags(cmd *cobra.Command, flags map[string]string) error {
	for flag, key := range flags {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return errors.Wrapf(err, "绑定参数%s失败", flag)
		}
	}
	return nil
}

// loadConfig 合并默认值、配置文件、环境变量与命令行参数，input不为空时覆盖配置中的输入文件
func loadConfig(input string) (*config.Config, error) {
	cfg := &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "解析配置失败")
	}
	if input != "" {
		cfg.Input = input
	}
	if err := cfg.Complete(); err != nil {
		return nil, errors.Wrap(err, "配置有误")
	}
	logrus.Debugf("配置：%s", cfg)
	return cfg, nil
}
