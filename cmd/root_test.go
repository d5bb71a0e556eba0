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
	"testing"

	"github.com/packagewjx/rail-analyzer/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	def := config.Default()
	assert.Equal(t, def.Input, cfg.Input)
	assert.Equal(t, def.PhaseClusters, cfg.PhaseClusters)
	assert.Equal(t, def.ClusterRails, cfg.ClusterRails)
	assert.Equal(t, def.Presentation, cfg.Presentation)

	viper.Set("rail-prefix", "pmic")
	viper.Set("presentation.format", "SVG")
	defer func() {
		viper.Set("rail-prefix", def.RailPrefix)
		viper.Set("presentation.format", def.Presentation.Format)
	}()
	cfg, err = loadConfig("/data/log.csv")
	require.NoError(t, err)
	assert.Equal(t, "/data/log.csv", cfg.Input)
	assert.Equal(t, "/data/log.xlsx", cfg.Spreadsheet)
	assert.Equal(t, "pmic", cfg.RailPrefix)
	assert.Equal(t, config.FormatSVG, cfg.Presentation.Format)
}

func TestLoadConfig_Invalid(t *testing.T) {
	viper.Set("delimiter", ";;")
	defer viper.Set("delimiter", config.DefaultDelimiter)

	_, err := loadConfig("")
	assert.Error(t, err)
}
