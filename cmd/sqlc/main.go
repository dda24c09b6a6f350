package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const defaultConfigName = "sqlc.yaml"

// packageFor: internal/modules/journal/service/pg/sql/query.sql -> sql.
func packageFor(file string) (dir, pkg string) {
	dir, _ = filepath.Split(file)
	parts := strings.Split(strings.TrimSuffix(dir, string(os.PathSeparator)), string(os.PathSeparator))
	return dir, parts[len(parts)-1]
}

func generateConfig(base *viper.Viper, engine *viper.Viper, file string) (string, error) {
	dir, packageName := packageFor(file)
	engine.Set("gen.go.package", packageName)
	engine.Set("gen.go.out", dir)
	engine.Set("queries", file)

	engineSettings := engine.AllSettings()
	delete(engineSettings, "source")

	resultConfig := viper.New()
	resultConfig.Set("version", base.GetString("version"))
	resultConfig.Set("sql", []interface{}{engineSettings})

	bs, err := yaml.Marshal(resultConfig.AllSettings())
	if err != nil {
		return "", errors.Wrap(err, "marshal config to yaml")
	}
	_ = os.Remove(defaultConfigName)
	if err = os.WriteFile(defaultConfigName, bs, 0o644); err != nil {
		return "", errors.Wrap(err, "write sqlc.yaml")
	}
	return defaultConfigName, nil
}

func callSqlc(bin, config string) error {
	cmd := exec.Command(bin, "generate", "--file", config)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "call sqlc: %s", string(output))
	}
	return nil
}

// queryFiles раскрывает sql.0.source из базового конфига.
func queryFiles(base *viper.Viper) ([]string, error) {
	patterns := base.GetStringSlice("sql.0.source")
	if len(patterns) == 0 {
		return nil, errors.New("has no sql.0.source in config")
	}
	var files []string
	for _, pattern := range patterns {
		f, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "glob %s", pattern)
		}
		files = append(files, f...)
	}
	return files, nil
}

func run(baseName, bin string) error {
	base := viper.New()
	base.SetConfigName(baseName)
	base.SetConfigType("yaml")
	base.AddConfigPath(".")
	if err := base.ReadInConfig(); err != nil {
		return errors.Wrap(err, "read base config")
	}

	files, err := queryFiles(base)
	if err != nil {
		return err
	}

	engine := base.Sub("sql.0")
	if engine == nil {
		return errors.New("has no sql.0 in config")
	}
	engine.Set("schema", base.GetString("sql.0.schema"))

	defer func() { _ = os.Remove(defaultConfigName) }()
	for _, file := range files {
		configFile, err := generateConfig(base, engine, file)
		if err != nil {
			return errors.Wrap(err, "generate result config")
		}
		if err := callSqlc(bin, configFile); err != nil {
			return err
		}
		fmt.Printf("%s file complete\n", file)
	}
	fmt.Println("done")
	return nil
}

func main() {
	var baseName, bin string
	cmd := &cobra.Command{
		Use:   "sqlc",
		Short: "Run sqlc for every query.sql listed in the base config",
		RunE: func(*cobra.Command, []string) error {
			return run(baseName, bin)
		},
	}
	cmd.Flags().StringVar(&baseName, "base", ".sqlc.base", "base config name (without .yaml)")
	cmd.Flags().StringVar(&bin, "sqlc", "sqlc", "sqlc binary")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
