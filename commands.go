package main

import (
	"fmt"

	"OnnxRocEval/config"
	"OnnxRocEval/dataset"
	"OnnxRocEval/engine"
	"OnnxRocEval/logger"
	"OnnxRocEval/report"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "onnx-roc-eval",
	Short: "Plot per-class ROC curves of an ONNX image classifier",
	Long: `onnx-roc-eval runs an ONNX image classifier over a validation directory
(one subdirectory per class), computes a one-vs-rest ROC curve and AUC for
every class and renders them into a single PNG figure.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	RunE:              runEvaluate,
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run inference and render the ROC figure (default)",
	RunE:  runEvaluate,
}

var classesCmd = &cobra.Command{
	Use:   "classes",
	Short: "Print the resolved class order and image counts without loading the model",
	RunE:  runClasses,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the YAML configuration")
	rootCmd.AddCommand(evaluateCmd, classesCmd)
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	var err error
	found := true
	if cmd.Flags().Changed("config") {
		cfg, err = config.Load(configPath)
	} else {
		cfg, found, err = config.LoadOrDefault(configPath)
	}
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.LogLevel, false); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if !found {
		logger.Log().Info("no config file, using defaults", zap.String("path", configPath))
	}
	return nil
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	_, err := evaluate(cmd.Context(), cfg, cmd.OutOrStdout())
	return err
}

func runClasses(cmd *cobra.Command, _ []string) error {
	meta, err := engine.LoadMetadata(cfg.Metadata, true)
	if err != nil {
		return err
	}
	classes, err := dataset.ResolveClasses(cfg.ValidationDir, cfg.Classes, meta.Classes)
	if err != nil {
		return err
	}
	decoder, err := newDecoder(cfg)
	if err != nil {
		return err
	}
	ds, err := dataset.Open(cfg.ValidationDir, classes, decoder.Extensions())
	if err != nil {
		return err
	}
	report.PrintClassTable(cmd.OutOrStdout(), classes.Labels(), ds.Counts())
	return nil
}
